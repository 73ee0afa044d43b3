package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseCatalog() Catalog {
	return Catalog{
		Institution: dayInstitution(),
		Subjects: []Subject{
			{ID: "s1", Code: "MTH101", Name: "Math", Kind: SubjectTheory, WeeklyPeriods: 3, SessionsPerWeek: 3, ContinuousPeriods: 1},
		},
		Instructors: []Instructor{
			{ID: "i1", Name: "Teacher", EligibleSubjects: map[string]bool{"s1": true}, MaxWeeklyPeriods: 20, MaxDailyPeriods: 6},
		},
		Rooms: []Room{
			{ID: "r1", Name: "Room 1", Kind: RoomClassroom, Capacity: 60},
		},
		Cohorts: []Cohort{
			{ID: "c1", Name: "Cohort 1", Size: 40, MandatorySubjectIDs: []string{"s1"}},
		},
	}
}

// --- Subject.normalize: spec §7 auto-normalization, boundary behavior ---

func TestSubjectNormalizeNonLabUntouched(t *testing.T) {
	s := Subject{Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 1, SessionsPerWeek: 1}
	assert.Equal(t, s, s.normalize())
}

func TestSubjectNormalizeDegenerateLabContinuousAndWeeklyBothOne(t *testing.T) {
	s := Subject{ID: "l2", Kind: SubjectLab, ContinuousPeriods: 1, WeeklyPeriods: 1, SessionsPerWeek: 1}
	n := s.normalize()
	assert.Equal(t, 2, n.ContinuousPeriods)
	assert.Equal(t, 2, n.WeeklyPeriods)
	assert.Equal(t, 1, n.SessionsPerWeek)
}

func TestSubjectNormalizeDegenerateLabWeeklyWiderThanContinuous(t *testing.T) {
	s := Subject{ID: "l3", Kind: SubjectLab, ContinuousPeriods: 1, WeeklyPeriods: 5, SessionsPerWeek: 5}
	n := s.normalize()
	assert.Equal(t, 5, n.ContinuousPeriods, "weekly_periods wins when it exceeds the degenerate continuous_periods")
	assert.Equal(t, 5, n.WeeklyPeriods)
	assert.Equal(t, 1, n.SessionsPerWeek)
}

func TestSubjectNormalizeHealthyLabUntouched(t *testing.T) {
	s := Subject{ID: "l1", Kind: SubjectLab, ContinuousPeriods: 3, WeeklyPeriods: 3, SessionsPerWeek: 1}
	assert.Equal(t, s, s.normalize())
}

func TestSubjectIsLab(t *testing.T) {
	assert.True(t, Subject{Kind: SubjectLab}.IsLab())
	assert.False(t, Subject{Kind: SubjectTheory}.IsLab())
}

// --- validateAndCompile: input-error taxonomy, spec §7 ---

func TestValidateAndCompileRejectsEmptyCatalogs(t *testing.T) {
	cat := baseCatalog()

	empty := cat
	empty.Institution.WorkingDays = nil
	_, err := validateAndCompile(empty)
	assert.Error(t, err)

	empty = cat
	empty.Institution.Periods = nil
	_, err = validateAndCompile(empty)
	assert.Error(t, err)

	empty = cat
	empty.Subjects = nil
	_, err = validateAndCompile(empty)
	assert.Error(t, err)

	empty = cat
	empty.Instructors = nil
	_, err = validateAndCompile(empty)
	assert.Error(t, err)

	empty = cat
	empty.Rooms = nil
	_, err = validateAndCompile(empty)
	assert.Error(t, err)

	empty = cat
	empty.Cohorts = nil
	_, err = validateAndCompile(empty)
	assert.Error(t, err)
}

func TestValidateAndCompileRejectsBadSubjectShape(t *testing.T) {
	cat := baseCatalog()
	cat.Subjects[0].ID = ""
	_, err := validateAndCompile(cat)
	assert.Error(t, err)

	cat = baseCatalog()
	cat.Subjects[0].ContinuousPeriods = 0
	_, err = validateAndCompile(cat)
	assert.Error(t, err)

	cat = baseCatalog()
	cat.Subjects[0].ContinuousPeriods = 5
	cat.Subjects[0].WeeklyPeriods = 3
	_, err = validateAndCompile(cat)
	assert.Error(t, err)

	cat = baseCatalog()
	cat.Subjects[0].PreferredTimeTags = []string{""}
	_, err = validateAndCompile(cat)
	assert.Error(t, err, "the empty string is the only preferred-time tag rejected at catalog load time")
}

func TestValidateAndCompileAppliesNormalizationAndSortsIDs(t *testing.T) {
	cat := baseCatalog()
	cat.Subjects = append(cat.Subjects, Subject{ID: "l2", Kind: SubjectLab, ContinuousPeriods: 1, WeeklyPeriods: 1, SessionsPerWeek: 1})
	c, err := validateAndCompile(cat)
	require.NoError(t, err)
	assert.Equal(t, 2, c.subjects["l2"].ContinuousPeriods)
	assert.Equal(t, []string{"l2", "s1"}, c.subjectIDs)
}

func TestValidTimeTagClosedVocabulary(t *testing.T) {
	assert.True(t, validTimeTag("Morning"))
	assert.True(t, validTimeTag("Afternoon"))
	assert.True(t, validTimeTag("Evening"))
	assert.True(t, validTimeTag("p3"))
	assert.True(t, validTimeTag("Monday"), "any non-empty token is accepted as a day qualifier at catalog load time")
	assert.True(t, validTimeTag("pX"), "a non-numeric p-prefixed token still falls through to the day-qualifier case")
	assert.False(t, validTimeTag(""), "the empty string is the only tag rejected at load time")
}

// --- mandatorySubjects: boundary behavior "empty mandatory list falls back
// to the whole subject catalog" ---

func TestMandatorySubjectsFallsBackToFullCatalogWhenEmpty(t *testing.T) {
	cat := baseCatalog()
	cat.Subjects = append(cat.Subjects, Subject{ID: "s2", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 2, SessionsPerWeek: 2})
	cat.Cohorts[0].MandatorySubjectIDs = nil
	c, err := validateAndCompile(cat)
	require.NoError(t, err)

	got := c.mandatorySubjects("c1")
	require.Len(t, got, 2)
	ids := map[string]bool{got[0].ID: true, got[1].ID: true}
	assert.True(t, ids["s1"])
	assert.True(t, ids["s2"])
}

func TestMandatorySubjectsHonorsExplicitList(t *testing.T) {
	cat := baseCatalog()
	cat.Subjects = append(cat.Subjects, Subject{ID: "s2", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 2, SessionsPerWeek: 2})
	c, err := validateAndCompile(cat)
	require.NoError(t, err)

	got := c.mandatorySubjects("c1")
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
}
