package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compiledWithSubjects(cohortMandatory []string, subjects ...Subject) *compiled {
	cat := baseCatalog()
	cat.Subjects = subjects
	cat.Cohorts[0].MandatorySubjectIDs = cohortMandatory
	c, err := validateAndCompile(cat)
	if err != nil {
		panic(err)
	}
	return c
}

func entriesFor(cohortID, subjectID string, n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = Entry{ID: "e", CohortID: cohortID, SubjectID: subjectID}
	}
	return out
}

// score's round-half-up formula, spec §4.3.8, resolving the source's dual
// scoring definitions in favor of scheduled/required over mandatory subjects.

func TestScoreRoundsHalfUp(t *testing.T) {
	c := compiledWithSubjects([]string{"s1"}, Subject{ID: "s1", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 3, SessionsPerWeek: 3})
	got := score(c, "c1", entriesFor("c1", "s1", 2)) // 2/3 = 66.67 -> 67
	assert.Equal(t, 67, got)
}

func TestScoreRoundsHalfUpAtExactHalf(t *testing.T) {
	c := compiledWithSubjects([]string{"s1"}, Subject{ID: "s1", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 8, SessionsPerWeek: 8})
	got := score(c, "c1", entriesFor("c1", "s1", 1)) // 1/8 = 12.5 -> 13
	assert.Equal(t, 13, got)
}

func TestScoreFullCompletionIsOneHundred(t *testing.T) {
	c := compiledWithSubjects([]string{"s1"}, Subject{ID: "s1", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 3, SessionsPerWeek: 3})
	got := score(c, "c1", entriesFor("c1", "s1", 3))
	assert.Equal(t, 100, got)
}

func TestScoreZeroRequiredIsOneHundred(t *testing.T) {
	c := compiledWithSubjects([]string{"s1"}, Subject{ID: "s1", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 1, SessionsPerWeek: 0})
	got := score(c, "c1", nil)
	assert.Equal(t, 100, got)
}

func TestScoreIgnoresEntriesForOtherCohortsOrSubjects(t *testing.T) {
	c := compiledWithSubjects([]string{"s1"}, Subject{ID: "s1", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 2, SessionsPerWeek: 2})
	entries := append(entriesFor("c1", "s1", 1), entriesFor("c2", "s1", 5)...)
	entries = append(entries, Entry{ID: "e", CohortID: "c1", SubjectID: "unrelated"})
	got := score(c, "c1", entries)
	assert.Equal(t, 50, got) // only the one matching (c1, s1) entry counts
}

func TestRequiredEntriesSumsAcrossCohorts(t *testing.T) {
	cat := baseCatalog()
	cat.Subjects = []Subject{
		{ID: "s1", Kind: SubjectTheory, ContinuousPeriods: 1, WeeklyPeriods: 2, SessionsPerWeek: 2},
	}
	cat.Cohorts = []Cohort{
		{ID: "c1", Size: 10, MandatorySubjectIDs: []string{"s1"}},
		{ID: "c2", Size: 10, MandatorySubjectIDs: []string{"s1"}},
	}
	c, err := validateAndCompile(cat)
	require.NoError(t, err)
	assert.Equal(t, 4, totalTarget(c, []string{"c1", "c2"}))
}
