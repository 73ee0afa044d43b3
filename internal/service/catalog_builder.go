package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type catalogSubjectReader interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type catalogClassReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Class, error)
}

type catalogRoomReader interface {
	ListActive(ctx context.Context) ([]models.Room, error)
}

type catalogTeacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type catalogAssignmentReader interface {
	ListByTermAndClasses(ctx context.Context, termID string, classIDs []string) ([]models.TeacherAssignment, error)
}

type catalogPreferenceReader interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error)
}

type catalogInstitutionReader interface {
	Get(ctx context.Context) (*models.Institution, error)
}

// CatalogBuilder assembles an engine.Catalog from the relational catalog
// repositories, for a given term and set of cohorts.
type CatalogBuilder struct {
	institutions catalogInstitutionReader
	subjects     catalogSubjectReader
	classes      catalogClassReader
	rooms        catalogRoomReader
	teachers     catalogTeacherReader
	assignments  catalogAssignmentReader
	preferences  catalogPreferenceReader
	logger       *zap.Logger
}

// NewCatalogBuilder wires a CatalogBuilder.
func NewCatalogBuilder(
	institutions catalogInstitutionReader,
	subjects catalogSubjectReader,
	classes catalogClassReader,
	rooms catalogRoomReader,
	teachers catalogTeacherReader,
	assignments catalogAssignmentReader,
	preferences catalogPreferenceReader,
	logger *zap.Logger,
) *CatalogBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogBuilder{
		institutions: institutions,
		subjects:     subjects,
		classes:      classes,
		rooms:        rooms,
		teachers:     teachers,
		assignments:  assignments,
		preferences:  preferences,
		logger:       logger,
	}
}

// Build loads and compiles an engine.Catalog scoped to one term and one set of cohorts.
func (b *CatalogBuilder) Build(ctx context.Context, termID string, cohortIDs []string) (engine.Catalog, error) {
	inst, err := b.institutions.Get(ctx)
	if err != nil {
		return engine.Catalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution calendar")
	}
	engineInst, err := ToEngineInstitution(inst)
	if err != nil {
		return engine.Catalog{}, err
	}

	subjectRows, err := b.subjects.ListAll(ctx)
	if err != nil {
		return engine.Catalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	subjects := make([]engine.Subject, 0, len(subjectRows))
	for _, s := range subjectRows {
		var tags, equipment []string
		_ = json.Unmarshal(s.PreferredTimeTags, &tags)
		_ = json.Unmarshal(s.RequiredEquipment, &equipment)
		subjects = append(subjects, engine.Subject{
			ID:                s.ID,
			Code:              s.Code,
			Name:              s.Name,
			Kind:              engine.SubjectKind(s.Kind),
			Credits:           s.Credits,
			WeeklyPeriods:     s.WeeklyPeriods,
			SessionsPerWeek:   s.SessionsPerWeek,
			ContinuousPeriods: s.ContinuousPeriods,
			PreferredTimeTags: tags,
			RequiredEquipment: equipment,
		})
	}

	classRows, err := b.classes.ListByIDs(ctx, cohortIDs)
	if err != nil {
		return engine.Catalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohorts")
	}
	cohorts := make([]engine.Cohort, 0, len(classRows))
	for _, cl := range classRows {
		var mandatory, tags []string
		_ = json.Unmarshal(cl.MandatorySubjectIDs, &mandatory)
		_ = json.Unmarshal(cl.SpecialTags, &tags)
		cohorts = append(cohorts, engine.Cohort{
			ID:                  cl.ID,
			Name:                cl.Name,
			Department:          cl.Department,
			Year:                cl.Year,
			Section:             cl.Section,
			Size:                cl.Size,
			MandatorySubjectIDs: mandatory,
			MaxDailyPeriods:     cl.MaxDailyPeriods,
			SpecialTags:         tags,
		})
	}

	roomRows, err := b.rooms.ListActive(ctx)
	if err != nil {
		return engine.Catalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	rooms := make([]engine.Room, 0, len(roomRows))
	for _, r := range roomRows {
		var equipment []string
		_ = json.Unmarshal(r.Equipment, &equipment)
		rooms = append(rooms, engine.Room{
			ID:        r.ID,
			Name:      r.Name,
			Kind:      engine.RoomKind(r.Kind),
			Capacity:  r.Capacity,
			Equipment: equipment,
		})
	}

	teacherRows, err := b.teachers.ListActive(ctx)
	if err != nil {
		return engine.Catalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	assignments, err := b.assignments.ListByTermAndClasses(ctx, termID, cohortIDs)
	if err != nil {
		return engine.Catalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	eligibility := make(map[string]map[string]bool, len(teacherRows))
	for _, a := range assignments {
		if eligibility[a.TeacherID] == nil {
			eligibility[a.TeacherID] = make(map[string]bool)
		}
		eligibility[a.TeacherID][a.SubjectID] = true
	}

	instructors := make([]engine.Instructor, 0, len(teacherRows))
	for _, t := range teacherRows {
		eligible := eligibility[t.ID]
		if len(eligible) == 0 {
			continue
		}
		ins := engine.Instructor{
			ID:               t.ID,
			Name:             t.FullName,
			EligibleSubjects: eligible,
			MaxWeeklyPeriods: 30,
			MaxDailyPeriods:  6,
		}
		if pref, err := b.preferences.GetByTeacher(ctx, t.ID); err == nil && pref != nil {
			if pref.MaxLoadPerDay > 0 {
				ins.MaxDailyPeriods = pref.MaxLoadPerDay
			}
			if pref.MaxLoadPerWeek > 0 {
				ins.MaxWeeklyPeriods = pref.MaxLoadPerWeek
			}
			ins.AvoidBackToBack = pref.AvoidBackToBack
			ins.LeaveRate = pref.LeaveRate

			var days, tags, roomIDs []string
			_ = json.Unmarshal(pref.PreferredDays, &days)
			_ = json.Unmarshal(pref.PreferredTimeTags, &tags)
			_ = json.Unmarshal(pref.PreferredRoomIDs, &roomIDs)
			if len(days) > 0 {
				ins.PreferredDays = make(map[string]bool, len(days))
				for _, d := range days {
					ins.PreferredDays[d] = true
				}
			}
			ins.PreferredTimeTags = tags
			if len(roomIDs) > 0 {
				ins.PreferredRoomIDs = make(map[string]bool, len(roomIDs))
				for _, id := range roomIDs {
					ins.PreferredRoomIDs[id] = true
				}
			}
		}
		instructors = append(instructors, ins)
	}

	return engine.Catalog{
		Institution: engineInst,
		Subjects:    subjects,
		Instructors: instructors,
		Rooms:       rooms,
		Cohorts:     cohorts,
	}, nil
}
