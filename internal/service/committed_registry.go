package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type committedClassLister interface {
	ListAllIDs(ctx context.Context) ([]string, error)
}

type committedScheduleLister interface {
	ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error)
}

type committedSlotLister interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

const committedRegistryCacheTTL = 5 * time.Minute

// CommittedRegistryBuilder assembles an engine.CommittedRegistry from the
// published semester schedules of cohorts outside the set being generated.
// The result is cached per term: a generation run reads every other cohort's
// published schedule, and those rarely change between runs in the same
// editing session.
type CommittedRegistryBuilder struct {
	classes   committedClassLister
	schedules committedScheduleLister
	slots     committedSlotLister
	cache     *CacheService
	logger    *zap.Logger
}

// NewCommittedRegistryBuilder wires a CommittedRegistryBuilder. cache may be nil,
// in which case every Build call recomputes the registry from the repositories.
func NewCommittedRegistryBuilder(classes committedClassLister, schedules committedScheduleLister, slots committedSlotLister, cache *CacheService, logger *zap.Logger) *CommittedRegistryBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommittedRegistryBuilder{classes: classes, schedules: schedules, slots: slots, cache: cache, logger: logger}
}

func committedRegistryCacheKey(termID string) string {
	return fmt.Sprintf("committed-registry:%s", termID)
}

// Invalidate drops the cached registry for a term, called after a proposal
// is published so the next generation run sees the newly committed slots.
func (b *CommittedRegistryBuilder) Invalidate(ctx context.Context, termID string) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Invalidate(ctx, committedRegistryCacheKey(termID)); err != nil {
		b.logger.Warn("failed to invalidate committed registry cache", zap.String("termId", termID), zap.Error(err))
	}
}

// Build loads the latest published schedule of every cohort not in
// generatingCohortIDs and turns it into a CommittedRegistry entry, so the
// engine can protect instructor/room slots already promised elsewhere.
func (b *CommittedRegistryBuilder) Build(ctx context.Context, termID string, generatingCohortIDs []string) (engine.CommittedRegistry, error) {
	generating := make(map[string]bool, len(generatingCohortIDs))
	for _, id := range generatingCohortIDs {
		generating[id] = true
	}

	all, err := b.loadPublished(ctx, termID)
	if err != nil {
		return engine.CommittedRegistry{}, err
	}

	var registry engine.CommittedRegistry
	for _, tt := range all.Timetables {
		if len(tt.CohortIDs) > 0 && generating[tt.CohortIDs[0]] {
			continue
		}
		registry.Timetables = append(registry.Timetables, tt)
	}
	return registry, nil
}

// loadPublished returns every cohort's published schedule for the term,
// unfiltered, reading through the cache when one is configured.
func (b *CommittedRegistryBuilder) loadPublished(ctx context.Context, termID string) (engine.CommittedRegistry, error) {
	cacheKey := committedRegistryCacheKey(termID)
	if b.cache.Enabled() {
		var cached engine.CommittedRegistry
		var raw string
		if hit, err := b.cache.Get(ctx, cacheKey, &raw); err == nil && hit {
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	allIDs, err := b.classes.ListAllIDs(ctx)
	if err != nil {
		return engine.CommittedRegistry{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohorts for committed registry")
	}

	var registry engine.CommittedRegistry
	for _, classID := range allIDs {
		versions, err := b.schedules.ListByTermClass(ctx, termID, classID)
		if err != nil {
			return engine.CommittedRegistry{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
		}
		var published *models.SemesterSchedule
		for i := range versions {
			if versions[i].Status == models.SemesterScheduleStatusPublished {
				published = &versions[i]
				break
			}
		}
		if published == nil {
			continue
		}

		slots, err := b.slots.ListBySchedule(ctx, published.ID)
		if err != nil {
			return engine.CommittedRegistry{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedule slots")
		}
		if len(slots) == 0 {
			continue
		}

		entries := make([]engine.Entry, 0, len(slots))
		for _, slot := range slots {
			roomID := ""
			if slot.RoomID != nil {
				roomID = *slot.RoomID
			}
			entries = append(entries, engine.Entry{
				ID:           slot.ID,
				SubjectID:    slot.SubjectID,
				InstructorID: slot.TeacherID,
				RoomID:       roomID,
				CohortID:     classID,
				Slot: engine.TimeSlot{
					Day:    weekdayName(slot.DayOfWeek),
					Period: slot.TimeSlot,
				},
			})
		}
		registry.Timetables = append(registry.Timetables, engine.Timetable{
			ID:        published.ID,
			Entries:   entries,
			Status:    engine.StatusPublished,
			CohortIDs: []string{classID},
		})
	}

	if b.cache.Enabled() {
		if raw, err := json.Marshal(registry); err == nil {
			if err := b.cache.Set(ctx, cacheKey, string(raw), committedRegistryCacheTTL); err != nil {
				b.logger.Warn("failed to cache committed registry", zap.String("termId", termID), zap.Error(err))
			}
		}
	}
	return registry, nil
}
