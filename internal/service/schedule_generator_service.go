package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type semesterScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error
	ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error
}

type semesterScheduleSlotRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type schedulerClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// catalogAssembler compiles the engine's Catalog input for one term/cohort set.
type catalogAssembler interface {
	Build(ctx context.Context, termID string, cohortIDs []string) (engine.Catalog, error)
}

// registryAssembler compiles the CommittedRegistry guarding cohorts outside a run.
type registryAssembler interface {
	Build(ctx context.Context, termID string, generatingCohortIDs []string) (engine.CommittedRegistry, error)
	Invalidate(ctx context.Context, termID string)
}

// schedulerMetricsRecorder receives outcome/score samples for each run.
type schedulerMetricsRecorder interface {
	ObserveSchedulerRun(outcome string, score *int)
}

// ScheduleGeneratorService runs the constraint engine against a term's catalog
// and persists its proposals as versioned semester schedules.
type ScheduleGeneratorService struct {
	terms     schedulerTermReader
	classes   schedulerClassReader
	catalogs  catalogAssembler
	registry  registryAssembler
	semesters semesterScheduleRepository
	slots     semesterScheduleSlotRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	store     *proposalStore
	cfg       ScheduleGeneratorConfig
	metrics   schedulerMetricsRecorder
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL          time.Duration
	MaxAttempts          int
	DefaultPeriodsPerDay int
	MinAcceptableRatio   float64
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	classes schedulerClassReader,
	catalogs catalogAssembler,
	registry registryAssembler,
	semesters semesterScheduleRepository,
	slots semesterScheduleSlotRepository,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.MinAcceptableRatio <= 0 {
		cfg.MinAcceptableRatio = 0.85
	}
	return &ScheduleGeneratorService{
		terms:     terms,
		classes:   classes,
		catalogs:  catalogs,
		registry:  registry,
		semesters: semesters,
		slots:     slots,
		tx:        tx,
		validator: validate,
		logger:    logger,
		store:     newProposalStore(cfg.ProposalTTL),
		cfg:       cfg,
	}
}

// SetMetrics wires the Prometheus recorder. Optional — a nil recorder is a no-op.
func (s *ScheduleGeneratorService) SetMetrics(metrics schedulerMetricsRecorder) {
	s.metrics = metrics
}

// Generate produces a single-cohort proposal. It delegates to GenerateMulti
// with a one-element cohort set so the persistence and caching path is shared.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	multi, err := s.GenerateMulti(ctx, dto.GenerateMultiScheduleRequest{
		TermID:   req.TermID,
		ClassIDs: []string{req.ClassID},
		Seed:     req.Seed,
	})
	if err != nil {
		return nil, err
	}
	return &dto.GenerateScheduleResponse{
		ProposalID: multi.ProposalID,
		TermID:     multi.TermID,
		Cohort:     multi.Cohorts[0],
		Attempts:   multi.Attempts,
	}, nil
}

// GenerateMulti runs the engine across a coordinated cohort set, protecting
// slots already promised to cohorts outside the set via the committed registry.
// A one-cohort request runs the single-cohort engine entry point, which does
// not consult the committed registry.
func (s *ScheduleGeneratorService) GenerateMulti(ctx context.Context, req dto.GenerateMultiScheduleRequest) (*dto.GenerateMultiScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	if err := s.ensureTermExists(ctx, req.TermID); err != nil {
		return nil, err
	}
	for _, classID := range req.ClassIDs {
		if err := s.ensureClassExists(ctx, classID); err != nil {
			return nil, err
		}
	}

	cat, err := s.catalogs.Build(ctx, req.TermID, req.ClassIDs)
	if err != nil {
		return nil, err
	}

	settings := engine.OptimizationSettings{MaxIterations: 0}
	if req.Seed != nil {
		settings.Seed = *req.Seed
	}

	var timetables []*engine.Timetable
	attempts := 1
	if len(req.ClassIDs) == 1 {
		tt, genErr := engine.GenerateSingleCohort(cat, req.ClassIDs[0], settings)
		if genErr != nil {
			s.recordOutcome("failed", nil)
			return nil, appErrors.Wrap(genErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule generation failed")
		}
		timetables = []*engine.Timetable{tt}
	} else {
		reg, regErr := s.registry.Build(ctx, req.TermID, req.ClassIDs)
		if regErr != nil {
			return nil, regErr
		}
		timetables, err = engine.GenerateMultiCohort(cat, req.ClassIDs, settings, reg)
		if err != nil {
			s.recordOutcome("failed", nil)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule generation failed")
		}
		attempts = s.cfg.MaxAttempts
	}

	proposalID := uuid.NewString()
	byCohort := make(map[string]*engine.Timetable, len(timetables))
	cohorts := make([]dto.CohortScheduleProposal, 0, len(timetables))
	for _, tt := range timetables {
		cohortID := req.ClassIDs[0]
		if len(tt.CohortIDs) > 0 {
			cohortID = tt.CohortIDs[0]
		}
		byCohort[cohortID] = tt
		cohorts = append(cohorts, toCohortProposal(cohortID, tt))
		score := tt.Score
		s.recordOutcome("accepted", &score)
	}

	s.store.Save(scheduleProposal{
		ProposalID:  proposalID,
		TermID:      req.TermID,
		Cohorts:     byCohort,
		RequestedAt: time.Now().UTC(),
	})

	return &dto.GenerateMultiScheduleResponse{
		ProposalID: proposalID,
		TermID:     req.TermID,
		Cohorts:    cohorts,
		Attempts:   attempts,
	}, nil
}

// Save persists every cohort of a cached proposal as a new semester schedule
// version, all inside one transaction. CommitToDaily publishes the versions
// immediately so later generation runs treat them as committed for other cohorts.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (*dto.SaveScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	for cohortID, tt := range proposal.Cohorts {
		if len(tt.Conflicts) > 0 {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cohort %s proposal contains unresolved conflicts", cohortID))
		}
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	status := models.SemesterScheduleStatusDraft
	if req.CommitToDaily {
		status = models.SemesterScheduleStatusPublished
	}

	ids := make(map[string]string, len(proposal.Cohorts))
	for cohortID, tt := range proposal.Cohorts {
		var metaBytes []byte
		metaBytes, err = json.Marshal(map[string]any{
			"score":     tt.Score,
			"generated": proposal.RequestedAt,
			"algorithm": "constraint_engine_v1",
		})
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
			return nil, err
		}

		record := &models.SemesterSchedule{
			TermID:  proposal.TermID,
			ClassID: cohortID,
			Status:  status,
			Meta:    types.JSONText(metaBytes),
		}
		if err = s.semesters.CreateVersioned(ctx, tx, record); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester schedule")
			return nil, err
		}

		slotModels := make([]models.SemesterScheduleSlot, 0, len(tt.Entries))
		for _, entry := range tt.Entries {
			roomID := entry.RoomID
			slotModels = append(slotModels, models.SemesterScheduleSlot{
				SemesterScheduleID: record.ID,
				DayOfWeek:          weekdayIndex(entry.Slot.Day),
				TimeSlot:           entry.Slot.Period,
				SubjectID:          entry.SubjectID,
				TeacherID:          entry.InstructorID,
				RoomID:             &roomID,
				EntryID:            entry.ID,
			})
		}
		if err = s.slots.UpsertBatch(ctx, tx, slotModels); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist semester schedule slots")
			return nil, err
		}
		ids[cohortID] = record.ID
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return nil, err
	}

	s.store.Delete(req.ProposalID)
	if req.CommitToDaily {
		s.registry.Invalidate(ctx, proposal.TermID)
	}
	return &dto.SaveScheduleResponse{ScheduleIDs: ids}, nil
}

// List returns semester schedules for a class-term tuple.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	if query.TermID == "" || query.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId and classId are required")
	}
	list, err := s.semesters.ListByTermClass(ctx, query.TermID, query.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
	}
	return list, nil
}

// GetSlots returns slot detail for a stored schedule.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if _, err := s.semesters.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedule slots")
	}
	return slots, nil
}

// Delete removes a draft schedule version.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	record, err := s.semesters.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	if record.Status != models.SemesterScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft schedules can be deleted")
	}
	if err := s.semesters.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester schedule")
	}
	return nil
}

func (s *ScheduleGeneratorService) ensureTermExists(ctx context.Context, termID string) error {
	if s.terms == nil {
		return nil
	}
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return nil
}

func (s *ScheduleGeneratorService) ensureClassExists(ctx context.Context, classID string) error {
	if s.classes == nil {
		return nil
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", classID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

func (s *ScheduleGeneratorService) recordOutcome(outcome string, score *int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSchedulerRun(outcome, score)
}

func toCohortProposal(cohortID string, tt *engine.Timetable) dto.CohortScheduleProposal {
	entries := make([]dto.ScheduleEntryProposal, 0, len(tt.Entries))
	for _, e := range tt.Entries {
		entries = append(entries, dto.ScheduleEntryProposal{
			EntryID:      e.ID,
			Day:          e.Slot.Day,
			Period:       e.Slot.Period,
			SubjectID:    e.SubjectID,
			InstructorID: e.InstructorID,
			RoomID:       e.RoomID,
		})
	}
	conflicts := make([]dto.ProposalConflictEntry, 0, len(tt.Conflicts))
	for _, c := range tt.Conflicts {
		conflicts = append(conflicts, dto.ProposalConflictEntry{
			Kind:        string(c.Kind),
			Severity:    string(c.Severity),
			Message:     c.Message,
			EntryIDs:    c.EntryIDs,
			Suggestions: c.Suggestions,
		})
	}
	return dto.CohortScheduleProposal{
		ClassID:   cohortID,
		Score:     tt.Score,
		Entries:   entries,
		Conflicts: conflicts,
	}
}

// --- Proposal cache ---

type scheduleProposal struct {
	ProposalID  string
	TermID      string
	Cohorts     map[string]*engine.Timetable
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
