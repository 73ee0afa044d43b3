package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
)

func TestScheduleGeneratorServiceGenerateSuccess(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, "class-1", resp.Cohort.ClassID)
	assert.NotEmpty(t, resp.Cohort.Entries)
}

func TestScheduleGeneratorServiceGenerateMultiUsesCommittedRegistry(t *testing.T) {
	registry := &committedRegistryStub{}
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{registry: registry})

	resp, err := service.GenerateMulti(context.Background(), dto.GenerateMultiScheduleRequest{
		TermID:   "term-1",
		ClassIDs: []string{"class-1", "class-2"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Cohorts, 2)
	assert.True(t, registry.built)
}

func TestScheduleGeneratorServiceGenerateUnknownTerm(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{terms: missingTermStub{}})

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "ghost-term",
		ClassID: "class-1",
	})
	require.Error(t, err)
}

func TestScheduleGeneratorServiceSaveDraft(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{tx: txProvider})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	save, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.NotEmpty(t, save.ScheduleIDs["class-1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceSaveUnknownProposal(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{})

	_, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: "does-not-exist"})
	require.Error(t, err)
}

func TestScheduleGeneratorServiceSavePublishInvalidatesRegistry(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	registry := &committedRegistryStub{}
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{tx: txProvider, registry: registry})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err = service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID, CommitToDaily: true})
	require.NoError(t, err)
	assert.True(t, registry.invalidated)
}

func TestScheduleGeneratorServiceRecordsMetrics(t *testing.T) {
	recorder := &schedulerMetricsRecorderStub{}
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{})
	service.SetMetrics(recorder)

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.accepted)
}

func TestScheduleGeneratorServiceDeleteRejectsPublished(t *testing.T) {
	semesters := &semesterScheduleRepoStub{items: []models.SemesterSchedule{
		{ID: "sched-1", Status: models.SemesterScheduleStatusPublished},
	}}
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{semesters: semesters})

	err := service.Delete(context.Background(), "sched-1")
	require.Error(t, err)
}

// --- Fixtures ---

type schedulerFixtureConfig struct {
	tx        txProvider
	registry  registryAssembler
	terms     schedulerTermReader
	semesters *semesterScheduleRepoStub
}

func newSchedulerServiceFixture(t *testing.T, cfg schedulerFixtureConfig) *ScheduleGeneratorService {
	t.Helper()

	terms := cfg.terms
	if terms == nil {
		terms = termLookupStub{}
	}
	classes := classLookupStub{}
	catalogs := catalogAssemblerStub{}
	registry := cfg.registry
	if registry == nil {
		registry = &committedRegistryStub{}
	}
	semesters := cfg.semesters
	if semesters == nil {
		semesters = &semesterScheduleRepoStub{}
	}
	slots := &semesterScheduleSlotRepoStub{}
	tx := cfg.tx
	if tx == nil {
		tx = noopTxProvider{}
	}

	return NewScheduleGeneratorService(
		terms,
		classes,
		catalogs,
		registry,
		semesters,
		slots,
		tx,
		validator.New(),
		zap.NewNop(),
		ScheduleGeneratorConfig{ProposalTTL: time.Hour},
	)
}

func testCatalog() engine.Catalog {
	return engine.Catalog{
		Institution: engine.Institution{
			WorkingDays: []string{"Monday", "Tuesday"},
			Periods: []engine.PeriodTiming{
				{Number: 1, StartMinute: 480, EndMinute: 525},
				{Number: 2, StartMinute: 525, EndMinute: 570},
				{Number: 3, StartMinute: 570, EndMinute: 615},
			},
		},
		Subjects: []engine.Subject{
			{ID: "math", Name: "Mathematics", Kind: engine.SubjectTheory, WeeklyPeriods: 2, SessionsPerWeek: 2, ContinuousPeriods: 1},
			{ID: "science", Name: "Science", Kind: engine.SubjectTheory, WeeklyPeriods: 2, SessionsPerWeek: 2, ContinuousPeriods: 1},
		},
		Instructors: []engine.Instructor{
			{ID: "teacher-1", Name: "Teacher One", EligibleSubjects: map[string]bool{"math": true}, MaxWeeklyPeriods: 20, MaxDailyPeriods: 6},
			{ID: "teacher-2", Name: "Teacher Two", EligibleSubjects: map[string]bool{"science": true}, MaxWeeklyPeriods: 20, MaxDailyPeriods: 6},
		},
		Rooms: []engine.Room{
			{ID: "room-1", Name: "Room One", Kind: engine.RoomClassroom, Capacity: 40},
		},
		Cohorts: []engine.Cohort{
			{ID: "class-1", Name: "Class One", Size: 30, MaxDailyPeriods: 6},
			{ID: "class-2", Name: "Class Two", Size: 30, MaxDailyPeriods: 6},
		},
	}
}

type catalogAssemblerStub struct{}

func (catalogAssemblerStub) Build(ctx context.Context, termID string, cohortIDs []string) (engine.Catalog, error) {
	return testCatalog(), nil
}

type committedRegistryStub struct {
	built       bool
	invalidated bool
}

func (s *committedRegistryStub) Build(ctx context.Context, termID string, generatingCohortIDs []string) (engine.CommittedRegistry, error) {
	s.built = true
	return engine.CommittedRegistry{}, nil
}

func (s *committedRegistryStub) Invalidate(ctx context.Context, termID string) {
	s.invalidated = true
}

type schedulerMetricsRecorderStub struct {
	accepted int
	failed   int
}

func (s *schedulerMetricsRecorderStub) ObserveSchedulerRun(outcome string, score *int) {
	switch outcome {
	case "accepted":
		s.accepted++
	case "failed":
		s.failed++
	}
}

type termLookupStub struct{}

func (termLookupStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	return &models.Term{ID: id}, nil
}

type missingTermStub struct{}

func (missingTermStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	return nil, sql.ErrNoRows
}

type classLookupStub struct{}

func (classLookupStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	return &models.Class{ID: id}, nil
}

type semesterScheduleRepoStub struct {
	items []models.SemesterSchedule
}

func (s *semesterScheduleRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error {
	schedule.ID = uuidString(len(s.items) + 1)
	schedule.Version = len(s.items) + 1
	s.items = append(s.items, *schedule)
	return nil
}

func (s *semesterScheduleRepoStub) ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error) {
	return s.items, nil
}

func (s *semesterScheduleRepoStub) FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error) {
	for _, item := range s.items {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *semesterScheduleRepoStub) Delete(ctx context.Context, id string) error {
	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *semesterScheduleRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error {
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

type semesterScheduleSlotRepoStub struct {
	items map[string][]models.SemesterScheduleSlot
}

func (s *semesterScheduleSlotRepoStub) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error {
	if s.items == nil {
		s.items = make(map[string][]models.SemesterScheduleSlot)
	}
	for _, slot := range slots {
		s.items[slot.SemesterScheduleID] = append(s.items[slot.SemesterScheduleID], slot)
	}
	return nil
}

func (s *semesterScheduleSlotRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return s.items[scheduleID], nil
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, sql.ErrTxDone
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return &txProviderMock{db: sqlxdb}, mock
}

type txProviderMock struct {
	db *sqlx.DB
}

func (m *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

func uuidString(n int) string {
	return "00000000-0000-0000-0000-" + padInt(n)
}

func padInt(n int) string {
	const digits = "0123456789"
	s := make([]byte, 12)
	for i := range s {
		s[i] = '0'
	}
	i := len(s) - 1
	for n > 0 && i >= 0 {
		s[i] = digits[n%10]
		n /= 10
		i--
	}
	return string(s)
}
