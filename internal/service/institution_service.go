package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type institutionRepository interface {
	Get(ctx context.Context) (*models.Institution, error)
	Upsert(ctx context.Context, inst *models.Institution) error
}

// UpsertInstitutionRequest replaces the calendar the scheduler compiles against.
type UpsertInstitutionRequest struct {
	Name        string                           `json:"name" validate:"required"`
	WorkingDays []string                         `json:"working_days" validate:"required,min=1"`
	Periods     []models.InstitutionPeriodTiming `json:"periods" validate:"required,min=1"`
	Breaks      []models.InstitutionBreak        `json:"breaks"`
}

// InstitutionService manages the single shared calendar configuration.
type InstitutionService struct {
	repo      institutionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstitutionService constructs InstitutionService.
func NewInstitutionService(repo institutionRepository, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{repo: repo, validator: validate, logger: logger}
}

// Get returns the institution calendar record.
func (s *InstitutionService) Get(ctx context.Context) (*models.Institution, error) {
	inst, err := s.repo.Get(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution calendar not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return inst, nil
}

// Upsert replaces the calendar configuration.
func (s *InstitutionService) Upsert(ctx context.Context, req UpsertInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}

	workingDays, err := json.Marshal(req.WorkingDays)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode working days")
	}
	periods, err := json.Marshal(req.Periods)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode period timings")
	}
	breaks := req.Breaks
	if breaks == nil {
		breaks = []models.InstitutionBreak{}
	}
	breaksJSON, err := json.Marshal(breaks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode breaks")
	}

	inst := &models.Institution{
		Name:          req.Name,
		WorkingDays:   workingDays,
		PeriodTimings: periods,
		Breaks:        breaksJSON,
	}
	if err := s.repo.Upsert(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save institution")
	}
	return inst, nil
}

// ToEngineInstitution decodes a stored record into the engine's time-model input.
func ToEngineInstitution(inst *models.Institution) (engine.Institution, error) {
	var workingDays []string
	if err := json.Unmarshal(inst.WorkingDays, &workingDays); err != nil {
		return engine.Institution{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode working days")
	}
	var periods []models.InstitutionPeriodTiming
	if err := json.Unmarshal(inst.PeriodTimings, &periods); err != nil {
		return engine.Institution{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode period timings")
	}
	var breaks []models.InstitutionBreak
	if len(inst.Breaks) > 0 {
		if err := json.Unmarshal(inst.Breaks, &breaks); err != nil {
			return engine.Institution{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode breaks")
		}
	}

	out := engine.Institution{WorkingDays: workingDays}
	for _, p := range periods {
		out.Periods = append(out.Periods, engine.PeriodTiming{Number: p.Number, StartMinute: p.StartMinute, EndMinute: p.EndMinute})
	}
	for _, b := range breaks {
		out.Breaks = append(out.Breaks, engine.Break{StartMinute: b.StartMinute, EndMinute: b.EndMinute})
	}
	return out, nil
}
