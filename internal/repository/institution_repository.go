package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// InstitutionRepository persists the single shared institution calendar.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs the repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// Get returns the institution record; if several exist, the earliest created
// one is returned. It returns sql.ErrNoRows when none has been stored yet.
func (r *InstitutionRepository) Get(ctx context.Context) (*models.Institution, error) {
	const query = `SELECT id, name, working_days, period_timings, breaks, created_at, updated_at FROM institutions ORDER BY created_at ASC LIMIT 1`
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Upsert creates the institution record if none exists, otherwise updates it in place.
func (r *InstitutionRepository) Upsert(ctx context.Context, inst *models.Institution) error {
	now := time.Now().UTC()
	existing, err := r.Get(ctx)
	if err != nil {
		if inst.ID == "" {
			inst.ID = uuid.NewString()
		}
		inst.CreatedAt = now
		inst.UpdatedAt = now
		const insertQuery = `INSERT INTO institutions (id, name, working_days, period_timings, breaks, created_at, updated_at) VALUES (:id, :name, :working_days, :period_timings, :breaks, :created_at, :updated_at)`
		if _, err := r.db.NamedExecContext(ctx, insertQuery, inst); err != nil {
			return fmt.Errorf("create institution: %w", err)
		}
		return nil
	}

	inst.ID = existing.ID
	inst.CreatedAt = existing.CreatedAt
	inst.UpdatedAt = now
	const updateQuery = `UPDATE institutions SET name = :name, working_days = :working_days, period_timings = :period_timings, breaks = :breaks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, updateQuery, inst); err != nil {
		return fmt.Errorf("update institution: %w", err)
	}
	return nil
}
