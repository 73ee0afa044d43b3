package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Institution stores the single shared calendar the scheduler compiles into
// a time model: working days, the daily period grid, and break windows.
type Institution struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	WorkingDays   types.JSONText `db:"working_days" json:"working_days"`
	PeriodTimings types.JSONText `db:"period_timings" json:"period_timings"`
	Breaks        types.JSONText `db:"breaks" json:"breaks"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// InstitutionPeriodTiming is the JSON shape stored in PeriodTimings.
type InstitutionPeriodTiming struct {
	Number      int `json:"number"`
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// InstitutionBreak is the JSON shape stored in Breaks.
type InstitutionBreak struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}
