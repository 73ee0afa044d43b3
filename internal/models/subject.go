package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SubjectKind classifies the teaching format of a subject.
type SubjectKind string

const (
	SubjectKindTheory   SubjectKind = "Theory"
	SubjectKindLab      SubjectKind = "Lab"
	SubjectKindTutorial SubjectKind = "Tutorial"
	SubjectKindSeminar  SubjectKind = "Seminar"
)

// Subject represents an academic subject.
type Subject struct {
	ID                string         `db:"id" json:"id"`
	Code              string         `db:"code" json:"code"`
	Name              string         `db:"name" json:"name"`
	Track             string         `db:"track" json:"track"`
	SubjectGroup      string         `db:"subject_group" json:"subject_group"`
	Kind              SubjectKind    `db:"kind" json:"kind"`
	Credits           int            `db:"credits" json:"credits"`
	WeeklyPeriods     int            `db:"weekly_periods" json:"weekly_periods"`
	SessionsPerWeek   int            `db:"sessions_per_week" json:"sessions_per_week"`
	ContinuousPeriods int            `db:"continuous_periods" json:"continuous_periods"`
	PreferredTimeTags types.JSONText `db:"preferred_time_tags" json:"preferred_time_tags"`
	RequiredEquipment types.JSONText `db:"required_equipment" json:"required_equipment"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Track     string
	Group     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
