package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TeacherUnavailableSlot describes a blocked teaching window.
type TeacherUnavailableSlot struct {
	DayOfWeek string `json:"day_of_week"`
	TimeRange string `json:"time_range"`
}

// TeacherPreference stores capacity and availability rules for a teacher.
type TeacherPreference struct {
	ID                string         `db:"id" json:"id"`
	TeacherID         string         `db:"teacher_id" json:"teacher_id"`
	MaxLoadPerDay     int            `db:"max_load_per_day" json:"max_load_per_day"`
	MaxLoadPerWeek    int            `db:"max_load_per_week" json:"max_load_per_week"`
	Unavailable       types.JSONText `db:"unavailable" json:"unavailable"`
	PreferredDays     types.JSONText `db:"preferred_days" json:"preferred_days"`
	PreferredTimeTags types.JSONText `db:"preferred_time_tags" json:"preferred_time_tags"`
	AvoidBackToBack   bool           `db:"avoid_back_to_back" json:"avoid_back_to_back"`
	LeaveRate         float64        `db:"leave_rate" json:"leave_rate"`
	PreferredRoomIDs  types.JSONText `db:"preferred_room_ids" json:"preferred_room_ids"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}
