package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RoomKind distinguishes rooms that can host lab sessions from standard
// classrooms and shared spaces.
type RoomKind string

const (
	RoomKindClassroom RoomKind = "CLASSROOM"
	RoomKindLab       RoomKind = "LAB"
	RoomKindShared    RoomKind = "SHARED"
)

// Room represents a physical space the scheduler can assign a session to.
type Room struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Kind        RoomKind       `db:"kind" json:"kind"`
	Capacity    int            `db:"capacity" json:"capacity"`
	Equipment   types.JSONText `db:"equipment" json:"equipment"`
	HomeClassID *string        `db:"home_class_id" json:"home_class_id,omitempty"`
	Active      bool           `db:"active" json:"active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// RoomFilter narrows down room listings.
type RoomFilter struct {
	Kind      RoomKind
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
