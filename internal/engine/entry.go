package engine

// TimetableStatus is the lifecycle state of a generated Timetable.
// The engine only ever emits Draft; Draft → Approved → Published transitions
// happen outside the core.
type TimetableStatus string

const (
	StatusDraft     TimetableStatus = "Draft"
	StatusApproved  TimetableStatus = "Approved"
	StatusPublished TimetableStatus = "Published"
)

// Entry is a single committed (subject, instructor, room, cohort, slot)
// assignment. Multi-period sessions are represented as one Entry per period,
// all sharing SubjectID/InstructorID/RoomID/CohortID.
type Entry struct {
	ID           string
	SubjectID    string
	InstructorID string
	RoomID       string
	CohortID     string
	Slot         TimeSlot
}

// ConflictKind is a closed enumeration of hard-constraint violation kinds.
type ConflictKind string

const (
	ConflictInstructorClash   ConflictKind = "InstructorClash"
	ConflictRoomClash         ConflictKind = "RoomClash"
	ConflictCohortClash       ConflictKind = "CohortClash"
	ConflictCapacityShortfall ConflictKind = "CapacityShortfall"
	ConflictConstraintViolation ConflictKind = "ConstraintViolation"
)

// Severity is a closed enumeration of conflict severities.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Conflict describes one unavoidable hard-constraint violation.
type Conflict struct {
	Kind        ConflictKind
	Severity    Severity
	Message     string
	EntryIDs    []string
	Suggestions []string
}

// Timetable is the engine's output for one cohort generation.
type Timetable struct {
	ID          string
	GeneratedAt int64 // unix seconds, stamped by the caller; the engine leaves it zero
	Entries     []Entry
	Conflicts   []Conflict
	Score       int
	Status      TimetableStatus
	CohortIDs   []string
}

// CommittedRegistry is a read-only, externally supplied set of Timetables
// considered previously saved and protected. Entries from registry
// timetables whose cohort set does not intersect the cohort set being
// generated pre-occupy their instructor and room at their slot.
type CommittedRegistry struct {
	Timetables []Timetable
}

// committedOccupancy indexes a CommittedRegistry's instructor/room slot
// occupancy for a generation run targeting cohortIDs, excluding timetables
// whose cohort set intersects the ones being generated (spec §3/§4.3, Scenario
// D, and the boundary behavior "registry with only same-cohort timetables
// behaves like an empty registry").
type committedOccupancy struct {
	instructorAt map[instructorSlotKey]bool
	roomAt       map[roomSlotKey]bool
}

type instructorSlotKey struct {
	instructorID string
	day          string
	period       int
}

type roomSlotKey struct {
	roomID string
	day    string
	period int
}

func newCommittedOccupancy(reg CommittedRegistry, cohortIDs []string) *committedOccupancy {
	target := make(map[string]bool, len(cohortIDs))
	for _, id := range cohortIDs {
		target[id] = true
	}

	occ := &committedOccupancy{
		instructorAt: make(map[instructorSlotKey]bool),
		roomAt:       make(map[roomSlotKey]bool),
	}
	for _, tt := range reg.Timetables {
		if intersects(tt.CohortIDs, target) {
			continue
		}
		for _, e := range tt.Entries {
			occ.instructorAt[instructorSlotKey{e.InstructorID, e.Slot.Day, e.Slot.Period}] = true
			occ.roomAt[roomSlotKey{e.RoomID, e.Slot.Day, e.Slot.Period}] = true
		}
	}
	return occ
}

func intersects(cohortIDs []string, target map[string]bool) bool {
	for _, id := range cohortIDs {
		if target[id] {
			return true
		}
	}
	return false
}

func (o *committedOccupancy) blocksInstructor(instructorID string, slot TimeSlot) bool {
	return o.instructorAt[instructorSlotKey{instructorID, slot.Day, slot.Period}]
}

func (o *committedOccupancy) blocksRoom(roomID string, slot TimeSlot) bool {
	return o.roomAt[roomSlotKey{roomID, slot.Day, slot.Period}]
}
