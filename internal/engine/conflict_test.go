package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func slotAt(day string, period int) TimeSlot {
	return TimeSlot{Day: day, Period: period}
}

// CheckHardConstraints / checkAgainst: invariants 1-4 of spec §8.

func TestCheckHardConstraintsInstructorClash(t *testing.T) {
	existing := []Entry{{ID: "e1", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}}
	candidate := Entry{ID: "e2", InstructorID: "i1", RoomID: "r2", CohortID: "c2", Slot: slotAt("Monday", 1)}

	conflicts := CheckHardConstraints(candidate, existing)
	assertHasConflictKind(t, conflicts, ConflictInstructorClash)
}

func TestCheckHardConstraintsRoomClash(t *testing.T) {
	existing := []Entry{{ID: "e1", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}}
	candidate := Entry{ID: "e2", InstructorID: "i2", RoomID: "r1", CohortID: "c2", Slot: slotAt("Monday", 1)}

	conflicts := CheckHardConstraints(candidate, existing)
	assertHasConflictKind(t, conflicts, ConflictRoomClash)
}

func TestCheckHardConstraintsCohortClash(t *testing.T) {
	existing := []Entry{{ID: "e1", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}}
	candidate := Entry{ID: "e2", InstructorID: "i2", RoomID: "r2", CohortID: "c1", Slot: slotAt("Monday", 1)}

	conflicts := CheckHardConstraints(candidate, existing)
	assertHasConflictKind(t, conflicts, ConflictCohortClash)
}

func TestCheckHardConstraintsNoClashAtDifferentSlot(t *testing.T) {
	existing := []Entry{{ID: "e1", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}}
	candidate := Entry{ID: "e2", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 2)}

	conflicts := CheckHardConstraints(candidate, existing)
	assert.Empty(t, conflicts)
}

func TestCheckHardConstraintsIgnoresSelf(t *testing.T) {
	existing := []Entry{{ID: "e1", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}}
	conflicts := CheckHardConstraints(existing[0], existing)
	assert.Empty(t, conflicts)
}

func TestCheckAgainstCapacityShortfall(t *testing.T) {
	cat := baseCatalog()
	cat.Rooms[0].Capacity = 10 // cohort c1 has Size 40
	c, err := validateAndCompile(cat)
	if err != nil {
		t.Fatal(err)
	}
	candidate := Entry{ID: "e1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}
	conflicts := checkAgainst(candidate, nil, c)
	assertHasConflictKind(t, conflicts, ConflictCapacityShortfall)
}

func TestHasClashMirrorsCheckHardConstraints(t *testing.T) {
	existing := []Entry{{ID: "e1", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}}
	clash := Entry{ID: "e2", InstructorID: "i1", RoomID: "r2", CohortID: "c2", Slot: slotAt("Monday", 1)}
	clean := Entry{ID: "e3", InstructorID: "i2", RoomID: "r2", CohortID: "c2", Slot: slotAt("Monday", 1)}

	assert.True(t, hasClash(clash, existing))
	assert.False(t, hasClash(clean, existing))
}

// Idempotence of check law (spec §8): the result set does not depend on the
// order of the existing entries passed in.
func TestCheckHardConstraintsIdempotentToOrder(t *testing.T) {
	e1 := Entry{ID: "e1", InstructorID: "i1", RoomID: "r1", CohortID: "c1", Slot: slotAt("Monday", 1)}
	e2 := Entry{ID: "e2", InstructorID: "i2", RoomID: "r1", CohortID: "c2", Slot: slotAt("Monday", 1)}
	candidate := Entry{ID: "e3", InstructorID: "i3", RoomID: "r1", CohortID: "c3", Slot: slotAt("Monday", 1)}

	kindsOf := func(entries []Entry) map[ConflictKind]bool {
		out := map[ConflictKind]bool{}
		for _, c := range CheckHardConstraints(candidate, entries) {
			out[c.Kind] = true
		}
		return out
	}

	assert.Equal(t, kindsOf([]Entry{e1, e2}), kindsOf([]Entry{e2, e1}))
}

func assertHasConflictKind(t *testing.T, conflicts []Conflict, kind ConflictKind) {
	t.Helper()
	for _, c := range conflicts {
		if c.Kind == kind {
			return
		}
	}
	t.Fatalf("expected a %s conflict, got %+v", kind, conflicts)
}
