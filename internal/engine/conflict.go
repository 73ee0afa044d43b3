package engine

import "fmt"

// CheckHardConstraints returns the hard-constraint violations a candidate
// entry would incur against an already-placed set, per spec §4.2. It is
// pure and allocation-cheap; it sits on the critical path of every
// placement attempt.
func CheckHardConstraints(entry Entry, existing []Entry) []Conflict {
	return checkAgainst(entry, existing, nil)
}

// checkAgainst is the internal form used by the scheduler, additionally
// aware of a compiled catalog so it can check room capacity without the
// caller pre-joining Room/Cohort data onto the Entry.
func checkAgainst(entry Entry, existing []Entry, cat *compiled) []Conflict {
	var conflicts []Conflict

	for _, other := range existing {
		if other.ID == entry.ID {
			continue
		}
		if other.Slot.Day != entry.Slot.Day || other.Slot.Period != entry.Slot.Period {
			continue
		}
		if other.InstructorID == entry.InstructorID {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictInstructorClash,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("instructor %s already teaching at %s period %d", entry.InstructorID, entry.Slot.Day, entry.Slot.Period),
				EntryIDs:    []string{entry.ID, other.ID},
				Suggestions: []string{"choose a different instructor", "choose a different slot"},
			})
		}
		if other.RoomID == entry.RoomID {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictRoomClash,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("room %s already occupied at %s period %d", entry.RoomID, entry.Slot.Day, entry.Slot.Period),
				EntryIDs:    []string{entry.ID, other.ID},
				Suggestions: []string{"choose a different room", "choose a different slot"},
			})
		}
		if other.CohortID == entry.CohortID {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictCohortClash,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("cohort %s already scheduled at %s period %d", entry.CohortID, entry.Slot.Day, entry.Slot.Period),
				EntryIDs:    []string{entry.ID, other.ID},
				Suggestions: []string{"choose a different slot"},
			})
		}
	}

	if cat != nil {
		room, hasRoom := cat.rooms[entry.RoomID]
		cohort, hasCohort := cat.cohorts[entry.CohortID]
		if hasRoom && hasCohort && room.Capacity < cohort.Size {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictCapacityShortfall,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("room %s capacity %d below cohort %s size %d", room.ID, room.Capacity, cohort.ID, cohort.Size),
				EntryIDs:    []string{entry.ID},
				Suggestions: []string{"choose a larger room"},
			})
		}
	}

	return conflicts
}

// hasClash reports whether placing entry would clash with existing on
// instructor, room, or cohort at the same slot — a cheaper check than the
// full CheckHardConstraints used internally during candidate scanning.
func hasClash(entry Entry, existing []Entry) bool {
	for _, other := range existing {
		if other.Slot.Day != entry.Slot.Day || other.Slot.Period != entry.Slot.Period {
			continue
		}
		if other.InstructorID == entry.InstructorID || other.RoomID == entry.RoomID || other.CohortID == entry.CohortID {
			return true
		}
	}
	return false
}
