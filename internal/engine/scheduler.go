package engine

import (
	"fmt"
	"strings"
)

// effectiveDailyBound applies the relaxation floor from spec §4.3.6: the
// effective instructor daily bound is never tighter than 6 periods.
func effectiveDailyBound(configured int) int {
	if configured < 6 {
		return 6
	}
	return configured
}

// effectiveWeeklyBound applies the relaxation floor from spec §4.3.6: the
// effective instructor weekly bound is never tighter than 30 periods.
func effectiveWeeklyBound(configured int) int {
	if configured < 30 {
		return 30
	}
	return configured
}

// attempt holds the mutable state of a single placement pass. One attempt
// places entries for every cohort in the run, so that instructor/room
// clashes are caught across cohorts as well as within one.
type attempt struct {
	cat      *compiled
	rng      *lcg
	occ      *committedOccupancy // nil outside multi-cohort mode
	settings OptimizationSettings
	avoided  map[DayPeriod]bool

	entries         []Entry
	rescheduleQueue []Entry
	conflicts       []Conflict
	entrySeq        int

	instructorDaily  map[string]map[string]int // instructorID -> day -> periods used
	instructorWeekly map[string]int

	// per (cohort, subject): days already holding a session of that subject.
	cohortSubjectDays map[string]map[string]bool
	// per (cohort, subject): period numbers already used by that subject,
	// across any day (the "never twice at the same period number" rule).
	cohortSubjectPeriods map[string]map[int]bool
	// per (cohort, day): number of Lab blocks already placed that day.
	cohortDayLabCount map[string]map[string]int
	// per (cohort, subject, day): Theory session periods placed that day,
	// used for the continuous_periods==1 ±1 adjacency-forbid rule.
	cohortSubjectDayPeriods map[string]map[string][]int

	labPreferredStart map[string]int
	labCounter        int
}

func newAttempt(cat *compiled, settings OptimizationSettings, occ *committedOccupancy, seed int64) *attempt {
	return &attempt{
		cat:                     cat,
		rng:                     newLCG(seed),
		occ:                     occ,
		settings:                settings,
		avoided:                 avoidedSet(settings.AvoidedPatterns),
		instructorDaily:         make(map[string]map[string]int),
		instructorWeekly:        make(map[string]int),
		cohortSubjectDays:       make(map[string]map[string]bool),
		cohortSubjectPeriods:    make(map[string]map[int]bool),
		cohortDayLabCount:       make(map[string]map[string]int),
		cohortSubjectDayPeriods: make(map[string]map[string][]int),
		labPreferredStart:       make(map[string]int),
	}
}

func cohortSubjectKey(cohortID, subjectID string) string { return cohortID + "\x00" + subjectID }

func (a *attempt) nextEntryID() string {
	a.entrySeq++
	return fmt.Sprintf("e%d", a.entrySeq)
}

// shuffledDays returns the institution's working days permuted by the run's
// generator.
func (a *attempt) shuffledDays() []string {
	days := a.cat.timeModel.WorkingDays()
	order := a.rng.shuffle(len(days))
	out := make([]string, len(days))
	for i, idx := range order {
		out[i] = days[idx]
	}
	return out
}

// shuffledInstructors returns eligible-for-subject instructor ids permuted
// by the run's generator.
func (a *attempt) shuffledInstructors(subjectID string) []string {
	var eligible []string
	for _, id := range a.cat.instrIDs {
		if a.cat.instructors[id].CanTeach(subjectID) {
			eligible = append(eligible, id)
		}
	}
	order := a.rng.shuffle(len(eligible))
	out := make([]string, len(eligible))
	for i, idx := range order {
		out[i] = eligible[idx]
	}
	return out
}

// shuffledRooms returns room ids permuted by the run's generator.
func (a *attempt) shuffledRooms() []string {
	order := a.rng.shuffle(len(a.cat.roomIDs))
	out := make([]string, len(a.cat.roomIDs))
	for i, idx := range order {
		out[i] = a.cat.roomIDs[idx]
	}
	return out
}

// orderSubjects implements spec §4.3.2's subject prioritization: Labs
// first, then non-Labs with continuous_periods > 1, then the rest; ties
// within each bucket broken by the seeded shuffle.
func (a *attempt) orderSubjects(subjects []Subject) []Subject {
	rank := func(s Subject) int {
		switch {
		case s.IsLab():
			return 0
		case s.ContinuousPeriods > 1:
			return 1
		default:
			return 2
		}
	}
	buckets := map[int][]Subject{}
	for _, s := range subjects {
		r := rank(s)
		buckets[r] = append(buckets[r], s)
	}
	var out []Subject
	for r := 0; r <= 2; r++ {
		b := buckets[r]
		order := a.rng.shuffle(len(b))
		for _, idx := range order {
			out = append(out, b[idx])
		}
	}
	return out
}

// canAffordInstructor reports whether placing `periods` more periods for
// instructor on `day` stays within the relaxed daily/weekly bounds.
func (a *attempt) canAffordInstructor(instructorID, day string, periods int, ins Instructor) bool {
	dailyBound := effectiveDailyBound(ins.MaxDailyPeriods)
	weeklyBound := effectiveWeeklyBound(ins.MaxWeeklyPeriods)
	dayUsed := a.instructorDaily[instructorID][day]
	weekUsed := a.instructorWeekly[instructorID]
	return dayUsed+periods <= dailyBound && weekUsed+periods <= weeklyBound
}

func (a *attempt) reserveInstructor(instructorID, day string, periods int) {
	if a.instructorDaily[instructorID] == nil {
		a.instructorDaily[instructorID] = make(map[string]int)
	}
	a.instructorDaily[instructorID][day] += periods
	a.instructorWeekly[instructorID] += periods
}

func (a *attempt) releaseInstructor(instructorID, day string, periods int) {
	if m := a.instructorDaily[instructorID]; m != nil {
		m[day] -= periods
	}
	a.instructorWeekly[instructorID] -= periods
}

// roomSatisfiesCohort reports the hard capacity/equipment requirements for
// a room serving a subject and a cohort.
func roomSatisfiesCohort(room Room, subject Subject, cohort Cohort) bool {
	return room.Capacity >= cohort.Size && room.satisfies(subject.RequiredEquipment)
}

// blockClashesWithEntries reports whether any period of the candidate block
// clashes (instructor, room, or cohort) with already-placed entries in this
// attempt.
func (a *attempt) blockClashesWithEntries(block []Entry) bool {
	for _, e := range block {
		if hasClash(e, a.entries) {
			return true
		}
	}
	return false
}

// sessionKey identifies the set of entries belonging to one scheduled
// session (all periods of one subject's occurrence for one cohort on one
// day, taught by one instructor in one room) — the unit a Theory
// displacement must move as a whole so the continuous-block invariant
// survives eviction.
func sessionKey(e Entry) string {
	return e.SubjectID + "\x00" + e.InstructorID + "\x00" + e.RoomID + "\x00" + e.CohortID + "\x00" + e.Slot.Day
}

// displaceableConflicts returns the already-placed entries that clash with
// the candidate block and are eligible for displacement — i.e. they belong
// to a non-Lab subject (spec design note: labs are harder to place, so
// theory entries are the ones relocated). Displacement always pulls in the
// full session a colliding entry belongs to, not just the colliding period,
// so a multi-period Theory block is relocated atomically rather than torn
// apart.
func (a *attempt) displaceableConflicts(block []Entry) (displace []Entry, blocked bool) {
	seenSessions := make(map[string]bool)
	seenEntries := make(map[string]bool)
	for _, e := range block {
		for _, other := range a.entries {
			if other.Slot.Day != e.Slot.Day || other.Slot.Period != e.Slot.Period {
				continue
			}
			if other.InstructorID != e.InstructorID && other.RoomID != e.RoomID && other.CohortID != e.CohortID {
				continue
			}
			subj, ok := a.cat.subjects[other.SubjectID]
			if ok && subj.IsLab() {
				return nil, true // colliding with another Lab block: cannot displace
			}
			key := sessionKey(other)
			if seenSessions[key] {
				continue
			}
			seenSessions[key] = true
			for _, sibling := range a.entries {
				if sessionKey(sibling) == key && !seenEntries[sibling.ID] {
					seenEntries[sibling.ID] = true
					displace = append(displace, sibling)
				}
			}
		}
	}
	return displace, false
}

func (a *attempt) removeEntries(ids map[string]bool) {
	kept := a.entries[:0]
	for _, e := range a.entries {
		if ids[e.ID] {
			continue
		}
		kept = append(kept, e)
	}
	a.entries = kept
}

// committedBlocks reports whether any period of the candidate block collides
// with the run's committed-registry occupancy (instructor or room).
func (a *attempt) committedBlocks(block []Entry) bool {
	if a.occ == nil {
		return false
	}
	for _, e := range block {
		if a.occ.blocksInstructor(e.InstructorID, e.Slot) || a.occ.blocksRoom(e.RoomID, e.Slot) {
			return true
		}
	}
	return false
}

// ---- Lab placement (spec §4.3.3) ----

// labSpacing computes the preferred-start-period spacing shared by all Lab
// subjects in the run.
func labSpacing(periodsPerDay, maxLabLength, labSubjectCount int) int {
	available := periodsPerDay - maxLabLength + 1
	if labSubjectCount <= 0 {
		labSubjectCount = 1
	}
	spacing := available / labSubjectCount
	if spacing < 1 {
		spacing = 1
	}
	return spacing
}

// preferredStart returns (and caches) the preferred start period for a Lab
// subject, advancing the run's global counter by the spacing on first use.
func (a *attempt) preferredStart(subject Subject, spacing, periodsPerDay, maxLabLength int) int {
	if p, ok := a.labPreferredStart[subject.ID]; ok {
		return p
	}
	lastViableStart := periodsPerDay - maxLabLength + 1
	if a.labCounter == 0 {
		a.labCounter = 1
	}
	start := a.labCounter
	if start > lastViableStart {
		start = 1
		a.labCounter = 1
	}
	a.labPreferredStart[subject.ID] = start
	a.labCounter += spacing
	if a.labCounter > lastViableStart {
		a.labCounter = 1
	}
	return start
}

// placeLab places all sessions_per_week blocks of one Lab subject for one
// cohort, per spec §4.3.3.
func (a *attempt) placeLab(cohort Cohort, subject Subject, spacing, maxLabLength int) {
	periodsPerDay := a.cat.timeModel.PeriodsPerDay()
	tolerance := 2
	if t := periodsPerDay / 3; t > tolerance {
		tolerance = t
	}
	preferred := a.preferredStart(subject, spacing, periodsPerDay, maxLabLength)

	csKey := cohortSubjectKey(cohort.ID, subject.ID)
	if a.cohortSubjectDays[csKey] == nil {
		a.cohortSubjectDays[csKey] = make(map[string]bool)
	}
	if a.cohortDayLabCount[cohort.ID] == nil {
		a.cohortDayLabCount[cohort.ID] = make(map[string]int)
	}

	for session := 0; session < subject.SessionsPerWeek; session++ {
		if !a.placeOneLabBlock(cohort, subject, preferred, tolerance, csKey) {
			a.conflicts = append(a.conflicts, Conflict{
				Kind:     ConflictConstraintViolation,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("could not place lab session %d/%d for subject %s, cohort %s", session+1, subject.SessionsPerWeek, subject.ID, cohort.ID),
			})
		}
	}
}

func (a *attempt) placeOneLabBlock(cohort Cohort, subject Subject, preferred, tolerance int, csKey string) bool {
	length := subject.ContinuousPeriods

	for _, day := range a.shuffledDays() {
		if a.cohortSubjectDays[csKey][day] {
			continue // at most one block of the same Lab per day
		}
		if a.cohortDayLabCount[cohort.ID][day] >= 2 {
			continue // at most two Lab blocks per day, per cohort
		}

		for _, run := range a.cat.timeModel.MaximalRuns(day) {
			if len(run) < length {
				continue
			}
			for offset := 0; offset+length <= len(run); offset++ {
				sub := run[offset : offset+length]
				start := sub[0].Period
				if abs(start-preferred) > tolerance {
					continue
				}
				if a.avoided != nil && a.avoided[DayPeriod{Day: day, Period: start}] {
					continue
				}
				if entries, ok := a.tryPlaceLabBlock(cohort, subject, sub); ok {
					a.entries = append(a.entries, entries...)
					a.cohortSubjectDays[csKey][day] = true
					a.cohortDayLabCount[cohort.ID][day]++
					for _, e := range entries {
						a.recordSubjectPeriod(cohort.ID, subject.ID, e.Slot.Period)
					}
					return true
				}
			}
		}
	}
	return false
}

// tryPlaceLabBlock searches instructor x room candidates for one Lab block
// and, on success, returns the block's entries (not yet appended to
// a.entries). Conflicting Theory entries are displaced; conflicts with
// another Lab block or the committed registry reject the candidate.
func (a *attempt) tryPlaceLabBlock(cohort Cohort, subject Subject, slots []TimeSlot) ([]Entry, bool) {
	day := slots[0].Day
	for _, instructorID := range a.shuffledInstructors(subject.ID) {
		ins := a.cat.instructors[instructorID]
		if !a.canAffordInstructor(instructorID, day, len(slots), ins) {
			continue
		}
		for _, roomID := range a.shuffledRooms() {
			room := a.cat.rooms[roomID]
			if !roomSatisfiesCohort(room, subject, cohort) {
				continue
			}
			block := make([]Entry, 0, len(slots))
			for _, slot := range slots {
				block = append(block, Entry{
					ID:           a.nextEntryID(),
					SubjectID:    subject.ID,
					InstructorID: instructorID,
					RoomID:       roomID,
					CohortID:     cohort.ID,
					Slot:         slot,
				})
			}
			if a.committedBlocks(block) {
				continue
			}
			displace, blocked := a.displaceableConflicts(block)
			if blocked {
				continue
			}
			if len(displace) > 0 {
				ids := make(map[string]bool, len(displace))
				for _, d := range displace {
					ids[d.ID] = true
					a.releaseInstructor(d.InstructorID, d.Slot.Day, 1)
				}
				a.removeEntries(ids)
				a.rescheduleQueue = append(a.rescheduleQueue, displace...)
			}
			a.reserveInstructor(instructorID, day, len(slots))
			return block, true
		}
	}
	return nil, false
}

func (a *attempt) recordSubjectPeriod(cohortID, subjectID string, period int) {
	key := cohortSubjectKey(cohortID, subjectID)
	if a.cohortSubjectPeriods[key] == nil {
		a.cohortSubjectPeriods[key] = make(map[int]bool)
	}
	a.cohortSubjectPeriods[key][period] = true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ---- Theory / continuous-theory placement (spec §4.3.4) ----

func (a *attempt) placeTheory(cohort Cohort, subject Subject) {
	csKey := cohortSubjectKey(cohort.ID, subject.ID)
	if a.cohortSubjectDays[csKey] == nil {
		a.cohortSubjectDays[csKey] = make(map[string]bool)
	}

	for session := 0; session < subject.SessionsPerWeek; session++ {
		if !a.placeOneTheorySession(cohort, subject, csKey) {
			a.conflicts = append(a.conflicts, Conflict{
				Kind:     ConflictConstraintViolation,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("could not place theory session %d/%d for subject %s, cohort %s", session+1, subject.SessionsPerWeek, subject.ID, cohort.ID),
			})
		}
	}
}

func (a *attempt) placeOneTheorySession(cohort Cohort, subject Subject, csKey string) bool {
	length := subject.ContinuousPeriods

	var candidateDays []string
	for _, day := range a.shuffledDays() {
		if a.cohortSubjectDays[csKey][day] {
			continue
		}
		candidateDays = append(candidateDays, day)
	}

	preferred, nonPreferred := a.partitionByPreference(cohort, subject, candidateDays, length, csKey)
	for _, order := range [][]timeCandidate{preferred, nonPreferred} {
		for _, cand := range order {
			if entries, ok := a.tryPlaceTheoryBlock(cohort, subject, cand.slots); ok {
				a.entries = append(a.entries, entries...)
				a.cohortSubjectDays[csKey][cand.day] = true
				for _, e := range entries {
					a.recordSubjectPeriod(cohort.ID, subject.ID, e.Slot.Period)
				}
				a.recordTheoryDayPeriods(cohort.ID, subject.ID, cand.day, entries)
				return true
			}
		}
	}
	return false
}

type timeCandidate struct {
	day   string
	slots []TimeSlot
}

// partitionByPreference builds the candidate (day, block) pairs for a
// Theory session and splits them into preferred/non-preferred per spec
// §4.3.4, applying the continuous_periods==1 adjacency-forbid rule and the
// same-period-number-on-multiple-days rule.
func (a *attempt) partitionByPreference(cohort Cohort, subject Subject, days []string, length int, csKey string) (preferred, nonPreferred []timeCandidate) {
	for _, day := range days {
		for _, run := range a.cat.timeModel.MaximalRuns(day) {
			if len(run) < length {
				continue
			}
			for offset := 0; offset+length <= len(run); offset++ {
				sub := run[offset : offset+length]
				start := sub[0].Period

				reused := false
				for _, s := range sub {
					if a.cohortSubjectPeriods[csKey][s.Period] {
						reused = true
						break
					}
				}
				if reused {
					continue // never the same subject at the same period number twice
				}
				if a.avoided != nil && a.avoided[DayPeriod{Day: day, Period: start}] {
					continue
				}
				if length == 1 && a.violatesTheoryAdjacency(cohort.ID, subject.ID, day, start) {
					continue
				}

				cand := timeCandidate{day: day, slots: sub}
				if a.matchesPreference(subject, sub[0]) {
					preferred = append(preferred, cand)
				} else {
					nonPreferred = append(nonPreferred, cand)
				}
			}
		}
	}
	return preferred, nonPreferred
}

// violatesTheoryAdjacency forbids a single-period session within ±1 period
// (same day) of an already-scheduled session of the same subject/cohort.
func (a *attempt) violatesTheoryAdjacency(cohortID, subjectID, day string, period int) bool {
	key := cohortSubjectKey(cohortID, subjectID)
	for _, p := range a.cohortSubjectDayPeriods[key][day] {
		if abs(p-period) <= 1 {
			return true
		}
	}
	return false
}

func (a *attempt) recordTheoryDayPeriods(cohortID, subjectID, day string, entries []Entry) {
	key := cohortSubjectKey(cohortID, subjectID)
	if a.cohortSubjectDayPeriods[key] == nil {
		a.cohortSubjectDayPeriods[key] = make(map[string][]int)
	}
	for _, e := range entries {
		a.cohortSubjectDayPeriods[key][day] = append(a.cohortSubjectDayPeriods[key][day], e.Slot.Period)
	}
}

// matchesPreference matches a subject's preferred-time tags against a
// slot's time bucket and day-qualified/period-qualified tokens.
func (a *attempt) matchesPreference(subject Subject, slot TimeSlot) bool {
	if len(subject.PreferredTimeTags) == 0 {
		return true
	}
	bucket := string(Bucket(slot.StartMinute))
	for _, tag := range subject.PreferredTimeTags {
		switch {
		case tag == bucket:
			return true
		case strings.EqualFold(tag, slot.Day):
			return true
		case strings.HasPrefix(tag, "p"):
			if tag == fmt.Sprintf("p%d", slot.Period) {
				return true
			}
		}
	}
	return false
}

// tryPlaceTheoryBlock searches instructor x room candidates for one Theory
// block. Unlike Lab placement, Theory placement never displaces existing
// entries — it is atomic-but-non-evicting (spec §4.3.4/§4.3.5).
func (a *attempt) tryPlaceTheoryBlock(cohort Cohort, subject Subject, slots []TimeSlot) ([]Entry, bool) {
	day := slots[0].Day
	for _, instructorID := range a.shuffledInstructors(subject.ID) {
		ins := a.cat.instructors[instructorID]
		if !a.canAffordInstructor(instructorID, day, len(slots), ins) {
			continue
		}
		for _, roomID := range a.shuffledRooms() {
			room := a.cat.rooms[roomID]
			if !roomSatisfiesCohort(room, subject, cohort) {
				continue
			}
			block := make([]Entry, 0, len(slots))
			for _, slot := range slots {
				block = append(block, Entry{
					ID:           a.nextEntryID(),
					SubjectID:    subject.ID,
					InstructorID: instructorID,
					RoomID:       roomID,
					CohortID:     cohort.ID,
					Slot:         slot,
				})
			}
			if a.committedBlocks(block) || a.blockClashesWithEntries(block) {
				continue
			}
			a.reserveInstructor(instructorID, day, len(slots))
			return block, true
		}
	}
	return nil, false
}

// ---- Reschedule queue draining (spec §4.3.5) ----

// drainRescheduleQueue re-places entries displaced by Lab blocks. Entries
// are grouped back into the session they belonged to (same subject,
// instructor, room, cohort) so a multi-period Theory block is moved as one
// contiguous unit rather than torn across periods — the queue is drained
// exactly once, after primary placement finishes.
func (a *attempt) drainRescheduleQueue() {
	queue := a.rescheduleQueue
	a.rescheduleQueue = nil

	groups := make(map[string][]Entry)
	var order []string
	for _, displaced := range queue {
		key := sessionKey(displaced)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], displaced)
	}

	for _, key := range order {
		group := groups[key]
		first := group[0]
		subject, ok := a.cat.subjects[first.SubjectID]
		if !ok {
			a.conflicts = append(a.conflicts, Conflict{
				Kind:     ConflictConstraintViolation,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("displaced entries for unknown subject %s, cohort %s could not be rescheduled", first.SubjectID, first.CohortID),
				EntryIDs: entryIDs(group),
			})
			continue
		}
		cohort := a.cat.cohorts[first.CohortID]
		if a.rescheduleSession(cohort, subject, group) {
			continue
		}
		a.conflicts = append(a.conflicts, Conflict{
			Kind:     ConflictConstraintViolation,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("displaced session for subject %s, cohort %s could not be rescheduled", first.SubjectID, first.CohortID),
			EntryIDs: entryIDs(group),
		})
	}
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// rescheduleSession attempts to re-place a whole displaced session (all of
// its original periods, contiguous and sharing subject/instructor/room/
// cohort) at any still-available contiguous block of the same length that
// passes the hard clash/capacity/committed-registry checks and, for
// single-period subjects, the ±1 adjacency-forbid rule (spec §4.3.5). The
// one-session-per-day, same-period-number and avoided-pattern rules of a
// fresh Theory placement are not re-checked here, and candidates are not
// ordered by preferred-time tags. The original instructor and room are tried first; if they
// are unavailable at every candidate block, any eligible instructor/room is
// tried instead, since the displacing Lab block is what made the original
// pairing infeasible, not the session's identity.
func (a *attempt) rescheduleSession(cohort Cohort, subject Subject, group []Entry) bool {
	length := len(group)
	csKey := cohortSubjectKey(cohort.ID, subject.ID)
	original := group[0]

	for _, preferOriginal := range []bool{true, false} {
		for _, day := range a.shuffledDays() {
			for _, run := range a.cat.timeModel.MaximalRuns(day) {
				if len(run) < length {
					continue
				}
				for offset := 0; offset+length <= len(run); offset++ {
					sub := run[offset : offset+length]
					start := sub[0].Period
					if subject.ContinuousPeriods == 1 && a.violatesTheoryAdjacency(cohort.ID, subject.ID, day, start) {
						continue
					}
					if entries, ok := a.tryRescheduleBlock(cohort, subject, sub, original, preferOriginal); ok {
						a.entries = append(a.entries, entries...)
						a.cohortSubjectDays[csKey][day] = true
						for _, e := range entries {
							a.recordSubjectPeriod(cohort.ID, subject.ID, e.Slot.Period)
						}
						a.recordTheoryDayPeriods(cohort.ID, subject.ID, day, entries)
						return true
					}
				}
			}
		}
	}
	return false
}

// tryRescheduleBlock mirrors tryPlaceTheoryBlock but, when preferOriginal is
// set, tries the session's original instructor/room pairing before falling
// back to the full candidate iteration.
func (a *attempt) tryRescheduleBlock(cohort Cohort, subject Subject, slots []TimeSlot, original Entry, preferOriginal bool) ([]Entry, bool) {
	day := slots[0].Day
	instructorIDs := a.shuffledInstructors(subject.ID)
	roomIDs := a.shuffledRooms()
	if preferOriginal {
		instructorIDs = prependIfEligible(instructorIDs, original.InstructorID)
		roomIDs = prependIfEligible(roomIDs, original.RoomID)
	}

	for _, instructorID := range instructorIDs {
		ins := a.cat.instructors[instructorID]
		if !a.canAffordInstructor(instructorID, day, len(slots), ins) {
			continue
		}
		for _, roomID := range roomIDs {
			room := a.cat.rooms[roomID]
			if !roomSatisfiesCohort(room, subject, cohort) {
				continue
			}
			block := make([]Entry, 0, len(slots))
			for i, slot := range slots {
				id := a.nextEntryID()
				if i == 0 && preferOriginal && instructorID == original.InstructorID && roomID == original.RoomID {
					id = original.ID
				}
				block = append(block, Entry{
					ID:           id,
					SubjectID:    subject.ID,
					InstructorID: instructorID,
					RoomID:       roomID,
					CohortID:     cohort.ID,
					Slot:         slot,
				})
			}
			if a.committedBlocks(block) || a.blockClashesWithEntries(block) {
				continue
			}
			a.reserveInstructor(instructorID, day, len(slots))
			return block, true
		}
	}
	return nil, false
}

// prependIfEligible moves id to the front of ids if present, otherwise
// returns ids unchanged — id may not be eligible for this subject/room set
// any more (e.g. a room whose equipment no longer fits), in which case the
// normal candidate order is used.
func prependIfEligible(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			out := make([]string, 0, len(ids))
			out = append(out, id)
			out = append(out, ids[:i]...)
			out = append(out, ids[i+1:]...)
			return out
		}
	}
	return ids
}

// run executes one full attempt for the given cohorts, in priority and
// seeded order, and returns the entries produced per cohort.
func (a *attempt) run(cohorts []Cohort) map[string][]Entry {
	order := a.rng.shuffle(len(cohorts))
	for _, idx := range order {
		cohort := cohorts[idx]
		subjects := a.orderSubjects(a.cat.mandatorySubjects(cohort.ID))

		labCount := 0
		maxLabLength := 1
		for _, s := range subjects {
			if s.IsLab() {
				labCount++
				if s.ContinuousPeriods > maxLabLength {
					maxLabLength = s.ContinuousPeriods
				}
			}
		}
		spacing := labSpacing(a.cat.timeModel.PeriodsPerDay(), maxLabLength, labCount)

		for _, subject := range subjects {
			if subject.IsLab() {
				a.placeLab(cohort, subject, spacing, maxLabLength)
			} else {
				a.placeTheory(cohort, subject)
			}
		}
	}

	a.drainRescheduleQueue()

	byCohort := make(map[string][]Entry)
	for _, e := range a.entries {
		byCohort[e.CohortID] = append(byCohort[e.CohortID], e)
	}
	return byCohort
}
