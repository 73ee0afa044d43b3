package engine

import (
	"fmt"
	"strings"
	"time"
)

// GenerateSingleCohort produces one Timetable for one cohort, per spec §6.
// avoided_patterns (settings.AvoidedPatterns) only apply in this mode.
func GenerateSingleCohort(cat Catalog, cohortID string, settings OptimizationSettings) (*Timetable, error) {
	compiledCat, err := validateAndCompile(cat)
	if err != nil {
		return nil, err
	}
	cohort, ok := compiledCat.cohorts[cohortID]
	if !ok {
		return nil, fmt.Errorf("engine: unknown cohort id %q", cohortID)
	}

	seed := deriveSeed(settings, 0)
	a := newAttempt(compiledCat, settings, nil, seed)
	byCohort := a.run([]Cohort{cohort})

	entries := byCohort[cohortID]
	tt := &Timetable{
		Entries:   entries,
		Conflicts: a.conflicts,
		Status:    StatusDraft,
		CohortIDs: []string{cohortID},
	}
	tt.Score = score(compiledCat, cohortID, entries)
	return tt, nil
}

// GenerateMultiCohort produces one Timetable per input cohort id, sharing
// one engine run so instructors/rooms are not double-booked across cohorts,
// and so that none of the output collides with the CommittedRegistry's
// entries for cohorts outside this set (spec §4.3, §4.3.7).
func GenerateMultiCohort(cat Catalog, cohortIDs []string, settings OptimizationSettings, registry CommittedRegistry) ([]*Timetable, error) {
	if len(cohortIDs) < 2 {
		return nil, fmt.Errorf("engine: multi-cohort generation requires at least two cohort ids")
	}
	compiledCat, err := validateAndCompile(cat)
	if err != nil {
		return nil, err
	}
	cohorts := make([]Cohort, 0, len(cohortIDs))
	for _, id := range cohortIDs {
		co, ok := compiledCat.cohorts[id]
		if !ok {
			return nil, fmt.Errorf("engine: unknown cohort id %q", id)
		}
		cohorts = append(cohorts, co)
	}

	occ := newCommittedOccupancy(registry, cohortIDs)
	target := totalTarget(compiledCat, cohortIDs)
	minAcceptable := (85 * target) / 100

	var best map[string][]Entry
	var bestConflicts []Conflict
	bestEntryCount := -1
	bestScoreSum := -1

	deadline := time.Time{}
	if settings.TimeLimitSeconds > 0 {
		deadline = time.Now().Add(time.Duration(settings.TimeLimitSeconds) * time.Second)
	}

	const maxAttempts = 10
	for i := 0; i < maxAttempts; i++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		seed := deriveSeed(settings, i+1)
		a := newAttempt(compiledCat, settings, occ, seed)
		a.avoided = nil // avoided_patterns apply in single-cohort mode only
		byCohort := a.run(cohorts)

		entryCount := 0
		scoreSum := 0
		for _, id := range cohortIDs {
			entryCount += len(byCohort[id])
			scoreSum += score(compiledCat, id, byCohort[id])
		}

		if entryCount > bestEntryCount || (entryCount == bestEntryCount && scoreSum > bestScoreSum) {
			best = byCohort
			bestConflicts = a.conflicts
			bestEntryCount = entryCount
			bestScoreSum = scoreSum
		}

		if bestEntryCount >= target {
			break
		}
		if i >= 4 && bestEntryCount >= minAcceptable { // "after attempt 5" is 0-indexed i==4
			break
		}
	}

	out := make([]*Timetable, 0, len(cohortIDs))
	for _, id := range cohortIDs {
		entries := best[id]
		tt := &Timetable{
			Entries:   entries,
			Conflicts: conflictsForCohort(bestConflicts, id),
			Status:    StatusDraft,
			CohortIDs: []string{id},
		}
		tt.Score = score(compiledCat, id, entries)
		out = append(out, tt)
	}
	return out, nil
}

// conflictsForCohort filters an attempt's conflicts down to the ones that
// occurred while placing the given cohort. Placement conflict messages
// always name the cohort they concern (see placeLab/placeTheory/
// drainRescheduleQueue), so a substring match scopes them without needing a
// dedicated CohortID field on Conflict.
func conflictsForCohort(all []Conflict, cohortID string) []Conflict {
	var out []Conflict
	needle := "cohort " + cohortID
	for _, c := range all {
		if strings.Contains(c.Message, needle) {
			out = append(out, c)
		}
	}
	return out
}

// deriveSeed produces the run's seed per spec §4.3.1: a mix of wall-clock
// time, a uniform draw, and a deterministic function of the settings — or,
// when settings.Seed is pinned, that exact value offset by the attempt
// index so repeated attempts within one multi-attempt restart still vary.
func deriveSeed(settings OptimizationSettings, attemptIndex int) int64 {
	if settings.Seed != 0 {
		return settings.Seed + int64(attemptIndex)
	}
	return seedMix(time.Now().UnixNano(), int64(attemptIndex+1), settings.settingsHash())
}
