package engine

// requiredEntries sums sessions_per_week over a cohort's mandatory subject
// list, falling back to the full catalog when that list is empty (spec
// §4.3.8, resolving the source's dual scoring definitions in favor of this
// one).
func requiredEntries(cat *compiled, cohortID string) int {
	total := 0
	for _, s := range cat.mandatorySubjects(cohortID) {
		total += s.SessionsPerWeek
	}
	return total
}

// scheduledEntries counts placed entries for a cohort whose subject is in
// its mandatory list (or the full catalog if that list is empty).
func scheduledEntries(cat *compiled, cohortID string, entries []Entry) int {
	allowed := make(map[string]bool)
	for _, s := range cat.mandatorySubjects(cohortID) {
		allowed[s.ID] = true
	}
	count := 0
	for _, e := range entries {
		if e.CohortID == cohortID && allowed[e.SubjectID] {
			count++
		}
	}
	return count
}

// score reduces a cohort's entry set to a single integer quality score:
// round(100 * scheduled_entries / required_entries). The score is advisory;
// it never feeds back into placement decisions beyond attempt selection in
// the multi-attempt restart loop.
func score(cat *compiled, cohortID string, entries []Entry) int {
	required := requiredEntries(cat, cohortID)
	if required <= 0 {
		return 100
	}
	scheduled := scheduledEntries(cat, cohortID, entries)
	return int((100*scheduled + required/2) / required) // round-half-up
}

// totalTarget sums required_entries across a set of cohorts — the
// multi-attempt restart loop's `target` (spec §4.3.7).
func totalTarget(cat *compiled, cohortIDs []string) int {
	total := 0
	for _, id := range cohortIDs {
		total += requiredEntries(cat, id)
	}
	return total
}
