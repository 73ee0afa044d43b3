package engine

// PriorityWeights are reserved knobs that currently only affect seeded
// variation, not placement decisions, per spec §6.
type PriorityWeights struct {
	InstructorLoad   float64
	RoomUtilization  float64
	StudentSchedule  float64
	Constraints      float64
}

// DayPeriod is a (day, period) pair used for avoided-pattern matching.
type DayPeriod struct {
	Day    string
	Period int
}

// OptimizationSettings are the recognized engine options (spec §6).
type OptimizationSettings struct {
	MaxIterations     int
	TimeLimitSeconds  int
	PriorityWeights   PriorityWeights
	AvoidedPatterns   []DayPeriod // single-cohort mode only

	// Seed, when non-zero, pins the run's seed instead of deriving one from
	// wall-clock/uniform-draw/settings-hash mixing — used by callers and
	// tests that need determinism-given-seed without relying on process
	// time.
	Seed int64
}

// settingsHash folds the settings relevant to seed derivation into a single
// deterministic int64, per spec §4.3.1 ("a deterministic function of
// OptimizationSettings").
func (s OptimizationSettings) settingsHash() int64 {
	h := int64(s.MaxIterations)*31 + int64(s.TimeLimitSeconds)*37
	h += int64(s.PriorityWeights.InstructorLoad*1000) * 41
	h += int64(s.PriorityWeights.RoomUtilization*1000) * 43
	h += int64(s.PriorityWeights.StudentSchedule*1000) * 47
	h += int64(s.PriorityWeights.Constraints*1000) * 53
	h += int64(len(s.AvoidedPatterns)) * 59
	return h
}

func avoidedSet(patterns []DayPeriod) map[DayPeriod]bool {
	if len(patterns) == 0 {
		return nil
	}
	set := make(map[DayPeriod]bool, len(patterns))
	for _, p := range patterns {
		set[p] = true
	}
	return set
}
