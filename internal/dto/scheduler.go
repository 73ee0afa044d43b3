package dto

// GenerateScheduleRequest asks the engine to build a timetable for one cohort.
type GenerateScheduleRequest struct {
	TermID  string `json:"termId" validate:"required"`
	ClassID string `json:"classId" validate:"required"`
	Seed    *int64 `json:"seed,omitempty"`
}

// GenerateMultiScheduleRequest asks the engine to build coordinated
// timetables for several cohorts in one run.
type GenerateMultiScheduleRequest struct {
	TermID   string   `json:"termId" validate:"required"`
	ClassIDs []string `json:"classIds" validate:"required,min=1,dive,required"`
	Seed     *int64   `json:"seed,omitempty"`
}

// ScheduleEntryProposal is one generated (day, period, subject, instructor, room) slot.
type ScheduleEntryProposal struct {
	EntryID      string `json:"entryId"`
	Day          string `json:"day"`
	Period       int    `json:"period"`
	SubjectID    string `json:"subjectId"`
	InstructorID string `json:"instructorId"`
	RoomID       string `json:"roomId"`
}

// ProposalConflictEntry mirrors one unavoidable hard-constraint conflict the engine reported.
type ProposalConflictEntry struct {
	Kind        string   `json:"kind"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	EntryIDs    []string `json:"entryIds,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// CohortScheduleProposal is one cohort's slice of a generation run.
type CohortScheduleProposal struct {
	ClassID   string                  `json:"classId"`
	Score     int                     `json:"score"`
	Entries   []ScheduleEntryProposal `json:"entries"`
	Conflicts []ProposalConflictEntry `json:"conflicts"`
}

// GenerateScheduleResponse returns a single-cohort proposal.
type GenerateScheduleResponse struct {
	ProposalID string                 `json:"proposalId"`
	TermID     string                 `json:"termId"`
	Cohort     CohortScheduleProposal `json:"cohort"`
	Attempts   int                    `json:"attempts"`
}

// GenerateMultiScheduleResponse returns a coordinated multi-cohort proposal.
type GenerateMultiScheduleResponse struct {
	ProposalID string                   `json:"proposalId"`
	TermID     string                   `json:"termId"`
	Cohorts    []CohortScheduleProposal `json:"cohorts"`
	Attempts   int                      `json:"attempts"`
}

// SaveScheduleRequest persists a cached proposal into semester schedules.
type SaveScheduleRequest struct {
	ProposalID    string `json:"proposalId" validate:"required"`
	CommitToDaily bool   `json:"commitToDaily"`
}

// SaveScheduleResponse reports the semester schedule IDs created per cohort.
type SaveScheduleResponse struct {
	ScheduleIDs map[string]string `json:"scheduleIds"`
}

// SemesterScheduleQuery filters schedule summaries by class and term.
type SemesterScheduleQuery struct {
	TermID  string `form:"termId" json:"termId"`
	ClassID string `form:"classId" json:"classId"`
}

// AsyncGenerateRequest queues a generation run to be computed by a worker.
type AsyncGenerateRequest struct {
	TermID   string   `json:"termId" validate:"required"`
	ClassIDs []string `json:"classIds" validate:"required,min=1,dive,required"`
	Seed     *int64   `json:"seed,omitempty"`
}

// AsyncGenerateAccepted acknowledges a queued generation run.
type AsyncGenerateAccepted struct {
	JobID string `json:"jobId"`
}

// AsyncJobStatus reports the lifecycle of a queued generation run.
type AsyncJobStatus struct {
	JobID      string                         `json:"jobId"`
	Status     string                         `json:"status"`
	Error      string                         `json:"error,omitempty"`
	ProposalID string                         `json:"proposalId,omitempty"`
	Result     *GenerateMultiScheduleResponse `json:"result,omitempty"`
}
