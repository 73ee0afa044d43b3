package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
)

type asyncJobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type multiScheduleGenerator interface {
	GenerateMulti(ctx context.Context, req dto.GenerateMultiScheduleRequest) (*dto.GenerateMultiScheduleResponse, error)
}

const asyncScheduleJobType = "schedule.generate"

// AsyncScheduleService queues coordinated schedule generation runs through
// the worker pool and tracks their progress in memory, so a large cohort set
// doesn't block the request past a client's timeout. Unlike report jobs, job
// state is not kept in a database table: it is lost on restart, and a run
// the queue retries regenerates from the stored request payload. The retry
// reproduces the earlier result only when the payload pins a seed; without
// one, each run derives a fresh seed from the clock.
type AsyncScheduleService struct {
	generator multiScheduleGenerator
	queue     asyncJobDispatcher
	logger    *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*dto.AsyncJobStatus
	reqs map[string]dto.GenerateMultiScheduleRequest
}

// NewAsyncScheduleService wires the async facade over a job queue.
func NewAsyncScheduleService(generator multiScheduleGenerator, queue asyncJobDispatcher, logger *zap.Logger) *AsyncScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncScheduleService{
		generator: generator,
		queue:     queue,
		logger:    logger,
		jobs:      make(map[string]*dto.AsyncJobStatus),
		reqs:      make(map[string]dto.GenerateMultiScheduleRequest),
	}
}

// SetQueue wires the dispatcher after construction, for callers that must
// build the queue's handler from this service before the queue itself exists.
func (s *AsyncScheduleService) SetQueue(queue asyncJobDispatcher) {
	s.mu.Lock()
	s.queue = queue
	s.mu.Unlock()
}

// Submit records the request and enqueues it for background processing.
func (s *AsyncScheduleService) Submit(ctx context.Context, req dto.AsyncGenerateRequest) (*dto.AsyncGenerateAccepted, error) {
	if len(req.ClassIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classIds is required")
	}
	jobID := uuid.NewString()

	s.mu.Lock()
	s.jobs[jobID] = &dto.AsyncJobStatus{JobID: jobID, Status: "queued"}
	s.reqs[jobID] = dto.GenerateMultiScheduleRequest{TermID: req.TermID, ClassIDs: req.ClassIDs, Seed: req.Seed}
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: asyncScheduleJobType}); err != nil {
		s.mu.Lock()
		s.jobs[jobID] = &dto.AsyncJobStatus{JobID: jobID, Status: "failed", Error: err.Error()}
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue schedule generation job")
	}
	return &dto.AsyncGenerateAccepted{JobID: jobID}, nil
}

// Status reports a queued/running/finished job's current state.
func (s *AsyncScheduleService) Status(ctx context.Context, jobID string) (*dto.AsyncJobStatus, error) {
	s.mu.RLock()
	status, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	cp := *status
	return &cp, nil
}

// Handle processes one queued job. Wired as the jobs.Handler for the scheduler queue.
func (s *AsyncScheduleService) Handle(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	req, ok := s.reqs[job.ID]
	if ok {
		s.jobs[job.ID] = &dto.AsyncJobStatus{JobID: job.ID, Status: "running"}
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	result, err := s.generator.GenerateMulti(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.jobs[job.ID] = &dto.AsyncJobStatus{JobID: job.ID, Status: "failed", Error: err.Error()}
		return err
	}
	s.jobs[job.ID] = &dto.AsyncJobStatus{JobID: job.ID, Status: "finished", ProposalID: result.ProposalID, Result: result}
	delete(s.reqs, job.ID)
	return nil
}
