package pipeline

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSuperseded marks a search whose session has since started a newer one.
var ErrSuperseded = errors.New("search superseded")

// JobStatus represents the state of a search job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusSearching  JobStatus = "searching"
	StatusFetching   JobStatus = "fetching"
	StatusExtracting JobStatus = "extracting"
	StatusResolving  JobStatus = "resolving"
	StatusCompleted  JobStatus = "completed"
	StatusNotFound   JobStatus = "not_found"
	StatusFailed     JobStatus = "failed"
	StatusSuperseded JobStatus = "superseded"
)

func (s JobStatus) terminal() bool {
	switch s {
	case StatusCompleted, StatusNotFound, StatusFailed, StatusSuperseded:
		return true
	}
	return false
}

// Job tracks one asynchronous search. Generation increases per session;
// only the session's latest generation may publish a result.
type Job struct {
	mu sync.Mutex

	ID         string
	Session    string
	Query      string
	Generation uint64

	Status    JobStatus
	Message   string
	Result    *Result
	CreatedAt time.Time
	UpdatedAt time.Time

	cancel context.CancelFunc
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	Session    string    `json:"session"`
	Query      string    `json:"query"`
	Generation uint64    `json:"generation"`
	Status     JobStatus `json:"status"`
	Message    string    `json:"message,omitempty"`
	Result     *Result   `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:         j.ID,
		Session:    j.Session,
		Query:      j.Query,
		Generation: j.Generation,
		Status:     j.Status,
		Message:    j.Message,
		Result:     j.Result,
	}
}

// SetStatus updates a non-terminal job's status.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.terminal() {
		return
	}
	j.Status = status
	j.UpdatedAt = time.Now()
}

func (j *Job) setCancel(cancel context.CancelFunc) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = cancel
}

// finish moves the job to a terminal state. Callers hold the store lock.
func (j *Job) finish(status JobStatus, message string, result *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Message = message
	j.Result = result
	j.UpdatedAt = time.Now()
}

// JobStore is a thread-safe in-memory job registry with TTL eviction. It
// also owns the per-session generation counters.
type JobStore struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	latest map[string]uint64
	ttl    time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:   make(map[string]*Job),
		latest: make(map[string]uint64),
		ttl:    ttl,
	}
}

// NewJob registers a search for session, giving it the next generation and
// cancelling every older unfinished search of the same session.
func (s *JobStore) NewJob(session, query string) *Job {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.latest[session] + 1
	s.latest[session] = gen

	for _, old := range s.jobs {
		if old.Session != session {
			continue
		}
		old.mu.Lock()
		if !old.Status.terminal() && old.Generation < gen && old.cancel != nil {
			old.cancel()
		}
		old.mu.Unlock()
	}

	job := &Job{
		ID:         jobID(session, query, gen, now),
		Session:    session,
		Query:      query,
		Generation: gen,
		Status:     StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.jobs[job.ID] = job
	return job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// IsCurrent reports whether job is still its session's latest search.
func (s *JobStore) IsCurrent(job *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[job.Session] == job.Generation
}

// Finish publishes a job's outcome if the job is still current; otherwise
// the job is marked superseded and the outcome is dropped. It returns
// whether the outcome was published.
func (s *JobStore) Finish(job *Job, status JobStatus, message string, result *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[job.Session] != job.Generation {
		job.finish(StatusSuperseded, StatusMessage(ErrSuperseded), nil)
		return false
	}
	job.finish(status, message, result)
	return true
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

func jobID(session, query string, gen uint64, now time.Time) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s-%s-%d-%d", session, query, gen, now.UnixNano()))
	return fmt.Sprintf("%x", h[:10])
}
