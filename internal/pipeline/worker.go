package pipeline

import (
	"context"
	"log/slog"
)

// Worker runs queued search jobs.
type Worker struct {
	service *Service
	jobs    *JobStore
	log     *slog.Logger
}

func NewWorker(service *Service, jobs *JobStore, log *slog.Logger) *Worker {
	return &Worker{
		service: service,
		jobs:    jobs,
		log:     log,
	}
}

// Process runs one search job. A job that stops being its session's latest
// search is cancelled and never publishes a result.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "session", job.Session, "generation", job.Generation)

	if !w.jobs.IsCurrent(job) {
		w.jobs.Finish(job, StatusSuperseded, "", nil)
		log.Info("skipping superseded search")
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	job.setCancel(cancel)

	res, err := w.service.Search(jobCtx, job.Query, func(s JobStatus) {
		if !w.jobs.IsCurrent(job) {
			cancel()
			return
		}
		job.SetStatus(s)
	})

	var published bool
	switch {
	case err == nil:
		published = w.jobs.Finish(job, StatusCompleted, res.Message, res)
	case IsNotFound(err):
		log.Warn("search not found", "query", job.Query, "error", err)
		published = w.jobs.Finish(job, StatusNotFound, StatusMessage(err), nil)
	default:
		log.Error("search failed", "query", job.Query, "error", err)
		published = w.jobs.Finish(job, StatusFailed, StatusMessage(err), nil)
	}
	if !published {
		log.Info("discarded stale search result")
	}
}
