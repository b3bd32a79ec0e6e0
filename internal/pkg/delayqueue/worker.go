package delayqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Handler processes one job. A returned error counts as a failed attempt.
type Handler func(ctx context.Context, job Job) error

// WorkerConfig tunes polling
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	RetryBackoff time.Duration
	// JobTimeout bounds a single handler call. Handlers do not see shutdown.
	JobTimeout time.Duration
}

// Worker polls the queue and dispatches claimed jobs by kind
type Worker struct {
	queue    *Queue
	cfg      WorkerConfig
	handlers map[string]Handler
	logger   zerolog.Logger
}

// NewWorker creates a worker with sane defaults for zero config values
func NewWorker(queue *Queue, cfg WorkerConfig, logger zerolog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 30 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	return &Worker{
		queue:    queue,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Handle registers the handler for jobs whose key starts with "<kind>:"
func (w *Worker) Handle(kind string, h Handler) {
	w.handlers[kind] = h
}

// Run polls until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.cfg.PollInterval).Msg("Delay queue worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Delay queue worker stopped")
			return nil
		case <-ticker.C:
			if _, err := w.Poll(ctx); err != nil {
				w.logger.Error().Err(err).Msg("Failed to poll delay queue")
			}
		}
	}
}

// Poll claims one batch of due jobs and runs them. It returns how many were processed.
// Once ctx is cancelled the jobs not started yet are put back in the queue.
func (w *Worker) Poll(ctx context.Context) (int, error) {
	jobs, err := w.queue.ClaimDue(ctx, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	runCtx := context.WithoutCancel(ctx)
	for i, job := range jobs {
		if ctx.Err() != nil {
			return i, w.releaseRest(runCtx, jobs[i:])
		}
		w.process(runCtx, job)
	}
	return len(jobs), nil
}

func (w *Worker) releaseRest(ctx context.Context, rest []Job) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	if err := w.queue.release(ctx, rest); err != nil {
		w.logger.Error().Err(err).Int("jobs", len(rest)).Msg("Failed to release unprocessed jobs")
		return err
	}
	w.logger.Info().Int("jobs", len(rest)).Msg("Released unprocessed jobs on shutdown")
	return nil
}

func (w *Worker) process(ctx context.Context, job Job) {
	lgr := w.logger.With().Str("jobKey", job.Key).Logger()

	h, ok := w.handlers[job.Kind()]
	if !ok {
		lgr.Warn().Msg("No handler registered for job kind, discarding")
		_ = w.queue.settle(ctx, job, "unhandled")
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err := safeCall(jobCtx, h, job)
	cancel()
	if err == nil {
		lgr.Debug().Msg("Job completed")
		if serr := w.queue.settle(ctx, job, "completed"); serr != nil {
			lgr.Warn().Err(serr).Msg("Failed to record job outcome")
		}
		return
	}

	if job.Attempts > 1 {
		lgr.Warn().Err(err).Int("attemptsLeft", job.Attempts-1).Msg("Job failed, retrying")
		if rerr := w.queue.retry(ctx, job, w.cfg.RetryBackoff); rerr != nil {
			lgr.Error().Err(rerr).Msg("Failed to requeue job")
		}
		return
	}

	lgr.Error().Err(err).Msg("Job failed, discarding")
	if serr := w.queue.settle(ctx, job, "failed: "+err.Error()); serr != nil {
		lgr.Warn().Err(serr).Msg("Failed to record job outcome")
	}
}

func safeCall(ctx context.Context, h Handler, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, job)
}
