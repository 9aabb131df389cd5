// Package pipeline drives submitted jobs through their processing states:
// received -> transcoding -> inferring -> completed/failed. A bounded pool
// of workers consumes tasks; the submitting request never waits on one.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
	"github.com/kidooo/analysis-service/internal/analysis/store"
	"github.com/kidooo/analysis-service/internal/screening"
	"github.com/kidooo/analysis-service/internal/transcode"
)

// Transcoder is the size-budget re-encode step.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) (*transcode.Result, error)
}

// Analyzer is the external inference step.
type Analyzer interface {
	Analyze(ctx context.Context, path, mimeType, prompt string, onProgress func(string)) (string, error)
}

// ScreeningSource supplies optional questionnaire context for a child.
type ScreeningSource interface {
	Get(ctx context.Context, childID string) (*screening.Result, error)
}

// Task is one enqueued unit of pipeline work.
type Task struct {
	JobID        int
	SourcePath   string
	Kind         string
	MIMEType     string
	Instructions string
	ChildID      string
}

// Config holds runner settings. Zero values fall back to defaults.
type Config struct {
	Concurrency int
	QueueSize   int
	JobTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency == 0 {
		c.Concurrency = 2
	}
	if c.QueueSize == 0 {
		c.QueueSize = 32
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = 10 * time.Minute
	}
	return c
}

// Runner owns the worker pool.
type Runner struct {
	store      store.Store
	transcoder Transcoder
	analyzer   Analyzer
	screenings ScreeningSource
	logger     *slog.Logger
	cfg        Config

	tasks    chan Task
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRunner creates a runner. screenings may be nil when no questionnaire
// store is configured.
func NewRunner(s store.Store, t Transcoder, a Analyzer, screenings ScreeningSource, cfg Config, logger *slog.Logger) *Runner {
	cfg = cfg.withDefaults()
	return &Runner{
		store:      s,
		transcoder: t,
		analyzer:   a,
		screenings: screenings,
		logger:     logger,
		cfg:        cfg,
		tasks:      make(chan Task, cfg.QueueSize),
	}
}

// Start spawns the worker goroutines.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Spawning pipeline workers",
		slog.Int("concurrency", r.cfg.Concurrency),
		slog.Int("queue_size", r.cfg.QueueSize),
	)

	for i := 0; i < r.cfg.Concurrency; i++ {
		r.wg.Add(1)
		go r.workerLoop(ctx, i)
	}
}

// Submit enqueues a task without blocking. Returns domain.ErrQueueFull when
// the queue has no capacity; the caller is expected to fail the job record
// so polling clients still observe a terminal state.
func (r *Runner) Submit(task Task) error {
	select {
	case r.tasks <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.tasks)
	})
	r.wg.Wait()
	r.logger.Info("Pipeline stopped")
}

func (r *Runner) workerLoop(ctx context.Context, workerNum int) {
	defer r.wg.Done()

	r.logger.Info("Pipeline worker started", slog.Int("worker_num", workerNum))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Pipeline worker stopping - context canceled",
				slog.Int("worker_num", workerNum),
			)
			return

		case task, ok := <-r.tasks:
			if !ok {
				r.logger.Info("Pipeline worker stopping - queue closed",
					slog.Int("worker_num", workerNum),
				)
				return
			}

			r.logger.Info("Worker picked up job",
				slog.Int("worker_num", workerNum),
				slog.Int("job_id", task.JobID),
			)
			r.process(ctx, task)
		}
	}
}
