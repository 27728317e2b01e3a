// Package worker runs the executor loop that drains the task queue and
// invokes the analysis engine.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pdf-analysis-service/internal/analyzer"
	"pdf-analysis-service/internal/jobstore"
	"pdf-analysis-service/internal/telemetry"
)

// Processor pulls tasks from the store and delegates each to the engine. One
// task is processed fully before the next is taken; throughput scales by
// running more worker processes.
type Processor struct {
	store        jobstore.Store
	engine       analyzer.Engine
	pollInterval time.Duration
	log          zerolog.Logger
}

// New constructs a processor.
func New(store jobstore.Store, engine analyzer.Engine, pollInterval time.Duration, log zerolog.Logger) *Processor {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Processor{
		store:        store,
		engine:       engine,
		pollInterval: pollInterval,
		log:          log,
	}
}

// Run starts the main worker loop until context cancellation.
func (p *Processor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if depth, err := p.store.QueueDepth(ctx); err == nil {
			telemetry.QueueDepthGauge.Set(float64(depth))
		}

		task, err := p.store.Dequeue(ctx)
		if err != nil {
			p.log.Error().Err(err).Msg("dequeue failed")
			p.sleep(ctx)
			continue
		}
		if task == nil {
			p.sleep(ctx)
			continue
		}

		p.process(ctx, task)
	}
}

// process runs a single task to a terminal state. Every failure path ends in
// MarkFailure so the error is retrievable through the status endpoint; nothing
// is retried.
func (p *Processor) process(ctx context.Context, task *jobstore.Task) {
	log := p.log.With().Str("task_id", task.ID).Str("pdf", task.Spec.PDFPath).Logger()
	log.Info().Msg("task received")

	if err := p.store.MarkStarted(ctx, task.ID); err != nil {
		log.Error().Err(err).Msg("failed to mark task started")
		return
	}

	telemetry.TasksInProgress.Inc()
	defer telemetry.TasksInProgress.Dec()

	summary, err := p.engine.Analyze(ctx, task.Spec.PDFPath, task.Spec.OutputDir)
	if err != nil {
		log.Error().Err(err).Str("output_dir", task.Spec.OutputDir).Msg("analysis failed")
		if markErr := p.store.MarkFailure(ctx, task.ID, err.Error()); markErr != nil {
			log.Error().Err(markErr).Msg("failed to record task failure")
		}
		telemetry.TasksFailed.Inc()
		return
	}

	if err := p.store.MarkSuccess(ctx, task.ID, summary); err != nil {
		log.Error().Err(err).Msg("failed to record task success")
		return
	}
	telemetry.TasksSucceeded.Inc()
	log.Info().Str("mode", string(summary.AnalysisMode)).Msg("task completed")
}

func (p *Processor) sleep(ctx context.Context) {
	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
