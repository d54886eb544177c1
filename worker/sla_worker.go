package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"complaintdesk/models"
	"complaintdesk/service"
)

// Checker runs one SLA check.
type Checker interface {
	Run(ctx context.Context, opts service.CheckOptions) (*models.SweepResult, error)
}

// SLAWorker is a background worker that periodically sweeps open complaints
// for SLA breaches and, when configured, notifies and escalates.
type SLAWorker struct {
	checker  Checker
	opts     service.CheckOptions
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSLAWorker creates a new SLA worker
func NewSLAWorker(checker Checker, opts service.CheckOptions, interval time.Duration, log zerolog.Logger) *SLAWorker {
	return &SLAWorker{
		checker:  checker,
		opts:     opts,
		interval: interval,
		log:      log.With().Str("component", "sla_worker").Logger(),
	}
}

// Start runs the worker in its own goroutine. It sweeps immediately, then on
// every tick.
func (w *SLAWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		w.log.Warn().Msg("SLA worker is already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	w.log.Info().
		Dur("interval", w.interval).
		Bool("notify", w.opts.Notify).
		Bool("escalate", w.opts.Escalate).
		Msg("SLA worker started")

	go w.run(ctx, w.done)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (w *SLAWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	w.log.Info().Msg("Stopping SLA worker...")
	cancel()
	<-done
	w.log.Info().Msg("SLA worker stopped")
}

func (w *SLAWorker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce performs a single sweep. Errors are logged; the next tick retries.
func (w *SLAWorker) RunOnce(ctx context.Context) {
	start := time.Now()
	result, err := w.checker.Run(ctx, w.opts)
	if err != nil {
		ev := w.log.Error().Err(err)
		if result != nil {
			ev = ev.Int("breached", len(result.Breached)).Int("escalated", result.Escalated)
		}
		ev.Msg("SLA sweep failed")
		return
	}
	w.log.Info().
		Int("checked", result.Checked).
		Int("breached", len(result.Breached)).
		Int("notified", result.Notified).
		Int("escalated", result.Escalated).
		Dur("duration", time.Since(start)).
		Msg("SLA sweep completed")
}
