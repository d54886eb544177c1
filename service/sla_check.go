package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"complaintdesk/models"
)

// CheckOptions selects what an SLA check does beyond flagging breaches.
type CheckOptions struct {
	Notify   bool
	Escalate bool
}

// SLACheck composes a sweep with optional breach notifications and
// auto-escalation. It backs the worker, the CLI and the admin endpoint.
type SLACheck struct {
	monitor    *SLAMonitor
	escalation *EscalationService
	notifier   Notifier
	log        zerolog.Logger
}

// NewSLACheck creates a new SLA check runner
func NewSLACheck(monitor *SLAMonitor, escalation *EscalationService, notifier Notifier, log zerolog.Logger) *SLACheck {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SLACheck{
		monitor:    monitor,
		escalation: escalation,
		notifier:   notifier,
		log:        log.With().Str("component", "sla_check").Logger(),
	}
}

// followUpTimeout bounds notification and escalation after an interrupted sweep.
const followUpTimeout = 30 * time.Second

// Run sweeps once, then notifies the complaints this sweep flagged and
// escalates every breached complaint below dean level.
//
// When the sweep stops early (cancellation, a dropped connection) the breach
// flags it already committed are never flagged again, so those complaints are
// still notified and escalated before the sweep error is returned alongside
// the partial result.
func (r *SLACheck) Run(ctx context.Context, opts CheckOptions) (*models.SweepResult, error) {
	checked, breached, sweepErr := r.monitor.sweep(ctx)
	if sweepErr != nil && len(breached) == 0 {
		return nil, sweepErr
	}

	followUp := ctx
	if sweepErr != nil {
		var cancel context.CancelFunc
		followUp, cancel = context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
		defer cancel()
		r.log.Warn().Err(sweepErr).
			Int("breached", len(breached)).
			Msg("SLA sweep interrupted, finishing flagged complaints")
	}

	result := &models.SweepResult{Checked: checked, Breached: make([]int64, 0, len(breached))}
	for _, c := range breached {
		result.Breached = append(result.Breached, c.ComplaintID)
	}

	if opts.Notify {
		for _, c := range breached {
			r.notifier.Notify(followUp, c, models.NotifySLABreached, map[string]string{
				"response_breached":   strconv.FormatBool(c.SLAResponseBreached),
				"resolution_breached": strconv.FormatBool(c.SLAResolutionBreached),
			})
			result.Notified++
		}
	}
	if opts.Escalate && r.escalation != nil {
		n, err := r.escalation.AutoEscalate(followUp)
		result.Escalated = n
		if err != nil && sweepErr == nil {
			return result, err
		}
		if err != nil {
			r.log.Error().Err(err).Msg("auto-escalation failed after interrupted sweep")
		}
	}

	r.log.Info().
		Int("checked", result.Checked).
		Int("breached", len(result.Breached)).
		Int("escalated", result.Escalated).
		Int("notified", result.Notified).
		Msg("SLA check completed")
	return result, sweepErr
}
