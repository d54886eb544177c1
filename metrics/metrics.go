package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the core's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	RoutingDecisions  *prometheus.CounterVec
	SLABreaches       *prometheus.CounterVec
	SweepDuration     prometheus.Histogram
	SweepComplaints   prometheus.Counter
	Escalations       *prometheus.CounterVec
	Approvals         *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RoutingDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaintdesk_routing_decisions_total",
			Help: "Routing decisions by the resolver that produced them.",
		}, []string{"source"}),
		SLABreaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaintdesk_sla_breaches_total",
			Help: "Newly flagged SLA breaches by dimension.",
		}, []string{"dimension"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "complaintdesk_sla_sweep_duration_seconds",
			Help:    "Duration of SLA sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
		SweepComplaints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "complaintdesk_sla_sweep_complaints_total",
			Help: "Open complaints examined by SLA sweeps.",
		}),
		Escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaintdesk_escalations_total",
			Help: "Escalations by target level and trigger.",
		}, []string{"level", "trigger"}),
		Approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaintdesk_approvals_total",
			Help: "Approval workflow actions by outcome.",
		}, []string{"outcome"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaintdesk_notifications_total",
			Help: "Notification attempts by kind and status.",
		}, []string{"kind", "status"}),
	}

	collectors := []prometheus.Collector{
		m.RoutingDecisions,
		m.SLABreaches,
		m.SweepDuration,
		m.SweepComplaints,
		m.Escalations,
		m.Approvals,
		m.NotificationsSent,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) RoutingDecision(source string) {
	if m == nil {
		return
	}
	m.RoutingDecisions.WithLabelValues(source).Inc()
}

func (m *Metrics) SLABreach(dimension string) {
	if m == nil {
		return
	}
	m.SLABreaches.WithLabelValues(dimension).Inc()
}

// Sweep records one finished sweep.
func (m *Metrics) Sweep(started time.Time, examined int) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(time.Since(started).Seconds())
	m.SweepComplaints.Add(float64(examined))
}

func (m *Metrics) Escalation(level int, trigger string) {
	if m == nil {
		return
	}
	m.Escalations.WithLabelValues(strconv.Itoa(level), trigger).Inc()
}

func (m *Metrics) Approval(outcome string) {
	if m == nil {
		return
	}
	m.Approvals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Notification(kind, status string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind, status).Inc()
}
