package notification

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"complaintdesk/config"
	"complaintdesk/metrics"
	"complaintdesk/models"
)

// LogStore persists one row per notification attempt.
type LogStore interface {
	Create(ctx context.Context, log *models.NotificationLog) error
	UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus, errorMessage string) error
}

// UserLookup resolves notification recipients.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

const sendTimeout = time.Minute

// Dispatcher renders complaint notifications, logs them and sends them in the
// background. Notify never blocks on delivery and never fails the caller.
type Dispatcher struct {
	logs        LogStore
	users       UserLookup
	sender      Sender
	shadow      bool
	frontendURL string
	metrics     *metrics.Metrics
	log         zerolog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(
	logs LogStore,
	users UserLookup,
	sender Sender,
	cfg config.NotificationConfig,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		logs:        logs,
		users:       users,
		sender:      sender,
		shadow:      cfg.ShadowMode(),
		frontendURL: strings.TrimSuffix(cfg.FrontendURL, "/"),
		metrics:     m,
		log:         log.With().Str("component", "notification").Logger(),
	}
}

// Notify sends kind about c to every resolved recipient.
func (d *Dispatcher) Notify(ctx context.Context, c *models.Complaint, kind models.NotificationKind, extra map[string]string) {
	if c == nil {
		return
	}
	recipients := d.recipients(ctx, c, kind, extra)
	if len(recipients) == 0 {
		d.log.Debug().Int64("complaint_id", c.ComplaintID).Str("kind", string(kind)).Msg("no recipients")
		return
	}

	for _, u := range recipients {
		msg, err := d.render(c, kind, u, extra)
		if err != nil {
			d.log.Error().Err(err).Int64("complaint_id", c.ComplaintID).Str("kind", string(kind)).Msg("failed to render notification")
			continue
		}
		entry := &models.NotificationLog{
			ComplaintID: c.ComplaintID,
			EventKind:   kind,
			Recipient:   msg.To,
			Subject:     msg.Subject,
			Body:        msg.Body,
			Status:      models.NotificationStatusPending,
		}
		if err := d.logs.Create(ctx, entry); err != nil {
			d.log.Error().Err(err).Int64("complaint_id", c.ComplaintID).Msg("failed to log notification")
			continue
		}

		d.wg.Add(1)
		go d.deliver(entry, msg)
	}
}

// Wait blocks until in-flight sends finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(entry *models.NotificationLog, msg *Message) {
	defer d.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	status := models.NotificationStatusSent
	if d.shadow {
		status = models.NotificationStatusShadow
	}
	errMsg := ""
	if err := d.sender.Send(ctx, msg); err != nil {
		status = models.NotificationStatusFailed
		errMsg = err.Error()
		d.log.Warn().Err(err).Int64("complaint_id", entry.ComplaintID).Str("kind", string(entry.EventKind)).Msg("notification send failed")
	}
	if err := d.logs.UpdateStatus(ctx, entry.ID, status, errMsg); err != nil {
		d.log.Error().Err(err).Int64("notification_id", entry.ID).Msg("failed to update notification status")
	}
	d.metrics.Notification(string(entry.EventKind), string(status))
}

// recipients picks who hears about kind: the submitter for lifecycle updates,
// the new owner for assignment and escalation, and the named approver for
// approval requests. Inactive users and users without email are dropped.
func (d *Dispatcher) recipients(ctx context.Context, c *models.Complaint, kind models.NotificationKind, extra map[string]string) []*models.User {
	var ids []int64
	add := func(v sql.NullInt64) {
		if v.Valid {
			ids = append(ids, v.Int64)
		}
	}

	switch kind {
	case models.NotifyAssigned:
		add(c.AssignedToID)
	case models.NotifyEscalated:
		add(c.EscalatedToID)
	case models.NotifySLABreached:
		add(c.AssignedToID)
		add(c.EscalatedToID)
	case models.NotifyApprovalAsked:
		if id, err := strconv.ParseInt(extra["recipient_user_id"], 10, 64); err == nil {
			ids = append(ids, id)
		}
	default:
		add(c.SubmitterID)
	}

	seen := make(map[int64]bool, len(ids))
	var out []*models.User
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := d.users.GetUser(ctx, id)
		if err != nil {
			d.log.Warn().Err(err).Int64("user_id", id).Msg("Skipping recipient")
			continue
		}
		if !u.IsActive || u.Email == "" {
			continue
		}
		out = append(out, u)
	}
	return out
}

type templateData struct {
	Complaint *models.Complaint
	Recipient string
	Extra     map[string]string
	Link      string
}

var subjects = map[models.NotificationKind]string{
	models.NotifyAssigned:      "Complaint assigned - {{.Complaint.TrackingID}}",
	models.NotifyStatusChanged: "Complaint status update - {{.Complaint.TrackingID}}",
	models.NotifyReviewed:      "Your complaint has been reviewed - {{.Complaint.TrackingID}}",
	models.NotifyRejected:      "Complaint status update - {{.Complaint.TrackingID}}",
	models.NotifyResolved:      "Your complaint has been resolved - {{.Complaint.TrackingID}}",
	models.NotifyEscalated:     "Complaint escalated to you - {{.Complaint.TrackingID}}",
	models.NotifySLABreached:   "SLA breached - {{.Complaint.TrackingID}}",
	models.NotifyApprovalAsked: "Approval requested - {{.Complaint.TrackingID}}",
}

var bodies = map[models.NotificationKind]string{
	models.NotifyAssigned: `Dear {{.Recipient}},

Complaint {{.Complaint.TrackingID}} "{{.Complaint.Title}}" has been assigned to you.
Priority: {{.Complaint.Priority}}
{{with .Extra.routing_notes}}Routing: {{.}}
{{end}}
Open: {{.Link}}`,
	models.NotifyStatusChanged: `Dear {{.Recipient}},

The status of your complaint {{.Complaint.TrackingID}} changed from {{.Extra.old_status}} to {{.Extra.new_status}}.
{{with .Extra.note}}Note: {{.}}
{{end}}
Track it at: {{.Link}}`,
	models.NotifyReviewed: `Dear {{.Recipient}},

Your complaint {{.Complaint.TrackingID}} "{{.Complaint.Title}}" has been reviewed.
{{.Extra.additional_message}}

Track it at: {{.Link}}`,
	models.NotifyRejected: `Dear {{.Recipient}},

We have reviewed your complaint {{.Complaint.TrackingID}} and cannot proceed with it.
Reason: {{or .Extra.reason .Extra.note}}

Track it at: {{.Link}}`,
	models.NotifyResolved: `Dear {{.Recipient}},

Your complaint {{.Complaint.TrackingID}} "{{.Complaint.Title}}" has been resolved.
{{with .Extra.note}}Resolution notes: {{.}}
{{end}}
Track it at: {{.Link}}`,
	models.NotifyEscalated: `Dear {{.Recipient}},

Complaint {{.Complaint.TrackingID}} "{{.Complaint.Title}}" has been escalated to you ({{.Extra.level}}).
Reason: {{.Extra.reason}}

Open: {{.Link}}`,
	models.NotifySLABreached: `Dear {{.Recipient}},

Complaint {{.Complaint.TrackingID}} "{{.Complaint.Title}}" is past its SLA.
Response breached: {{.Extra.response_breached}}
Resolution breached: {{.Extra.resolution_breached}}

Open: {{.Link}}`,
	models.NotifyApprovalAsked: `Dear {{.Recipient}},

Your approval is requested for complaint {{.Complaint.TrackingID}} "{{.Complaint.Title}}".

Open: {{.Link}}`,
}

var (
	subjectTemplates = parseAll(subjects)
	bodyTemplates    = parseAll(bodies)
)

func parseAll(src map[models.NotificationKind]string) map[models.NotificationKind]*template.Template {
	out := make(map[models.NotificationKind]*template.Template, len(src))
	for kind, text := range src {
		out[kind] = template.Must(template.New(string(kind)).Option("missingkey=zero").Parse(text))
	}
	return out
}

func (d *Dispatcher) render(c *models.Complaint, kind models.NotificationKind, to *models.User, extra map[string]string) (*Message, error) {
	subject, ok := subjectTemplates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown notification kind %q", kind)
	}
	data := templateData{
		Complaint: c,
		Recipient: to.DisplayName(),
		Extra:     extra,
		Link:      fmt.Sprintf("%s/complaints/%s", d.frontendURL, c.TrackingID),
	}
	if data.Extra == nil {
		data.Extra = map[string]string{}
	}

	var s, b bytes.Buffer
	if err := subject.Execute(&s, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := bodyTemplates[kind].Execute(&b, data); err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}
	return &Message{To: to.Email, Subject: s.String(), Body: b.String()}, nil
}
