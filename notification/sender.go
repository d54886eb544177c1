package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"complaintdesk/config"
)

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

const (
	sendGridURL        = "https://api.sendgrid.com/v3/mail/send"
	maxSendGridRetries = 3
)

// EmailSender sends email through SendGrid. In shadow mode every message goes
// to the shadow address, or nowhere when none is configured. Without an API
// key sends are no-ops.
type EmailSender struct {
	apiKey     string
	fromEmail  string
	fromName   string
	shadow     bool
	shadowAddr string

	client  *http.Client
	url     string
	backoff time.Duration
}

// NewEmailSender creates an email sender from notification config
func NewEmailSender(cfg config.NotificationConfig) *EmailSender {
	s := &EmailSender{
		apiKey:    cfg.SendGridAPIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    &http.Client{Timeout: 15 * time.Second},
		url:       sendGridURL,
		backoff:   time.Second,
	}
	if cfg.ShadowMode() {
		s.shadow = true
		s.shadowAddr = cfg.ShadowAddress
	}
	return s
}

// Validate checks the message can be delivered
func (s *EmailSender) Validate(msg *Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrInvalidRecipient
	}
	return nil
}

// Send delivers msg. Retries are internal; the caller decides whether to block.
func (s *EmailSender) Send(ctx context.Context, msg *Message) error {
	if err := s.Validate(msg); err != nil {
		return err
	}
	if s.shadow {
		msg.To = s.shadowAddr
	}
	if s.apiKey == "" || msg.To == "" {
		return nil
	}
	return s.sendViaSendGrid(ctx, msg)
}

func (s *EmailSender) sendViaSendGrid(ctx context.Context, msg *Message) error {
	body := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]interface{}{{"email": msg.To}}},
		},
		"from":    map[string]string{"email": s.fromEmail, "name": s.fromName},
		"subject": msg.Subject,
		"content": []map[string]string{{"type": "text/plain", "value": msg.Body}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode sendgrid payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxSendGridRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build sendgrid request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("sendgrid status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}
	return &NotificationError{Message: "sendgrid send failed", Err: lastErr}
}

// Errors
var (
	ErrInvalidRecipient = &NotificationError{Message: "invalid recipient"}
)

// NotificationError represents a notification error
type NotificationError struct {
	Message string
	Err     error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
