// Package email sends participation status emails through Resend.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/rs/zerolog"
)

// Service renders and sends transactional emails.
type Service struct {
	config    config.EmailConfig
	sender    *resendSender
	templates *template.Template
	logger    zerolog.Logger
}

// StatusData holds data for rendering the participation status template
type StatusData struct {
	RecipientName string
	EventTitle    string
	EventID       int64
	RequestID     int64
	Status        string
	CurrentYear   int
}

var templates = template.Must(template.New("participation_status.html").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello {{.RecipientName}},</p>
{{- if eq .Status "CONFIRMED"}}
<p>Your request to join <strong>{{.EventTitle}}</strong> has been confirmed. See you there!</p>
{{- else if eq .Status "REJECTED"}}
<p>Your request to join <strong>{{.EventTitle}}</strong> was not accepted.</p>
{{- else if eq .Status "CANCELED"}}
<p>Your request to join <strong>{{.EventTitle}}</strong> has been canceled.</p>
{{- else}}
<p>Your request to join <strong>{{.EventTitle}}</strong> is waiting for the organizer's decision.</p>
{{- end}}
<p style="color:#888">Request #{{.RequestID}} for event #{{.EventID}}. &copy; {{.CurrentYear}} Meetups</p>
</body>
</html>`))

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	svc := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled && cfg.ResendAPIKey != "" {
		svc.sender = newResendSender(cfg.ResendAPIKey, cfg.From)
	}
	return svc, nil
}

// SendParticipationStatus tells a requester about the new status of their request.
func (s *Service) SendParticipationStatus(ctx context.Context, to string, data StatusData) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Debug().
			Str("to", to).
			Int64("request_id", data.RequestID).
			Str("status", data.Status).
			Msg("email service disabled, skipping participation email")
		return nil
	}

	if data.CurrentYear == 0 {
		data.CurrentYear = time.Now().Year()
	}
	htmlBody, err := s.renderTemplate("participation_status.html", data)
	if err != nil {
		return fmt.Errorf("failed to render participation template: %w", err)
	}

	if s.sender == nil {
		return fmt.Errorf("email enabled but no Resend API key configured")
	}
	id, err := s.sender.send(ctx, message{
		To:      to,
		Subject: fmt.Sprintf("%s: your request is %s", data.EventTitle, strings.ToLower(data.Status)),
		HTML:    htmlBody,
		Tags: map[string]string{
			"kind":   "participation_status",
			"status": strings.ToLower(data.Status),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send participation email: %w", err)
	}
	s.logger.Info().
		Str("email_id", id).
		Int64("request_id", data.RequestID).
		Str("status", data.Status).
		Msg("participation email sent")
	return nil
}

// validateEmailAddress validates an email address for format and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

func (s *Service) renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
