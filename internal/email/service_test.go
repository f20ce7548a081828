package email

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmailAddress(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"user@example.com", false},
		{"user+tag@example.co.uk", false},
		{"User Name <user@example.com>", false},
		{"user@[192.168.1.1]", false},
		{"", true},
		{"notanemail", true},
		{"@example.com", true},
		{"user@", true},
		{"user@@example.com", true},
		{"victim@example.com\r\nBcc: attacker@evil.com", true},
		{"test@example.com\nCc: hacker@evil.com", true},
		{"user@domain.com\rX-Mailer: Evil", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := validateEmailAddress(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewServiceRejectsBadSender(t *testing.T) {
	_, err := NewService(config.EmailConfig{Enabled: true, From: "not an address", ResendAPIKey: "k"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sender email")
}

func TestSendParticipationStatusDisabledIsNoop(t *testing.T) {
	svc, err := NewService(config.EmailConfig{Enabled: false}, zerolog.New(io.Discard))
	require.NoError(t, err)

	err = svc.SendParticipationStatus(context.Background(), "user@example.com", StatusData{
		EventTitle: "Go meetup",
		Status:     "CONFIRMED",
	})
	assert.NoError(t, err)
}

func TestSendParticipationStatusValidatesRecipient(t *testing.T) {
	svc, err := NewService(config.EmailConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)

	err = svc.SendParticipationStatus(context.Background(), "bad\r\naddress", StatusData{})
	assert.Error(t, err)
}

func TestRenderParticipationTemplate(t *testing.T) {
	svc, err := NewService(config.EmailConfig{}, zerolog.Nop())
	require.NoError(t, err)

	tests := []struct {
		status string
		want   string
	}{
		{"CONFIRMED", "has been confirmed"},
		{"REJECTED", "was not accepted"},
		{"CANCELED", "has been canceled"},
		{"PENDING", "waiting for the organizer"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			body, err := svc.renderTemplate("participation_status.html", StatusData{
				RecipientName: "Ann",
				EventTitle:    "<b>Go</b> meetup",
				EventID:       7,
				RequestID:     42,
				Status:        tt.status,
				CurrentYear:   2026,
			})
			require.NoError(t, err)
			assert.Contains(t, body, tt.want)
			assert.Contains(t, body, "Request #42 for event #7")
			assert.False(t, strings.Contains(body, "<b>Go</b>"), "title must be escaped")
		})
	}
}
