package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// message is one rendered email ready for delivery.
type message struct {
	To      string
	Subject string
	HTML    string
	// Tags end up on the Resend dashboard and webhooks.
	Tags map[string]string
}

// resendSender delivers messages through the Resend API. A rate-limited
// send fails fast so the participation_status job is retried by the queue.
type resendSender struct {
	client *resend.Client
	from   string
}

func newResendSender(apiKey, from string) *resendSender {
	return &resendSender{client: resend.NewClient(apiKey), from: from}
}

// send returns the Resend message id.
func (r *resendSender) send(ctx context.Context, m message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
	}
	for name, value := range m.Tags {
		params.Tags = append(params.Tags, resend.Tag{Name: name, Value: value})
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var limited *resend.RateLimitError
		if errors.As(err, &limited) {
			return "", fmt.Errorf("resend rate limited, reset in %ss: %w", limited.Reset, err)
		}
		return "", fmt.Errorf("resend API error: %w", err)
	}
	return sent.Id, nil
}
