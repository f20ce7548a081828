package notify

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/meetups/internal/domain/users"
	"github.com/Togather-Foundation/meetups/internal/email"
)

type UserLookup interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

type Mailer interface {
	SendParticipationStatus(ctx context.Context, to string, data email.StatusData) error
}

// EmailPublisher emails the requester about the status of their request.
type EmailPublisher struct {
	users  UserLookup
	mailer Mailer
}

func NewEmailPublisher(users UserLookup, mailer Mailer) *EmailPublisher {
	return &EmailPublisher{users: users, mailer: mailer}
}

func (p *EmailPublisher) Publish(ctx context.Context, msg Message) error {
	user, err := p.users.Get(ctx, msg.RequesterID)
	if err != nil {
		return fmt.Errorf("look up requester %d: %w", msg.RequesterID, err)
	}
	return p.mailer.SendParticipationStatus(ctx, user.Email, email.StatusData{
		RecipientName: user.Name,
		EventTitle:    msg.EventTitle,
		EventID:       msg.EventID,
		RequestID:     msg.RequestID,
		Status:        msg.Status,
		CurrentYear:   msg.ChangedAt.Year(),
	})
}
