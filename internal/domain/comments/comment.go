// Package comments implements event discussion threads and their moderation.
package comments

import (
	"context"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
)

type Comment struct {
	ID         int64
	AuthorID   int64
	AuthorName string
	EventID    int64
	ParentID   *int64
	Text       string
	Deleted    bool
	Edited     bool
	CreatedOn  time.Time
}

type NewComment struct {
	Text string
}

type StatusCommand string

const (
	CommandDelete  StatusCommand = "DELETE"
	CommandRestore StatusCommand = "RESTORE"
)

func ParseStatusCommand(raw string) (StatusCommand, error) {
	switch StatusCommand(strings.ToUpper(strings.TrimSpace(raw))) {
	case CommandDelete:
		return CommandDelete, nil
	case CommandRestore:
		return CommandRestore, nil
	}
	return "", errs.Validation("Unknown comment command: %s", raw)
}

type Visibility string

const (
	ShowAll     Visibility = "SHOW_ALL"
	ShowActive  Visibility = "SHOW_ACTIVE"
	ShowDeleted Visibility = "SHOW_DELETED"
)

// ParseVisibility accepts SHOW_ALL, SHOW_ACTIVE, SHOW_DELETED and the short forms ALL, ACTIVE, DELETED.
func ParseVisibility(raw string) (Visibility, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	switch strings.TrimPrefix(token, "SHOW_") {
	case "", "ALL":
		return ShowAll, nil
	case "ACTIVE":
		return ShowActive, nil
	case "DELETED":
		return ShowDeleted, nil
	}
	return "", errs.Validation("Unknown comments parameter: %s", raw)
}

type Setting string

const (
	SettingEnable  Setting = "ENABLE_COMMENTS"
	SettingDisable Setting = "DISABLE_COMMENTS"
)

// ParseSetting accepts ENABLE/DISABLE with or without the _COMMENTS suffix.
func ParseSetting(raw string) (Setting, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	switch strings.TrimSuffix(token, "_COMMENTS") {
	case "ENABLE":
		return SettingEnable, nil
	case "DISABLE":
		return SettingDisable, nil
	}
	return "", errs.Validation("Unknown comments setting: %s", raw)
}

// Repository is the comment store. LockEvent must be called inside WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error

	UserExists(ctx context.Context, id int64) (bool, error)
	GetEvent(ctx context.Context, id int64) (*events.Event, error)
	LockEvent(ctx context.Context, id int64) (*events.Event, error)
	SetCommentsDisabled(ctx context.Context, eventID int64, disabled bool) (*events.Event, error)

	Create(ctx context.Context, authorID, eventID int64, parentID *int64, text string, createdOn time.Time) (*Comment, error)
	GetByID(ctx context.Context, id int64) (*Comment, error)
	// ListReplies returns the direct replies of a comment, deleted or not.
	ListReplies(ctx context.Context, parentID int64) ([]Comment, error)
	SetDeleted(ctx context.Context, ids []int64, deleted bool) error
	UpdateText(ctx context.Context, id int64, text string) (*Comment, error)

	// ListByEvent returns non-deleted comments, newest first.
	ListByEvent(ctx context.Context, eventID int64, page paging.Page) ([]Comment, error)
	// ListByAuthor returns the author's comments, newest first.
	ListByAuthor(ctx context.Context, authorID int64, visibility Visibility, page paging.Page) ([]Comment, error)
}
