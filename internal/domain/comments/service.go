package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/Togather-Foundation/meetups/internal/sanitize"
	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Add(ctx context.Context, userID, eventID int64, params NewComment) (*Comment, error) {
	return s.create(ctx, userID, eventID, nil, params)
}

func (s *Service) Reply(ctx context.Context, userID, eventID, parentID int64, params NewComment) (*Comment, error) {
	return s.create(ctx, userID, eventID, &parentID, params)
}

func (s *Service) create(ctx context.Context, userID, eventID int64, parentID *int64, params NewComment) (*Comment, error) {
	text := sanitize.Text(params.Text)
	if text == "" {
		return nil, errs.Validation("Comment text must not be blank")
	}

	var created *Comment
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := requireUser(ctx, repo, userID); err != nil {
			return err
		}
		event, err := repo.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if parentID != nil {
			parent, err := repo.GetByID(ctx, *parentID)
			if errors.Is(err, errs.ErrNotFound) {
				return errs.NotFound("Parent comment with id=%d was not found", *parentID)
			}
			if err != nil {
				return err
			}
			if parent.EventID != eventID {
				return errs.NotFound("Parent comment with id=%d was not found for event id=%d", *parentID, eventID)
			}
			// A reply must never be visible under a hidden parent.
			if parent.Deleted {
				return errs.Conflict("Comment with id=%d is deleted and can not be replied to", *parentID)
			}
		}
		if event.CommentsDisabled {
			return errs.Conflict("Comments are disabled for event id=%d", eventID)
		}
		created, err = repo.Create(ctx, userID, eventID, parentID, text, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("comment_id", created.ID).Int64("event_id", eventID).Msg("comment added")
	return created, nil
}

func (s *Service) UpdateText(ctx context.Context, userID, eventID, commentID int64, text string) (*Comment, error) {
	if err := s.requireUserAndEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	comment, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, errs.Forbidden("User with id=%d is not the author of comment id=%d", userID, commentID)
	}
	if comment.EventID != eventID {
		return nil, errs.Forbidden("Comment with id=%d is not for event id=%d", commentID, eventID)
	}
	text = sanitize.Text(text)
	if text == "" {
		return nil, errs.Validation("Comment text must not be blank")
	}
	if strings.EqualFold(strings.TrimSpace(comment.Text), text) {
		return nil, errs.Conflict("Nothing to change")
	}
	return s.repo.UpdateText(ctx, commentID, text)
}

// SetStatus deletes or restores a comment together with its reply subtree.
func (s *Service) SetStatus(ctx context.Context, userID, eventID, commentID int64, command StatusCommand) (*Comment, error) {
	if command != CommandDelete && command != CommandRestore {
		return nil, errs.Validation("Unknown comment command: %s", command)
	}

	var (
		result  *Comment
		touched int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := requireUser(ctx, repo, userID); err != nil {
			return err
		}
		if _, err := repo.LockEvent(ctx, eventID); err != nil {
			return err
		}
		comment, err := repo.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.AuthorID != userID {
			return errs.Forbidden("User with id=%d is not the author of comment id=%d", userID, commentID)
		}
		if comment.EventID != eventID {
			return errs.Forbidden("Comment with id=%d is not for event id=%d", commentID, eventID)
		}
		if command == CommandRestore && comment.ParentID != nil {
			parent, err := repo.GetByID(ctx, *comment.ParentID)
			if err != nil {
				return err
			}
			if parent.Deleted {
				return errs.Conflict("Comment with id=%d can not be restored: it replies to a deleted comment", commentID)
			}
		}

		deleted := command == CommandDelete
		ids, err := collectSubtree(ctx, repo, commentID, deleted)
		if err != nil {
			return err
		}
		if err := repo.SetDeleted(ctx, ids, deleted); err != nil {
			return err
		}
		touched = len(ids)
		comment.Deleted = deleted
		result = comment
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CommentCascadeSize.WithLabelValues(strings.ToLower(string(command))).Observe(float64(touched))
	zerolog.Ctx(ctx).Info().
		Int64("comment_id", commentID).
		Str("command", string(command)).
		Int("affected", touched).
		Msg("comment status changed")
	return result, nil
}

// collectSubtree walks the reply tree under rootID depth-first and returns
// the root plus every descendant not already in the target state. A node
// already in the target state is skipped together with its replies. The
// visited set keeps malformed parent links from looping.
func collectSubtree(ctx context.Context, repo Repository, rootID int64, deleted bool) ([]int64, error) {
	ids := []int64{rootID}
	visited := map[int64]struct{}{rootID: {}}
	stack := []int64{rootID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		replies, err := repo.ListReplies(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, reply := range replies {
			if _, seen := visited[reply.ID]; seen {
				continue
			}
			visited[reply.ID] = struct{}{}
			if reply.Deleted == deleted {
				continue
			}
			ids = append(ids, reply.ID)
			stack = append(stack, reply.ID)
		}
	}
	return ids, nil
}

func (s *Service) ListByEvent(ctx context.Context, userID, eventID int64, page paging.Page) ([]Comment, error) {
	if err := s.requireUserAndEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID, page.Normalize())
}

func (s *Service) ListByAuthor(ctx context.Context, userID int64, visibility Visibility, page paging.Page) ([]Comment, error) {
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByAuthor(ctx, userID, visibility, page.Normalize())
}

func (s *Service) SetEventCommentsSetting(ctx context.Context, userID, eventID int64, setting Setting) (*events.Event, error) {
	var updated *events.Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := requireUser(ctx, repo, userID); err != nil {
			return err
		}
		event, err := repo.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.InitiatorID != userID {
			return errs.Forbidden("User with id=%d not allowed to update comment settings", userID)
		}
		switch setting {
		case SettingDisable:
			if event.CommentsDisabled {
				return errs.Conflict("Comments are already disabled")
			}
		case SettingEnable:
			if !event.CommentsDisabled {
				return errs.Conflict("Comments are already enabled")
			}
		default:
			return errs.Validation("Unknown comments setting: %s", setting)
		}
		updated, err = repo.SetCommentsDisabled(ctx, eventID, setting == SettingDisable)
		return err
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("event_id", eventID).Str("setting", string(setting)).Msg("comment setting updated")
	return updated, nil
}

func (s *Service) requireUserAndEvent(ctx context.Context, userID, eventID int64) error {
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return err
	}
	_, err := s.repo.GetEvent(ctx, eventID)
	return err
}

func requireUser(ctx context.Context, repo Repository, id int64) error {
	ok, err := repo.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("User with id=%d was not found", id)
	}
	return nil
}
