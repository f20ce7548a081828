package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/comments"
	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
)

type CommentRepository struct {
	view
}

func (r *CommentRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo comments.Repository) error) error {
	return r.inTx(func(tx view) error {
		return fn(ctx, &CommentRepository{tx})
	})
}

func (r *CommentRepository) UserExists(_ context.Context, id int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		ok = st.userExists(id)
		return nil
	})
	return ok, err
}

func (r *CommentRepository) GetEvent(_ context.Context, id int64) (*events.Event, error) {
	var out *events.Event
	err := r.read(func(st *state) (err error) {
		out, err = st.getEvent(id)
		return err
	})
	return out, err
}

func (r *CommentRepository) LockEvent(ctx context.Context, id int64) (*events.Event, error) {
	return r.GetEvent(ctx, id)
}

func (r *CommentRepository) SetCommentsDisabled(_ context.Context, eventID int64, disabled bool) (*events.Event, error) {
	var out *events.Event
	err := r.write(func(st *state) error {
		e, ok := st.events[eventID]
		if !ok {
			return errs.NotFound("Event with id=%d was not found", eventID)
		}
		e.CommentsDisabled = disabled
		st.events[eventID] = e
		out = st.eventOut(e)
		return nil
	})
	return out, err
}

func (r *CommentRepository) Create(_ context.Context, authorID, eventID int64, parentID *int64, text string, createdOn time.Time) (*comments.Comment, error) {
	var out *comments.Comment
	err := r.write(func(st *state) error {
		c := comments.Comment{
			ID:        st.nextID("comments"),
			AuthorID:  authorID,
			EventID:   eventID,
			Text:      text,
			CreatedOn: createdOn,
		}
		if parentID != nil {
			if _, ok := st.comments[*parentID]; !ok {
				return errs.NotFound("Parent comment with id=%d was not found", *parentID)
			}
			parent := *parentID
			c.ParentID = &parent
		}
		st.comments[c.ID] = c
		out = st.commentOut(c)
		return nil
	})
	return out, err
}

func (r *CommentRepository) GetByID(_ context.Context, id int64) (*comments.Comment, error) {
	var out *comments.Comment
	err := r.read(func(st *state) error {
		c, ok := st.comments[id]
		if !ok {
			return errs.NotFound("Comment with id=%d was not found", id)
		}
		out = st.commentOut(c)
		return nil
	})
	return out, err
}

func (r *CommentRepository) ListReplies(_ context.Context, parentID int64) ([]comments.Comment, error) {
	out := []comments.Comment{}
	err := r.read(func(st *state) error {
		for _, c := range st.comments {
			if c.ParentID != nil && *c.ParentID == parentID {
				out = append(out, *st.commentOut(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *CommentRepository) SetDeleted(_ context.Context, ids []int64, deleted bool) error {
	if len(ids) == 0 {
		return nil
	}
	return r.write(func(st *state) error {
		for _, id := range ids {
			c, ok := st.comments[id]
			if !ok {
				return errs.NotFound("Comment with id=%d was not found", id)
			}
			c.Deleted = deleted
			st.comments[id] = c
		}
		return nil
	})
}

func (r *CommentRepository) UpdateText(_ context.Context, id int64, text string) (*comments.Comment, error) {
	var out *comments.Comment
	err := r.write(func(st *state) error {
		c, ok := st.comments[id]
		if !ok {
			return errs.NotFound("Comment with id=%d was not found", id)
		}
		c.Text = text
		c.Edited = true
		st.comments[id] = c
		out = st.commentOut(c)
		return nil
	})
	return out, err
}

func (r *CommentRepository) ListByEvent(_ context.Context, eventID int64, page paging.Page) ([]comments.Comment, error) {
	return r.list(page, func(c comments.Comment) bool {
		return c.EventID == eventID && !c.Deleted
	})
}

func (r *CommentRepository) ListByAuthor(_ context.Context, authorID int64, visibility comments.Visibility, page paging.Page) ([]comments.Comment, error) {
	return r.list(page, func(c comments.Comment) bool {
		if c.AuthorID != authorID {
			return false
		}
		switch visibility {
		case comments.ShowActive:
			return !c.Deleted
		case comments.ShowDeleted:
			return c.Deleted
		}
		return true
	})
}

// list returns matching comments newest first.
func (r *CommentRepository) list(page paging.Page, keep func(comments.Comment) bool) ([]comments.Comment, error) {
	var out []comments.Comment
	err := r.read(func(st *state) error {
		matched := []comments.Comment{}
		for _, c := range st.comments {
			if keep(c) {
				matched = append(matched, *st.commentOut(c))
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedOn.Equal(matched[j].CreatedOn) {
				return matched[i].CreatedOn.After(matched[j].CreatedOn)
			}
			return matched[i].ID > matched[j].ID
		})
		out = paging.Slice(matched, page)
		return nil
	})
	return out, err
}

func (st *state) commentOut(c comments.Comment) *comments.Comment {
	c.AuthorName = st.users[c.AuthorID].Name
	if c.ParentID != nil {
		parent := *c.ParentID
		c.ParentID = &parent
	}
	return &c
}
