package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/comments"
	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ comments.Repository = (*CommentRepository)(nil)

type CommentRepository struct {
	conn
}

const commentSelect = `
SELECT cm.id, cm.author_id, u.name, cm.event_id, cm.parent_id, cm.text, cm.deleted, cm.edited, cm.created_on
  FROM comments cm
  JOIN users u ON u.id = cm.author_id
`

func scanComment(row scanner) (comments.Comment, error) {
	var (
		c        comments.Comment
		parentID pgtype.Int8
	)
	if err := row.Scan(&c.ID, &c.AuthorID, &c.AuthorName, &c.EventID, &parentID, &c.Text, &c.Deleted, &c.Edited, &c.CreatedOn); err != nil {
		return comments.Comment{}, err
	}
	if parentID.Valid {
		id := parentID.Int64
		c.ParentID = &id
	}
	c.CreatedOn = c.CreatedOn.UTC()
	return c, nil
}

func (r *CommentRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo comments.Repository) error) error {
	return r.inTx(ctx, func(tx conn) error {
		return fn(ctx, &CommentRepository{tx})
	})
}

func (r *CommentRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	return r.userExists(ctx, id)
}

func (r *CommentRepository) GetEvent(ctx context.Context, id int64) (*events.Event, error) {
	return r.getEvent(ctx, id, false)
}

func (r *CommentRepository) LockEvent(ctx context.Context, id int64) (*events.Event, error) {
	return r.getEvent(ctx, id, true)
}

func (r *CommentRepository) SetCommentsDisabled(ctx context.Context, eventID int64, disabled bool) (*events.Event, error) {
	tag, err := r.queryer().Exec(ctx, `UPDATE events SET comments_disabled = $2 WHERE id = $1`, eventID, disabled)
	if err != nil {
		return nil, fmt.Errorf("update comment setting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}
	return r.getEvent(ctx, eventID, false)
}

func (r *CommentRepository) Create(ctx context.Context, authorID, eventID int64, parentID *int64, text string, createdOn time.Time) (*comments.Comment, error) {
	var id int64
	err := r.queryer().QueryRow(ctx, `
INSERT INTO comments (author_id, event_id, parent_id, text, created_on)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, authorID, eventID, parentID, text, createdOn).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", translate(err, "Comment references a missing user, event or parent"))
	}
	return r.GetByID(ctx, id)
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*comments.Comment, error) {
	c, err := scanComment(r.queryer().QueryRow(ctx, commentSelect+` WHERE cm.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "Comment with id=%d was not found", id)
	}
	return &c, nil
}

func (r *CommentRepository) ListReplies(ctx context.Context, parentID int64) ([]comments.Comment, error) {
	return r.list(ctx, commentSelect+` WHERE cm.parent_id = $1 ORDER BY cm.id`, parentID)
}

func (r *CommentRepository) SetDeleted(ctx context.Context, ids []int64, deleted bool) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.queryer().Exec(ctx, `UPDATE comments SET deleted = $2 WHERE id = ANY($1)`, ids, deleted); err != nil {
		return fmt.Errorf("update comment status: %w", err)
	}
	return nil
}

func (r *CommentRepository) UpdateText(ctx context.Context, id int64, text string) (*comments.Comment, error) {
	tag, err := r.queryer().Exec(ctx, `UPDATE comments SET text = $2, edited = TRUE WHERE id = $1`, id, text)
	if err != nil {
		return nil, fmt.Errorf("update comment text: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.NotFound("Comment with id=%d was not found", id)
	}
	return r.GetByID(ctx, id)
}

func (r *CommentRepository) ListByEvent(ctx context.Context, eventID int64, page paging.Page) ([]comments.Comment, error) {
	return r.list(ctx, commentSelect+`
 WHERE cm.event_id = $1 AND NOT cm.deleted
 ORDER BY cm.created_on DESC, cm.id DESC
 LIMIT $2 OFFSET $3
`, eventID, page.Size, page.From)
}

func (r *CommentRepository) ListByAuthor(ctx context.Context, authorID int64, visibility comments.Visibility, page paging.Page) ([]comments.Comment, error) {
	var deleted *bool
	switch visibility {
	case comments.ShowActive:
		v := false
		deleted = &v
	case comments.ShowDeleted:
		v := true
		deleted = &v
	}
	return r.list(ctx, commentSelect+`
 WHERE cm.author_id = $1
   AND ($2::boolean IS NULL OR cm.deleted = $2)
 ORDER BY cm.created_on DESC, cm.id DESC
 LIMIT $3 OFFSET $4
`, authorID, deleted, page.Size, page.From)
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...any) ([]comments.Comment, error) {
	rows, err := r.queryer().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := []comments.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comments: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}
