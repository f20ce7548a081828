package postgres

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/meetups/internal/domain/categories"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
)

var (
	_ users.Repository        = (*UserRepository)(nil)
	_ categories.Repository   = (*CategoryRepository)(nil)
	_ compilations.Repository = (*CompilationRepository)(nil)
)

type UserRepository struct {
	conn
}

func (r *UserRepository) Create(ctx context.Context, params users.NewUser) (*users.User, error) {
	u := users.User{Name: params.Name, Email: params.Email}
	err := r.queryer().QueryRow(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		params.Name, params.Email,
	).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", translate(err, "User with email=%s already exists", params.Email))
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*users.User, error) {
	var u users.User
	err := r.queryer().QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, notFoundOr(err, "User with id=%d was not found", id)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, ids []int64, page paging.Page) ([]users.User, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT id, name, email
  FROM users
 WHERE ($1::bigint[] IS NULL OR id = ANY($1))
 ORDER BY id
 LIMIT $2 OFFSET $3
`, nilIfEmpty(ids), page.Size, page.From)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := []users.User{}
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan users: %w", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", translate(err, "User with id=%d is still referenced", id))
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("User with id=%d was not found", id)
	}
	return nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email)
}

type CategoryRepository struct {
	conn
}

func (r *CategoryRepository) Create(ctx context.Context, name string) (*categories.Category, error) {
	c := categories.Category{Name: name}
	err := r.queryer().QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", translate(err, "Category with name=%s already exists", name))
	}
	return &c, nil
}

func (r *CategoryRepository) Update(ctx context.Context, id int64, name string) (*categories.Category, error) {
	tag, err := r.queryer().Exec(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", translate(err, "Category with name=%s already exists", name))
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.NotFound("Category with id=%d was not found", id)
	}
	return &categories.Category{ID: id, Name: name}, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", translate(err, "The category is not empty"))
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("Category with id=%d was not found", id)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*categories.Category, error) {
	var c categories.Category
	err := r.queryer().QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, notFoundOr(err, "Category with id=%d was not found", id)
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context, page paging.Page) ([]categories.Category, error) {
	rows, err := r.queryer().Query(ctx, `SELECT id, name FROM categories ORDER BY id LIMIT $1 OFFSET $2`, page.Size, page.From)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []categories.Category{}
	for rows.Next() {
		var c categories.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan categories: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

func (r *CategoryRepository) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1 AND id <> $2)`, name, exceptID)
}

func (r *CategoryRepository) HasEvents(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE category_id = $1)`, id)
}

type CompilationRepository struct {
	conn
}

func (r *CompilationRepository) Create(ctx context.Context, rec compilations.Record) (*compilations.Compilation, error) {
	err := r.inTx(ctx, func(tx conn) error {
		err := tx.queryer().QueryRow(ctx,
			`INSERT INTO compilations (title, pinned) VALUES ($1, $2) RETURNING id`,
			rec.Title, rec.Pinned,
		).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("create compilation: %w", translate(err, "Compilation with title=%s already exists", rec.Title))
		}
		return tx.replaceCompilationEvents(ctx, rec.ID, rec.EventIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, rec.ID)
}

func (r *CompilationRepository) Update(ctx context.Context, rec compilations.Record) (*compilations.Compilation, error) {
	err := r.inTx(ctx, func(tx conn) error {
		tag, err := tx.queryer().Exec(ctx,
			`UPDATE compilations SET title = $2, pinned = $3 WHERE id = $1`,
			rec.ID, rec.Title, rec.Pinned,
		)
		if err != nil {
			return fmt.Errorf("update compilation: %w", translate(err, "Compilation with title=%s already exists", rec.Title))
		}
		if tag.RowsAffected() == 0 {
			return errs.NotFound("Compilation with id=%d was not found", rec.ID)
		}
		return tx.replaceCompilationEvents(ctx, rec.ID, rec.EventIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, rec.ID)
}

func (c conn) replaceCompilationEvents(ctx context.Context, id int64, eventIDs []int64) error {
	if _, err := c.queryer().Exec(ctx, `DELETE FROM compilation_events WHERE compilation_id = $1`, id); err != nil {
		return fmt.Errorf("clear compilation events: %w", err)
	}
	if len(eventIDs) == 0 {
		return nil
	}
	_, err := c.queryer().Exec(ctx, `
INSERT INTO compilation_events (compilation_id, event_id, position)
SELECT $1, ids.event_id, ids.position
  FROM unnest($2::bigint[]) WITH ORDINALITY AS ids(event_id, position)
`, id, eventIDs)
	if err != nil {
		return fmt.Errorf("save compilation events: %w", translate(err, "Compilation references a missing event"))
	}
	return nil
}

func (r *CompilationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM compilations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete compilation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("Compilation with id=%d was not found", id)
	}
	return nil
}

func (r *CompilationRepository) GetByID(ctx context.Context, id int64) (*compilations.Compilation, error) {
	c := compilations.Compilation{ID: id}
	err := r.queryer().QueryRow(ctx, `SELECT title, pinned FROM compilations WHERE id = $1`, id).Scan(&c.Title, &c.Pinned)
	if err != nil {
		return nil, notFoundOr(err, "Compilation with id=%d was not found", id)
	}
	items := []compilations.Compilation{c}
	if err := r.attachEvents(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *CompilationRepository) List(ctx context.Context, pinned optional.Value[bool], page paging.Page) ([]compilations.Compilation, error) {
	var pinnedArg *bool
	if v, ok := pinned.Get(); ok {
		pinnedArg = &v
	}
	rows, err := r.queryer().Query(ctx, `
SELECT id, title, pinned
  FROM compilations
 WHERE ($1::boolean IS NULL OR pinned = $1)
 ORDER BY id
 LIMIT $2 OFFSET $3
`, pinnedArg, page.Size, page.From)
	if err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	defer rows.Close()

	items := []compilations.Compilation{}
	for rows.Next() {
		var c compilations.Compilation
		if err := rows.Scan(&c.ID, &c.Title, &c.Pinned); err != nil {
			return nil, fmt.Errorf("scan compilations: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	if err := r.attachEvents(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachEvents loads the events of every compilation in one query, in saved order.
func (r *CompilationRepository) attachEvents(ctx context.Context, items []compilations.Compilation) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	index := make(map[int64]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].Events = []events.Event{}
	}

	rows, err := r.queryer().Query(ctx, `
SELECT ce.compilation_id, x.*
  FROM compilation_events ce
  JOIN LATERAL (`+eventSelect+` WHERE e.id = ce.event_id) x ON TRUE
 WHERE ce.compilation_id = ANY($1)
 ORDER BY ce.compilation_id, ce.position
`, ids)
	if err != nil {
		return fmt.Errorf("list compilation events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var compilationID int64
		e, err := scanEvent(compilationRow{rows: rows, compilationID: &compilationID})
		if err != nil {
			return fmt.Errorf("scan compilation events: %w", err)
		}
		i := index[compilationID]
		items[i].Events = append(items[i].Events, *e)
	}
	return rows.Err()
}

// compilationRow scans the leading compilation id before the event columns.
type compilationRow struct {
	rows          scanner
	compilationID *int64
}

func (c compilationRow) Scan(dest ...any) error {
	return c.rows.Scan(append([]any{c.compilationID}, dest...)...)
}

func (r *CompilationRepository) TitleTaken(ctx context.Context, title string, exceptID int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM compilations WHERE title = $1 AND id <> $2)`, title, exceptID)
}

func (r *CompilationRepository) ExistingEventIDs(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.queryer().Query(ctx, `SELECT id FROM events WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("check events: %w", err)
	}
	defer rows.Close()

	found := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan events: %w", err)
		}
		found = append(found, id)
	}
	return found, rows.Err()
}
