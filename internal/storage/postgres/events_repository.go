package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	conn
}

const eventSelect = `
SELECT e.id, e.initiator_id, u.name, e.category_id, c.name,
       e.title, e.annotation, e.description, e.lat, e.lon, e.paid, e.state,
       e.event_date, e.created_on, e.published_on,
       e.participant_limit, e.request_moderation, e.confirmed_requests,
       e.comments_disabled, e.views
  FROM events e
  JOIN users u ON u.id = e.initiator_id
  JOIN categories c ON c.id = e.category_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*events.Event, error) {
	var (
		e           events.Event
		state       string
		publishedOn pgtype.Timestamptz
	)
	if err := row.Scan(
		&e.ID,
		&e.InitiatorID,
		&e.InitiatorName,
		&e.CategoryID,
		&e.CategoryName,
		&e.Title,
		&e.Annotation,
		&e.Description,
		&e.Location.Lat,
		&e.Location.Lon,
		&e.Paid,
		&state,
		&e.EventDate,
		&e.CreatedOn,
		&publishedOn,
		&e.ParticipantLimit,
		&e.RequestModeration,
		&e.ConfirmedRequests,
		&e.CommentsDisabled,
		&e.Views,
	); err != nil {
		return nil, err
	}
	e.State = events.State(state)
	e.EventDate = e.EventDate.UTC()
	e.CreatedOn = e.CreatedOn.UTC()
	if publishedOn.Valid {
		t := publishedOn.Time.UTC()
		e.PublishedOn = &t
	}
	return &e, nil
}

func (c conn) getEvent(ctx context.Context, id int64, forUpdate bool) (*events.Event, error) {
	query := eventSelect + ` WHERE e.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF e`
	}
	e, err := scanEvent(c.queryer().QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "Event with id=%d was not found", id)
	}
	return e, nil
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo events.Repository) error) error {
	return r.inTx(ctx, func(tx conn) error {
		return fn(ctx, &EventRepository{tx})
	})
}

func (r *EventRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	return r.userExists(ctx, id)
}

func (r *EventRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id)
}

func (r *EventRepository) Create(ctx context.Context, initiatorID int64, params events.NewEvent, createdOn time.Time) (*events.Event, error) {
	var id int64
	err := r.queryer().QueryRow(ctx, `
INSERT INTO events (initiator_id, category_id, title, annotation, description, lat, lon, paid,
                    state, event_date, created_on, participant_limit, request_moderation, comments_disabled)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id
`,
		initiatorID,
		params.CategoryID,
		params.Title,
		params.Annotation,
		params.Description,
		params.Location.Lat,
		params.Location.Lon,
		params.Paid,
		string(events.StatePending),
		params.EventDate,
		createdOn,
		params.ParticipantLimit,
		params.RequestModeration,
		params.CommentsDisabled,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", translate(err, "Event references a missing user or category"))
	}
	return r.getEvent(ctx, id, false)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	return r.getEvent(ctx, id, false)
}

func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id int64) (*events.Event, error) {
	return r.getEvent(ctx, id, true)
}

func (r *EventRepository) Update(ctx context.Context, e *events.Event) (*events.Event, error) {
	var publishedOn pgtype.Timestamptz
	if e.PublishedOn != nil {
		publishedOn = pgtype.Timestamptz{Time: *e.PublishedOn, Valid: true}
	}
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET category_id = $2,
       title = $3,
       annotation = $4,
       description = $5,
       lat = $6,
       lon = $7,
       paid = $8,
       state = $9,
       event_date = $10,
       published_on = $11,
       participant_limit = $12,
       request_moderation = $13,
       comments_disabled = $14
 WHERE id = $1
`,
		e.ID,
		e.CategoryID,
		e.Title,
		e.Annotation,
		e.Description,
		e.Location.Lat,
		e.Location.Lon,
		e.Paid,
		string(e.State),
		e.EventDate,
		publishedOn,
		e.ParticipantLimit,
		e.RequestModeration,
		e.CommentsDisabled,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", translate(err, "Event id=%d cannot be updated", e.ID))
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.NotFound("Event with id=%d was not found", e.ID)
	}
	return r.getEvent(ctx, e.ID, false)
}

func (r *EventRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := r.queryer().QueryRow(ctx, `UPDATE events SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		return 0, notFoundOr(err, "Event with id=%d was not found", id)
	}
	return views, nil
}

func (r *EventRepository) ListByInitiator(ctx context.Context, initiatorID int64, page paging.Page) ([]events.Event, error) {
	return r.list(ctx, eventSelect+`
 WHERE e.initiator_id = $1
 ORDER BY e.id
 LIMIT $2 OFFSET $3
`, initiatorID, page.Size, page.From)
}

func (r *EventRepository) ListAdmin(ctx context.Context, f events.AdminFilters, page paging.Page) ([]events.Event, error) {
	var states []string
	for _, s := range f.States {
		states = append(states, string(s))
	}
	return r.list(ctx, eventSelect+`
 WHERE ($1::bigint[] IS NULL OR e.initiator_id = ANY($1))
   AND ($2::text[] IS NULL OR e.state = ANY($2))
   AND ($3::bigint[] IS NULL OR e.category_id = ANY($3))
   AND ($4::timestamptz IS NULL OR e.event_date >= $4)
   AND ($5::timestamptz IS NULL OR e.event_date <= $5)
 ORDER BY e.id
 LIMIT $6 OFFSET $7
`,
		nilIfEmpty(f.Users),
		nilIfEmpty(states),
		nilIfEmpty(f.Categories),
		timeArg(f.RangeStart),
		timeArg(f.RangeEnd),
		page.Size,
		page.From,
	)
}

var publicOrder = map[events.Sort]string{
	events.SortEventDate: "e.event_date ASC, e.id ASC",
	events.SortViews:     "e.views DESC, e.id ASC",
}

func (r *EventRepository) ListPublic(ctx context.Context, f events.PublicFilters, page paging.Page) ([]events.Event, error) {
	order, ok := publicOrder[f.Sort]
	if !ok {
		order = publicOrder[events.SortEventDate]
	}
	var paid *bool
	if v, ok := f.Paid.Get(); ok {
		paid = &v
	}
	return r.list(ctx, eventSelect+`
 WHERE e.state = 'PUBLISHED'
   AND ($1::text = '' OR e.annotation ILIKE '%' || $1 || '%'
                OR e.title ILIKE '%' || $1 || '%'
                OR e.description ILIKE '%' || $1 || '%')
   AND ($2::bigint[] IS NULL OR e.category_id = ANY($2))
   AND ($3::boolean IS NULL OR e.paid = $3)
   AND ($4::timestamptz IS NULL OR e.event_date >= $4)
   AND ($5::timestamptz IS NULL OR e.event_date <= $5)
   AND (NOT $6 OR e.participant_limit = 0 OR e.confirmed_requests < e.participant_limit)
 ORDER BY `+order+`
 LIMIT $7 OFFSET $8
`,
		escapeLike(strings.TrimSpace(f.Text)),
		nilIfEmpty(f.Categories),
		paid,
		timeArg(f.RangeStart),
		timeArg(f.RangeEnd),
		f.OnlyAvailable,
		page.Size,
		page.From,
	)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := []events.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan events: %w", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

// escapeLike makes user input match literally inside ILIKE patterns.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nilIfEmpty[T any](values []T) []T {
	if len(values) == 0 {
		return nil
	}
	return values
}

func timeArg(v optional.Value[time.Time]) *time.Time {
	t, ok := v.Get()
	if !ok {
		return nil
	}
	return &t
}
