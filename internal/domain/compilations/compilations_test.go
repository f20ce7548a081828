package compilations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
	"github.com/Togather-Foundation/meetups/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func seedEvents(t *testing.T, store *memory.Store, n int) []int64 {
	t.Helper()
	ctx := context.Background()
	u, err := store.Users().Create(ctx, users.NewUser{Name: "Organizer", Email: "org@example.com"})
	require.NoError(t, err)
	c, err := store.Categories().Create(ctx, "Festivals")
	require.NoError(t, err)

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		e, err := store.Events().Create(ctx, u.ID, events.NewEvent{
			CategoryID: c.ID,
			Title:      "Festival",
			EventDate:  time.Now().Add(72 * time.Hour),
		}, time.Now())
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	return ids
}

func TestCreateKeepsOrderAndSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ids := seedEvents(t, store, 3)
	svc := compilations.NewService(store.Compilations())

	c, err := svc.Create(ctx, compilations.NewCompilation{
		Title:    "Summer",
		Pinned:   true,
		EventIDs: []int64{ids[2], 999, ids[0], ids[2]},
	})
	require.NoError(t, err)
	require.Len(t, c.Events, 2)
	require.Equal(t, ids[2], c.Events[0].ID)
	require.Equal(t, ids[0], c.Events[1].ID)

	_, err = svc.Create(ctx, compilations.NewCompilation{Title: "Summer"})
	require.True(t, errors.Is(err, errs.ErrConflict))
}

func TestUpdateAppliesPresentFields(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ids := seedEvents(t, store, 2)
	svc := compilations.NewService(store.Compilations())

	c, err := svc.Create(ctx, compilations.NewCompilation{Title: "Autumn", EventIDs: ids})
	require.NoError(t, err)
	other, err := svc.Create(ctx, compilations.NewCompilation{Title: "Winter"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c.ID, compilations.Patch{Pinned: optional.Of(true)})
	require.NoError(t, err)
	require.True(t, updated.Pinned)
	require.Equal(t, "Autumn", updated.Title)
	require.Len(t, updated.Events, 2)

	updated, err = svc.Update(ctx, c.ID, compilations.Patch{EventIDs: optional.Of([]int64{ids[1]})})
	require.NoError(t, err)
	require.Len(t, updated.Events, 1)
	require.Equal(t, ids[1], updated.Events[0].ID)

	_, err = svc.Update(ctx, other.ID, compilations.Patch{Title: optional.Of("Autumn")})
	require.True(t, errors.Is(err, errs.ErrConflict))

	pinned, err := svc.List(ctx, optional.Of(true), paging.Default())
	require.NoError(t, err)
	require.Len(t, pinned, 1)

	all, err := svc.List(ctx, optional.None[bool](), paging.Default())
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, svc.Delete(ctx, other.ID))
	_, err = svc.Get(ctx, other.ID)
	require.True(t, errors.Is(err, errs.ErrNotFound))
}
