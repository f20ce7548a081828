package comments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/comments"
	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
	"github.com/Togather-Foundation/meetups/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *memory.Store
	svc       *comments.Service
	initiator int64
	author    int64
	event     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	initiator, err := store.Users().Create(ctx, users.NewUser{Name: "Organizer", Email: "org@example.com"})
	require.NoError(t, err)
	author, err := store.Users().Create(ctx, users.NewUser{Name: "Author", Email: "author@example.com"})
	require.NoError(t, err)
	category, err := store.Categories().Create(ctx, "Talks")
	require.NoError(t, err)
	event, err := store.Events().Create(ctx, initiator.ID, events.NewEvent{
		CategoryID: category.ID,
		Title:      "Lightning talks",
		EventDate:  time.Now().Add(48 * time.Hour),
	}, time.Now())
	require.NoError(t, err)

	return &fixture{
		store:     store,
		svc:       comments.NewService(store.Comments()),
		initiator: initiator.ID,
		author:    author.ID,
		event:     event.ID,
	}
}

func (f *fixture) add(t *testing.T, text string) *comments.Comment {
	t.Helper()
	c, err := f.svc.Add(context.Background(), f.author, f.event, comments.NewComment{Text: text})
	require.NoError(t, err)
	return c
}

func (f *fixture) reply(t *testing.T, parent int64, text string) *comments.Comment {
	t.Helper()
	c, err := f.svc.Reply(context.Background(), f.author, f.event, parent, comments.NewComment{Text: text})
	require.NoError(t, err)
	return c
}

func (f *fixture) deleted(t *testing.T, id int64) bool {
	t.Helper()
	c, err := f.store.Comments().GetByID(context.Background(), id)
	require.NoError(t, err)
	return c.Deleted
}

func TestCascadeDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	root := f.add(t, "Who is speaking first?")
	child := f.reply(t, root.ID, "I am")
	grandchild := f.reply(t, child.ID, "Great!")

	_, err := f.svc.SetStatus(ctx, f.author, f.event, root.ID, comments.CommandDelete)
	require.NoError(t, err)
	for _, id := range []int64{root.ID, child.ID, grandchild.ID} {
		require.True(t, f.deleted(t, id))
	}

	_, err = f.svc.SetStatus(ctx, f.author, f.event, root.ID, comments.CommandDelete)
	require.NoError(t, err, "deleting twice is a no-op")

	_, err = f.svc.SetStatus(ctx, f.author, f.event, child.ID, comments.CommandRestore)
	require.True(t, errors.Is(err, errs.ErrConflict), "parent is still deleted")

	restored, err := f.svc.SetStatus(ctx, f.author, f.event, root.ID, comments.CommandRestore)
	require.NoError(t, err)
	require.False(t, restored.Deleted)
	for _, id := range []int64{root.ID, child.ID, grandchild.ID} {
		require.False(t, f.deleted(t, id))
	}

	_, err = f.svc.SetStatus(ctx, f.author, f.event, root.ID, comments.CommandRestore)
	require.NoError(t, err, "restoring twice is a no-op")
}

func TestRestoreRootAfterReplyWasDeletedFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	root := f.add(t, "Slides are up")
	reply := f.reply(t, root.ID, "Thanks")
	nested := f.reply(t, reply.ID, "Agreed")

	_, err := f.svc.SetStatus(ctx, f.author, f.event, reply.ID, comments.CommandDelete)
	require.NoError(t, err)
	require.False(t, f.deleted(t, root.ID))
	require.True(t, f.deleted(t, reply.ID))
	require.True(t, f.deleted(t, nested.ID))

	_, err = f.svc.SetStatus(ctx, f.author, f.event, root.ID, comments.CommandDelete)
	require.NoError(t, err)
	require.True(t, f.deleted(t, root.ID))

	_, err = f.svc.SetStatus(ctx, f.author, f.event, root.ID, comments.CommandRestore)
	require.NoError(t, err)
	for _, id := range []int64{root.ID, reply.ID, nested.ID} {
		require.False(t, f.deleted(t, id))
	}
}

func TestReplyToDeletedCommentConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	root := f.add(t, "root")
	hidden := f.reply(t, root.ID, "hidden soon")
	_, err := f.svc.SetStatus(ctx, f.author, f.event, hidden.ID, comments.CommandDelete)
	require.NoError(t, err)

	_, err = f.svc.Reply(ctx, f.author, f.event, hidden.ID, comments.NewComment{Text: "late reply"})
	require.True(t, errors.Is(err, errs.ErrConflict))

	// Deleting the root afterwards leaves nothing visible under it.
	_, err = f.svc.SetStatus(ctx, f.author, f.event, root.ID, comments.CommandDelete)
	require.NoError(t, err)
	visible, err := f.svc.ListByEvent(ctx, f.initiator, f.event, paging.Default())
	require.NoError(t, err)
	require.Empty(t, visible)
}

func TestDeleteLeavesSiblingsAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	root := f.add(t, "root")
	left := f.reply(t, root.ID, "left")
	right := f.reply(t, root.ID, "right")

	_, err := f.svc.SetStatus(ctx, f.author, f.event, left.ID, comments.CommandDelete)
	require.NoError(t, err)
	require.True(t, f.deleted(t, left.ID))
	require.False(t, f.deleted(t, right.ID))
	require.False(t, f.deleted(t, root.ID))

	visible, err := f.svc.ListByEvent(ctx, f.initiator, f.event, paging.Default())
	require.NoError(t, err)
	require.Len(t, visible, 2)

	gone, err := f.svc.ListByAuthor(ctx, f.author, comments.ShowDeleted, paging.Default())
	require.NoError(t, err)
	require.Len(t, gone, 1)
	require.Equal(t, left.ID, gone[0].ID)
}

func TestSetStatusForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.add(t, "mine")

	_, err := f.svc.SetStatus(ctx, f.initiator, f.event, c.ID, comments.CommandDelete)
	require.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = f.svc.SetStatus(ctx, f.author, f.event, 999, comments.CommandDelete)
	require.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestUpdateText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.add(t, "See you there")

	_, err := f.svc.UpdateText(ctx, f.author, f.event, c.ID, "  SEE YOU THERE ")
	require.True(t, errors.Is(err, errs.ErrConflict))
	require.Contains(t, err.Error(), "Nothing to change")

	_, err = f.svc.UpdateText(ctx, f.initiator, f.event, c.ID, "changed")
	require.True(t, errors.Is(err, errs.ErrForbidden))

	updated, err := f.svc.UpdateText(ctx, f.author, f.event, c.ID, "See you at 7")
	require.NoError(t, err)
	require.Equal(t, "See you at 7", updated.Text)
	require.True(t, updated.Edited)
	require.Equal(t, "Author", updated.AuthorName)
}

func TestCommentsSetting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	root := f.add(t, "first")

	_, err := f.svc.SetEventCommentsSetting(ctx, f.author, f.event, comments.SettingDisable)
	require.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = f.svc.SetEventCommentsSetting(ctx, f.initiator, f.event, comments.SettingEnable)
	require.True(t, errors.Is(err, errs.ErrConflict))

	e, err := f.svc.SetEventCommentsSetting(ctx, f.initiator, f.event, comments.SettingDisable)
	require.NoError(t, err)
	require.True(t, e.CommentsDisabled)

	_, err = f.svc.Add(ctx, f.author, f.event, comments.NewComment{Text: "hello?"})
	require.True(t, errors.Is(err, errs.ErrConflict))
	_, err = f.svc.Reply(ctx, f.author, f.event, root.ID, comments.NewComment{Text: "hello?"})
	require.True(t, errors.Is(err, errs.ErrConflict))

	_, err = f.svc.SetEventCommentsSetting(ctx, f.initiator, f.event, comments.SettingDisable)
	require.True(t, errors.Is(err, errs.ErrConflict))
}

func TestReplyToMissingParent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reply(context.Background(), f.author, f.event, 42, comments.NewComment{Text: "orphan"})
	require.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestParseTokens(t *testing.T) {
	v, err := comments.ParseVisibility("active")
	require.NoError(t, err)
	require.Equal(t, comments.ShowActive, v)

	v, err = comments.ParseVisibility("SHOW_DELETED")
	require.NoError(t, err)
	require.Equal(t, comments.ShowDeleted, v)

	s, err := comments.ParseSetting("disable")
	require.NoError(t, err)
	require.Equal(t, comments.SettingDisable, s)

	s, err = comments.ParseSetting("ENABLE_COMMENTS")
	require.NoError(t, err)
	require.Equal(t, comments.SettingEnable, s)

	_, err = comments.ParseStatusCommand("purge")
	require.True(t, errors.Is(err, errs.ErrValidation))
}
