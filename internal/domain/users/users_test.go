package users

import (
	"context"
	"errors"
	"testing"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	users  map[int64]User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[int64]User{}}
}

func (r *stubRepo) Create(_ context.Context, params NewUser) (*User, error) {
	r.nextID++
	u := User{ID: r.nextID, Name: params.Name, Email: params.Email}
	r.users[u.ID] = u
	return &u, nil
}

func (r *stubRepo) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errs.NotFound("User with id=%d was not found", id)
	}
	return &u, nil
}

func (r *stubRepo) List(_ context.Context, ids []int64, page paging.Page) ([]User, error) {
	out := []User{}
	for id := int64(1); id <= r.nextID; id++ {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		if len(ids) > 0 && !contains(ids, id) {
			continue
		}
		out = append(out, u)
	}
	return paging.Slice(out, page), nil
}

func (r *stubRepo) Delete(_ context.Context, id int64) error {
	delete(r.users, id)
	return nil
}

func (r *stubRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestServiceCreate(t *testing.T) {
	svc := NewService(newStubRepo())
	ctx := context.Background()

	u, err := svc.Create(ctx, NewUser{Name: "  <b>Ada</b> ", Email: "Ada@Example.com "})
	require.NoError(t, err)
	require.Equal(t, "Ada", u.Name)
	require.Equal(t, "ada@example.com", u.Email)

	_, err = svc.Create(ctx, NewUser{Name: "Other", Email: "ada@example.com"})
	require.True(t, errors.Is(err, errs.ErrConflict))
}

func TestServiceListAndDelete(t *testing.T) {
	svc := NewService(newStubRepo())
	ctx := context.Background()

	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, err := svc.Create(ctx, NewUser{Name: "user", Email: email})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, nil, paging.Page{From: 1, Size: 0})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(2), all[0].ID)

	some, err := svc.List(ctx, []int64{3}, paging.Default())
	require.NoError(t, err)
	require.Len(t, some, 1)

	require.NoError(t, svc.Delete(ctx, 3))
	err = svc.Delete(ctx, 3)
	require.True(t, errors.Is(err, errs.ErrNotFound))
}
