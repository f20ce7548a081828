package categories

import (
	"context"
	"errors"
	"testing"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	items  []Category
	used   map[int64]bool
	nextID int64
}

func (r *stubRepo) Create(_ context.Context, name string) (*Category, error) {
	r.nextID++
	c := Category{ID: r.nextID, Name: name}
	r.items = append(r.items, c)
	return &c, nil
}

func (r *stubRepo) Update(_ context.Context, id int64, name string) (*Category, error) {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Name = name
			c := r.items[i]
			return &c, nil
		}
	}
	return nil, errs.NotFound("Category with id=%d was not found", id)
}

func (r *stubRepo) Delete(_ context.Context, id int64) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return errs.NotFound("Category with id=%d was not found", id)
}

func (r *stubRepo) GetByID(_ context.Context, id int64) (*Category, error) {
	for _, c := range r.items {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, errs.NotFound("Category with id=%d was not found", id)
}

func (r *stubRepo) List(_ context.Context, page paging.Page) ([]Category, error) {
	return paging.Slice(r.items, page), nil
}

func (r *stubRepo) NameTaken(_ context.Context, name string, exceptID int64) (bool, error) {
	for _, c := range r.items {
		if c.Name == name && c.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) HasEvents(_ context.Context, id int64) (bool, error) {
	return r.used[id], nil
}

func TestCategoryLifecycle(t *testing.T) {
	repo := &stubRepo{used: map[int64]bool{}}
	svc := NewService(repo)
	ctx := context.Background()

	concerts, err := svc.Create(ctx, "Concerts")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Concerts")
	require.True(t, errors.Is(err, errs.ErrConflict))

	talks, err := svc.Create(ctx, "Talks")
	require.NoError(t, err)

	_, err = svc.Update(ctx, talks.ID, "Concerts")
	require.True(t, errors.Is(err, errs.ErrConflict))

	same, err := svc.Update(ctx, concerts.ID, "Concerts")
	require.NoError(t, err)
	require.Equal(t, concerts.ID, same.ID)

	repo.used[concerts.ID] = true
	err = svc.Delete(ctx, concerts.ID)
	require.True(t, errors.Is(err, errs.ErrConflict))
	require.Contains(t, err.Error(), "not empty")

	require.NoError(t, svc.Delete(ctx, talks.ID))
	_, err = svc.Get(ctx, talks.ID)
	require.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := NewService(&stubRepo{})
	_, err := svc.Create(context.Background(), "  <i></i> ")
	require.True(t, errors.Is(err, errs.ErrValidation))
}
