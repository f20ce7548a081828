// Package categories manages the flat list of event categories.
package categories

import (
	"context"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/sanitize"
	"github.com/rs/zerolog"
)

type Category struct {
	ID   int64
	Name string
}

type Repository interface {
	Create(ctx context.Context, name string) (*Category, error)
	Update(ctx context.Context, id int64, name string) (*Category, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Category, error)
	List(ctx context.Context, page paging.Page) ([]Category, error)
	// NameTaken reports whether another category (id != exceptID) uses name.
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	HasEvents(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string) (*Category, error) {
	name = sanitize.Text(name)
	if name == "" {
		return nil, errs.Validation("Category name must not be blank")
	}
	taken, err := s.repo.NameTaken(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.Conflict("Category with name=%s already exists", name)
	}

	category, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("category_id", category.ID).Str("name", category.Name).Msg("category created")
	return category, nil
}

func (s *Service) Update(ctx context.Context, id int64, name string) (*Category, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name = sanitize.Text(name)
	if name == "" {
		return nil, errs.Validation("Category name must not be blank")
	}
	if name == existing.Name {
		return existing, nil
	}
	taken, err := s.repo.NameTaken(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.Conflict("Category with name=%s already exists", name)
	}
	return s.repo.Update(ctx, id, name)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	used, err := s.repo.HasEvents(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return errs.Conflict("The category is not empty")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, page paging.Page) ([]Category, error) {
	return s.repo.List(ctx, page.Normalize())
}
