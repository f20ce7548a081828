package users

import (
	"context"
	"strings"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/sanitize"
	"github.com/rs/zerolog"
)

type User struct {
	ID    int64
	Name  string
	Email string
}

type NewUser struct {
	Name  string
	Email string
}

type Repository interface {
	Create(ctx context.Context, params NewUser) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, ids []int64, page paging.Page) ([]User, error)
	Delete(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, params NewUser) (*User, error) {
	params.Name = sanitize.Text(params.Name)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	exists, err := s.repo.EmailExists(ctx, params.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Conflict("User with email=%s already exists", params.Email)
	}

	user, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns users ordered by id; an empty ids slice lists everyone.
func (s *Service) List(ctx context.Context, ids []int64, page paging.Page) ([]User, error) {
	return s.repo.List(ctx, ids, page.Normalize())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
