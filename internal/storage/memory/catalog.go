package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Togather-Foundation/meetups/internal/domain/categories"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
)

type UserRepository struct {
	view
}

func (r *UserRepository) Create(_ context.Context, params users.NewUser) (*users.User, error) {
	var out *users.User
	err := r.write(func(st *state) error {
		if st.emailTaken(params.Email) {
			return errs.Conflict("User with email=%s already exists", params.Email)
		}
		u := users.User{ID: st.nextID("users"), Name: params.Name, Email: params.Email}
		st.users[u.ID] = u
		out = &u
		return nil
	})
	return out, err
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*users.User, error) {
	var out *users.User
	err := r.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return errs.NotFound("User with id=%d was not found", id)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *UserRepository) List(_ context.Context, ids []int64, page paging.Page) ([]users.User, error) {
	var out []users.User
	err := r.read(func(st *state) error {
		matched := []users.User{}
		for _, u := range st.users {
			if len(ids) == 0 || containsID(ids, u.ID) {
				matched = append(matched, u)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
		out = paging.Slice(matched, page)
		return nil
	})
	return out, err
}

// Delete refuses to remove a user that events, requests or comments still refer to.
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	return r.write(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return errs.NotFound("User with id=%d was not found", id)
		}
		for _, e := range st.events {
			if e.InitiatorID == id {
				return errs.Conflict("User with id=%d is still referenced", id)
			}
		}
		for _, req := range st.requests {
			if req.RequesterID == id {
				return errs.Conflict("User with id=%d is still referenced", id)
			}
		}
		for _, c := range st.comments {
			if c.AuthorID == id {
				return errs.Conflict("User with id=%d is still referenced", id)
			}
		}
		delete(st.users, id)
		return nil
	})
}

func (r *UserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		ok = st.emailTaken(email)
		return nil
	})
	return ok, err
}

func (st *state) emailTaken(email string) bool {
	for _, u := range st.users {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

type CategoryRepository struct {
	view
}

func (r *CategoryRepository) Create(_ context.Context, name string) (*categories.Category, error) {
	var out *categories.Category
	err := r.write(func(st *state) error {
		if st.categoryNameTaken(name, 0) {
			return errs.Conflict("Category with name=%s already exists", name)
		}
		c := categories.Category{ID: st.nextID("categories"), Name: name}
		st.categories[c.ID] = c
		out = &c
		return nil
	})
	return out, err
}

func (r *CategoryRepository) Update(_ context.Context, id int64, name string) (*categories.Category, error) {
	var out *categories.Category
	err := r.write(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return errs.NotFound("Category with id=%d was not found", id)
		}
		if st.categoryNameTaken(name, id) {
			return errs.Conflict("Category with name=%s already exists", name)
		}
		c.Name = name
		st.categories[id] = c
		out = &c
		return nil
	})
	return out, err
}

func (r *CategoryRepository) Delete(_ context.Context, id int64) error {
	return r.write(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return errs.NotFound("Category with id=%d was not found", id)
		}
		if st.categoryInUse(id) {
			return errs.Conflict("The category is not empty")
		}
		delete(st.categories, id)
		return nil
	})
}

func (r *CategoryRepository) GetByID(_ context.Context, id int64) (*categories.Category, error) {
	var out *categories.Category
	err := r.read(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return errs.NotFound("Category with id=%d was not found", id)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *CategoryRepository) List(_ context.Context, page paging.Page) ([]categories.Category, error) {
	var out []categories.Category
	err := r.read(func(st *state) error {
		all := make([]categories.Category, 0, len(st.categories))
		for _, c := range st.categories {
			all = append(all, c)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		out = paging.Slice(all, page)
		return nil
	})
	return out, err
}

func (r *CategoryRepository) NameTaken(_ context.Context, name string, exceptID int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		ok = st.categoryNameTaken(name, exceptID)
		return nil
	})
	return ok, err
}

func (r *CategoryRepository) HasEvents(_ context.Context, id int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		ok = st.categoryInUse(id)
		return nil
	})
	return ok, err
}

func (st *state) categoryNameTaken(name string, exceptID int64) bool {
	for _, c := range st.categories {
		if c.ID != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (st *state) categoryInUse(id int64) bool {
	for _, e := range st.events {
		if e.CategoryID == id {
			return true
		}
	}
	return false
}

type CompilationRepository struct {
	view
}

func (r *CompilationRepository) Create(_ context.Context, rec compilations.Record) (*compilations.Compilation, error) {
	var out *compilations.Compilation
	err := r.write(func(st *state) error {
		if st.compilationTitleTaken(rec.Title, 0) {
			return errs.Conflict("Compilation with title=%s already exists", rec.Title)
		}
		rec.ID = st.nextID("compilations")
		rec.EventIDs = append([]int64(nil), rec.EventIDs...)
		st.compilations[rec.ID] = rec
		out = st.compilationOut(rec)
		return nil
	})
	return out, err
}

func (r *CompilationRepository) Update(_ context.Context, rec compilations.Record) (*compilations.Compilation, error) {
	var out *compilations.Compilation
	err := r.write(func(st *state) error {
		if _, ok := st.compilations[rec.ID]; !ok {
			return errs.NotFound("Compilation with id=%d was not found", rec.ID)
		}
		if st.compilationTitleTaken(rec.Title, rec.ID) {
			return errs.Conflict("Compilation with title=%s already exists", rec.Title)
		}
		rec.EventIDs = append([]int64(nil), rec.EventIDs...)
		st.compilations[rec.ID] = rec
		out = st.compilationOut(rec)
		return nil
	})
	return out, err
}

func (r *CompilationRepository) Delete(_ context.Context, id int64) error {
	return r.write(func(st *state) error {
		if _, ok := st.compilations[id]; !ok {
			return errs.NotFound("Compilation with id=%d was not found", id)
		}
		delete(st.compilations, id)
		return nil
	})
}

func (r *CompilationRepository) GetByID(_ context.Context, id int64) (*compilations.Compilation, error) {
	var out *compilations.Compilation
	err := r.read(func(st *state) error {
		rec, ok := st.compilations[id]
		if !ok {
			return errs.NotFound("Compilation with id=%d was not found", id)
		}
		out = st.compilationOut(rec)
		return nil
	})
	return out, err
}

func (r *CompilationRepository) List(_ context.Context, pinned optional.Value[bool], page paging.Page) ([]compilations.Compilation, error) {
	var out []compilations.Compilation
	err := r.read(func(st *state) error {
		matched := []compilations.Record{}
		for _, rec := range st.compilations {
			if want, ok := pinned.Get(); ok && rec.Pinned != want {
				continue
			}
			matched = append(matched, rec)
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
		window := paging.Slice(matched, page)
		out = make([]compilations.Compilation, 0, len(window))
		for _, rec := range window {
			out = append(out, *st.compilationOut(rec))
		}
		return nil
	})
	return out, err
}

func (r *CompilationRepository) TitleTaken(_ context.Context, title string, exceptID int64) (bool, error) {
	var ok bool
	err := r.read(func(st *state) error {
		ok = st.compilationTitleTaken(title, exceptID)
		return nil
	})
	return ok, err
}

func (r *CompilationRepository) ExistingEventIDs(_ context.Context, ids []int64) ([]int64, error) {
	out := []int64{}
	err := r.read(func(st *state) error {
		for _, id := range ids {
			if _, ok := st.events[id]; ok {
				out = append(out, id)
			}
		}
		return nil
	})
	return out, err
}

func (st *state) compilationTitleTaken(title string, exceptID int64) bool {
	for _, rec := range st.compilations {
		if rec.ID != exceptID && rec.Title == title {
			return true
		}
	}
	return false
}

func (st *state) compilationOut(rec compilations.Record) *compilations.Compilation {
	c := &compilations.Compilation{
		ID:     rec.ID,
		Title:  rec.Title,
		Pinned: rec.Pinned,
		Events: make([]events.Event, 0, len(rec.EventIDs)),
	}
	for _, id := range rec.EventIDs {
		if e, ok := st.events[id]; ok {
			c.Events = append(c.Events, *st.eventOut(e))
		}
	}
	return c
}
