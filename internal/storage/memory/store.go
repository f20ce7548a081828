// Package memory is an in-process implementation of every domain repository.
//
// Writers are serialized by a store-wide mutex. A transaction works on a
// private copy of the data and swaps it in on commit, so readers outside the
// transaction never observe partial updates and a failed transaction leaves
// nothing behind.
package memory

import (
	"context"
	"sync"

	"github.com/Togather-Foundation/meetups/internal/domain/categories"
	"github.com/Togather-Foundation/meetups/internal/domain/comments"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
)

type state struct {
	users        map[int64]users.User
	categories   map[int64]categories.Category
	events       map[int64]events.Event
	requests     map[int64]requests.Request
	comments     map[int64]comments.Comment
	compilations map[int64]compilations.Record

	seq map[string]int64
}

func newState() *state {
	return &state{
		users:        map[int64]users.User{},
		categories:   map[int64]categories.Category{},
		events:       map[int64]events.Event{},
		requests:     map[int64]requests.Request{},
		comments:     map[int64]comments.Comment{},
		compilations: map[int64]compilations.Record{},
		seq:          map[string]int64{},
	}
}

// nextID hands out ids per table, starting at 1.
func (s *state) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[int64]users.User, len(s.users)),
		categories:   make(map[int64]categories.Category, len(s.categories)),
		events:       make(map[int64]events.Event, len(s.events)),
		requests:     make(map[int64]requests.Request, len(s.requests)),
		comments:     make(map[int64]comments.Comment, len(s.comments)),
		compilations: make(map[int64]compilations.Record, len(s.compilations)),
		seq:          make(map[string]int64, len(s.seq)),
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.compilations {
		v.EventIDs = append([]int64(nil), v.EventIDs...)
		c.compilations[k] = v
	}
	return c
}

type Store struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	committed *state
}

func New() *Store {
	return &Store{committed: newState()}
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

func (s *Store) write(fn func(st *state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	draft := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(draft); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = draft
	s.mu.Unlock()
	return nil
}

func (s *Store) Users() *UserRepository               { return &UserRepository{view{store: s}} }
func (s *Store) Categories() *CategoryRepository      { return &CategoryRepository{view{store: s}} }
func (s *Store) Events() *EventRepository             { return &EventRepository{view{store: s}} }
func (s *Store) Requests() *RequestRepository         { return &RequestRepository{view{store: s}} }
func (s *Store) Comments() *CommentRepository         { return &CommentRepository{view{store: s}} }
func (s *Store) Compilations() *CompilationRepository { return &CompilationRepository{view{store: s}} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// view binds a repository to the committed data or to an open transaction.
type view struct {
	store *Store
	tx    *state
}

func (v view) read(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	return v.store.read(fn)
}

func (v view) write(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	return v.store.write(fn)
}

// inTx runs fn against a transaction, joining the current one if there is one.
func (v view) inTx(fn func(tx view) error) error {
	if v.tx != nil {
		return fn(v)
	}
	return v.store.write(func(st *state) error {
		return fn(view{store: v.store, tx: st})
	})
}

var (
	_ users.Repository        = (*UserRepository)(nil)
	_ categories.Repository   = (*CategoryRepository)(nil)
	_ events.Repository       = (*EventRepository)(nil)
	_ requests.Repository     = (*RequestRepository)(nil)
	_ comments.Repository     = (*CommentRepository)(nil)
	_ compilations.Repository = (*CompilationRepository)(nil)
)
