package api

import (
	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/Togather-Foundation/meetups/internal/domain/categories"
	"github.com/Togather-Foundation/meetups/internal/domain/comments"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
	"github.com/Togather-Foundation/meetups/internal/stats"
	"github.com/Togather-Foundation/meetups/internal/storage/memory"
	"github.com/Togather-Foundation/meetups/internal/storage/postgres"
)

// Repositories is one store's set of domain repositories.
type Repositories struct {
	Users        users.Repository
	Categories   categories.Repository
	Events       events.Repository
	Requests     requests.Repository
	Comments     comments.Repository
	Compilations compilations.Repository
}

func MemoryRepositories(s *memory.Store) Repositories {
	return Repositories{
		Users:        s.Users(),
		Categories:   s.Categories(),
		Events:       s.Events(),
		Requests:     s.Requests(),
		Comments:     s.Comments(),
		Compilations: s.Compilations(),
	}
}

func PostgresRepositories(s *postgres.Store) Repositories {
	return Repositories{
		Users:        s.Users(),
		Categories:   s.Categories(),
		Events:       s.Events(),
		Requests:     s.Requests(),
		Comments:     s.Comments(),
		Compilations: s.Compilations(),
	}
}

type Services struct {
	Users        *users.Service
	Categories   *categories.Service
	Lifecycle    *events.LifecycleService
	Public       *events.PublicService
	Requests     *requests.Service
	Comments     *comments.Service
	Compilations *compilations.Service
}

// Collaborators are the optional outbound sinks of the services. Nil values
// switch the matching side effect off.
type Collaborators struct {
	Hits     stats.Recorder
	Notifier requests.Notifier
}

func NewServices(repos Repositories, collab Collaborators, cfg config.Config) Services {
	leads := events.LeadTimes{
		Initiator: cfg.Lifecycle.InitiatorLeadTime,
		Admin:     cfg.Lifecycle.AdminLeadTime,
	}

	var reqOpts []requests.Option
	if collab.Notifier != nil {
		reqOpts = append(reqOpts, requests.WithNotifier(collab.Notifier))
	}

	return Services{
		Users:        users.NewService(repos.Users),
		Categories:   categories.NewService(repos.Categories),
		Lifecycle:    events.NewLifecycleService(repos.Events, events.WithLeadTimes(leads)),
		Public:       events.NewPublicService(repos.Events, collab.Hits, cfg.Stats.App),
		Requests:     requests.NewService(repos.Requests, reqOpts...),
		Comments:     comments.NewService(repos.Comments),
		Compilations: compilations.NewService(repos.Compilations),
	}
}
