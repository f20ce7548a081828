// Package api assembles the HTTP surface: routes, middleware and the
// service graph behind them.
package api

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/handlers"
	"github.com/Togather-Foundation/meetups/internal/api/middleware"
	"github.com/Togather-Foundation/meetups/internal/audit"
	"github.com/Togather-Foundation/meetups/internal/auth"
	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// RouterDeps carries everything NewRouter wires. Pool and River are nil when
// the memory store is in use.
type RouterDeps struct {
	Config   config.Config
	Logger   zerolog.Logger
	Services Services
	Store    handlers.Pinger
	Pool     *pgxpool.Pool
	River    *river.Client[pgx.Tx]
	Build    BuildInfo
}

func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	env := cfg.Environment
	svc := deps.Services

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	auditLogger := audit.NewLogger(deps.Logger)

	userEvents := handlers.NewUserEventsHandler(svc.Lifecycle, svc.Requests, env)
	userRequests := handlers.NewUserRequestsHandler(svc.Requests, env)
	userComments := handlers.NewUserCommentsHandler(svc.Comments, env)
	admin := handlers.NewAdminHandler(svc.Users, svc.Categories, svc.Lifecycle, svc.Compilations, auditLogger, env)
	public := handlers.NewPublicHandler(svc.Public, svc.Categories, svc.Compilations, cfg.RateLimit.TrustedProxyCIDRs, env)

	storeName := cfg.Store
	health := handlers.NewHealthChecker(deps.Store, storeName, deps.Pool, deps.River, deps.Build.Version, deps.Build.GitCommit)

	// One limiter store shared by every route; the tier is set per route
	// before it runs.
	limit := middleware.RateLimit(cfg.RateLimit, env)
	userTier := chain(
		middleware.WithRateLimitTierHandler(middleware.TierUser),
		limit,
		middleware.UserAuth(jwtManager, cfg.Auth.RequireUserToken, env),
		middleware.PublicRequestSize(),
	)
	adminTier := chain(
		middleware.WithRateLimitTierHandler(middleware.TierAdmin),
		limit,
		middleware.AdminAuth(jwtManager, env),
		middleware.AdminRequestSize(),
	)
	publicTier := chain(
		middleware.WithRateLimitTierHandler(middleware.TierPublic),
		limit,
	)

	mux := http.NewServeMux()
	user := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, userTier(h)) }
	adm := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, adminTier(h)) }
	pub := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, publicTier(h)) }

	// Initiator events and their participation requests
	user("POST /users/{userId}/events", userEvents.Create)
	user("GET /users/{userId}/events", userEvents.List)
	user("GET /users/{userId}/events/{eventId}", userEvents.Get)
	user("PATCH /users/{userId}/events/{eventId}", userEvents.Update)
	user("GET /users/{userId}/events/{eventId}/requests", userEvents.ListRequests)
	user("PATCH /users/{userId}/events/{eventId}/requests", userEvents.UpdateRequests)

	// Own participation requests
	user("POST /users/{userId}/requests", userRequests.Submit)
	user("GET /users/{userId}/requests", userRequests.List)
	user("PATCH /users/{userId}/requests/{requestId}/cancel", userRequests.Cancel)

	// Comments
	user("POST /users/{userId}/events/{eventId}/comments", userComments.Add)
	user("GET /users/{userId}/events/{eventId}/comments", userComments.ListByEvent)
	user("POST /users/{userId}/events/{eventId}/comments/{commentId}", userComments.Reply)
	user("PATCH /users/{userId}/events/{eventId}/comments/{commentId}", userComments.UpdateText)
	user("PATCH /users/{userId}/events/{eventId}/comments/{commentId}/status", userComments.SetStatus)
	user("PATCH /users/{userId}/events/{eventId}/comments/settings", userComments.Settings)
	user("GET /users/{userId}/comments", userComments.ListByAuthor)

	// Admin
	adm("POST /admin/users", admin.CreateUser)
	adm("GET /admin/users", admin.ListUsers)
	adm("DELETE /admin/users/{id}", admin.DeleteUser)
	adm("POST /admin/categories", admin.CreateCategory)
	adm("PATCH /admin/categories/{id}", admin.UpdateCategory)
	adm("DELETE /admin/categories/{id}", admin.DeleteCategory)
	adm("GET /admin/events", admin.ListEvents)
	adm("PATCH /admin/events/{eventId}", admin.UpdateEvent)
	adm("POST /admin/compilations", admin.CreateCompilation)
	adm("GET /admin/compilations/{compId}", admin.GetCompilation)
	adm("PATCH /admin/compilations/{compId}", admin.UpdateCompilation)
	adm("DELETE /admin/compilations/{compId}", admin.DeleteCompilation)

	// Public
	pub("GET /events", public.SearchEvents)
	pub("GET /events/{id}", public.GetEvent)
	pub("GET /categories", public.ListCategories)
	pub("GET /categories/{catId}", public.GetCategory)
	pub("GET /compilations", public.ListCompilations)
	pub("GET /compilations/{compId}", public.GetCompilation)

	// Operational
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz(deps.Store))
	mux.Handle("GET /health", health.Health())
	mux.Handle("GET /version", VersionHandler(deps.Build, storeName))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

// chain applies middlewares so the first one listed runs first.
func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
