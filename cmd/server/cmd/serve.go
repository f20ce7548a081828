package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/meetups/internal/api"
	"github.com/Togather-Foundation/meetups/internal/api/handlers"
	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
	"github.com/Togather-Foundation/meetups/internal/email"
	"github.com/Togather-Foundation/meetups/internal/jobs"
	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/Togather-Foundation/meetups/internal/notify"
	"github.com/Togather-Foundation/meetups/internal/stats"
	"github.com/Togather-Foundation/meetups/internal/storage/memory"
	"github.com/Togather-Foundation/meetups/internal/storage/postgres"
	"github.com/Togather-Foundation/meetups/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout    = 10 * time.Second
	dbMetricsInterval  = 15 * time.Second
	poolConnectTimeout = 10 * time.Second
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Meetups HTTP server",
		Long: `Start the Meetups HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (and --config if given)
- Open the configured store (postgres or memory)
- Start River workers for stats hits, notifications and the stale request sweep
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Run without a database
  STORE=memory server serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
	return cmd
}

func runServer(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	zerolog.DefaultContextLogger = &logger
	slogLogger := config.NewSlogLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(slogLogger)
	logger.Info().Str("version", Version).Str("store", cfg.Store).Msg("starting meetups server")

	metrics.Init(Version, GitCommit, BuildDate)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing init: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	rt, err := buildRuntime(ctx, cfg, logger, slogLogger)
	if err != nil {
		return err
	}
	defer rt.close()

	services := api.NewServices(rt.repos, rt.collab, cfg)
	rt.sweeper.requests = services.Requests

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(api.RouterDeps{
			Config:   cfg,
			Logger:   logger,
			Services: services,
			Store:    rt.store,
			Pool:     rt.pool,
			River:    rt.river,
			Build:    api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate},
		}),
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}

	g, gctx := errgroup.WithContext(ctx)

	// Workers start before anything else joins the group.
	if rt.river != nil {
		if err := startJobs(gctx, g, rt.river, logger); err != nil {
			return err
		}
	}

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if rt.river == nil {
		g.Go(func() error {
			rt.sweeper.loop(gctx, cfg.Jobs.SweepInterval, logger)
			return nil
		})
	}

	if rt.async != nil {
		g.Go(func() error { return rt.async.Run(gctx) })
	}
	if rt.pool != nil {
		g.Go(func() error {
			metrics.CollectPool(gctx, rt.pool, dbMetricsInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

type jobRunner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// startJobs starts runner and registers its graceful stop on g. On error
// nothing has been added to g.
func startJobs(ctx context.Context, g *errgroup.Group, runner jobRunner, logger zerolog.Logger) error {
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("river workers failed to start: %w", err)
	}
	logger.Info().Msg("river background job workers started")
	g.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := runner.Stop(stopCtx); err != nil {
			return fmt.Errorf("river shutdown: %w", err)
		}
		logger.Info().Msg("river workers stopped")
		return nil
	})
	return nil
}

// backend is the store plus the outbound collaborators chosen for it.
type backend struct {
	repos   api.Repositories
	store   handlers.Pinger
	pool    *pgxpool.Pool
	river   *river.Client[pgx.Tx]
	async   *stats.AsyncRecorder
	collab  api.Collaborators
	sweeper *staleSweeper
	closers []func()
}

func (rt *backend) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func buildRuntime(ctx context.Context, cfg config.Config, logger zerolog.Logger, slogLogger *slog.Logger) (*backend, error) {
	rt := &backend{sweeper: &staleSweeper{}}

	switch cfg.Store {
	case config.StoreMemory:
		store := memory.New()
		rt.store = store
		rt.repos = api.MemoryRepositories(store)
	default:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		store, err := postgres.NewStore(pool)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.pool = pool
		rt.store = store
		rt.repos = api.PostgresRepositories(store)
	}

	publisher, err := buildPublisher(cfg, logger, users.NewService(rt.repos.Users))
	if err != nil {
		rt.close()
		return nil, err
	}
	if publisher.amqp != nil {
		rt.closers = append(rt.closers, func() {
			if err := publisher.amqp.Close(); err != nil {
				logger.Warn().Err(err).Msg("rabbitmq close error")
			}
		})
	}

	var sender stats.Sender
	if cfg.Stats.URL != "" {
		sender = stats.NewClient(cfg.Stats.URL,
			stats.WithHTTPClient(&http.Client{Timeout: cfg.Stats.Timeout}),
			stats.WithRateLimit(cfg.Stats.RatePerSecond),
		)
	} else {
		logger.Warn().Msg("STATS_SERVER_URL not set, visit hits are not recorded")
	}

	if rt.pool != nil && cfg.Jobs.Enabled {
		if err := postgres.MigrateRiver(ctx, rt.pool); err != nil {
			rt.close()
			return nil, fmt.Errorf("river migrations: %w", err)
		}
		workers := jobs.NewWorkers(jobs.Dependencies{
			Stats:     sender,
			Publisher: publisher.fanout,
			Requests:  rt.sweeper,
			Logger:    logger,
		})
		client, err := jobs.NewClient(rt.pool, cfg.Jobs, workers, slogLogger,
			[]rivertype.Hook{metrics.NewRiverMetricsHook()},
			jobs.NewPeriodicJobs(cfg.Jobs.SweepInterval),
		)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("river client: %w", err)
		}
		rt.river = client

		policy := jobs.NewRetryPolicy(cfg.Jobs)
		rt.collab.Notifier = jobs.NewNotificationEnqueuer(client, policy)
		if sender != nil {
			rt.collab.Hits = jobs.NewHitEnqueuer(client, policy)
		}
		return rt, nil
	}

	rt.collab.Notifier = notify.NewDirect(publisher.fanout)
	if sender != nil {
		rt.async = stats.NewAsyncRecorder(sender, cfg.Jobs.StatsBufferSize, logger)
		rt.collab.Hits = rt.async
	}
	return rt, nil
}

func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if db.MaxConnections > 0 {
		poolCfg.MaxConns = int32(db.MaxConnections)
	}
	connectCtx, cancel := context.WithTimeout(ctx, poolConnectTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

type publisherSet struct {
	fanout *notify.Fanout
	amqp   *notify.AMQPPublisher
}

// buildPublisher assembles the notification sinks. The log sink is used when
// neither a broker nor email is configured.
func buildPublisher(cfg config.Config, logger zerolog.Logger, lookup notify.UserLookup) (publisherSet, error) {
	set := publisherSet{fanout: notify.NewFanout()}
	if cfg.Notifications.AMQPURL != "" {
		p, err := notify.NewAMQPPublisher(cfg.Notifications.AMQPURL, cfg.Notifications.AMQPExchange)
		if err != nil {
			return publisherSet{}, err
		}
		set.fanout.Add("amqp", p)
		set.amqp = p
	}
	if cfg.Notifications.Email.Enabled {
		mailer, err := email.NewService(cfg.Notifications.Email, logger)
		if err != nil {
			if set.amqp != nil {
				_ = set.amqp.Close()
			}
			return publisherSet{}, err
		}
		set.fanout.Add("email", notify.NewEmailPublisher(lookup, mailer))
	}
	if set.fanout.Len() == 0 {
		set.fanout.Add("log", notify.LogPublisher{})
	}
	return set, nil
}

// staleSweeper forwards the periodic sweep to the request service, which is
// built after the job workers that call it.
type staleSweeper struct {
	requests jobs.StaleExpirer
}

func (s *staleSweeper) ExpireStale(ctx context.Context) (int, error) {
	if s.requests == nil {
		return 0, fmt.Errorf("request service not ready")
	}
	return s.requests.ExpireStale(ctx)
}

// loop runs the sweep on a ticker for deployments without River.
func (s *staleSweeper) loop(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireStale(logger.WithContext(ctx))
			if err != nil {
				logger.Error().Err(err).Msg("stale request sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("rejected", n).Msg("stale requests rejected")
			}
		}
	}
}
