package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Postgres store metrics
var (
	DBPoolConnections = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_connections",
			Help:      "Postgres pool connections by state",
		},
		[]string{"state"}, // total, acquired, idle, max
	)

	DBTxDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_tx_duration_seconds",
			Help:      "Duration of store transactions by outcome",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"outcome"},
	)
)

// PoolStatter is satisfied by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// CollectPool samples pool statistics every interval until ctx is done.
func CollectPool(ctx context.Context, pool PoolStatter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		observePool(pool)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func observePool(pool PoolStatter) {
	if pool == nil {
		return
	}
	stat := pool.Stat()
	DBPoolConnections.WithLabelValues("total").Set(float64(stat.TotalConns()))
	DBPoolConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stat.MaxConns()))
}

// TxOutcome names how a store transaction ended. Domain failures roll the
// transaction back on purpose and are reported as "rejected".
func TxOutcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errs.Kind(err) != nil:
		return "rejected"
	default:
		return "failed"
	}
}

// ObserveTx records the duration of a transaction begun at start.
func ObserveTx(start time.Time, err error) {
	DBTxDuration.WithLabelValues(TxOutcome(err)).Observe(time.Since(start).Seconds())
}
