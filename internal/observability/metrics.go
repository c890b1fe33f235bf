package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthAttempts counts login attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_auth_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	// ContentEvents counts content mutations by kind (post_created, comment_added, ...).
	ContentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_content_events_total",
		Help: "Content mutations by kind",
	}, []string{"event"})

	// LikeToggles counts like toggles by resulting action.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_like_toggles_total",
		Help: "Like toggles by resulting action",
	}, []string{"action"})

	// MediaOperations counts media store calls by operation and result.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_media_operations_total",
		Help: "Media store operations by operation and result",
	}, []string{"operation", "result"})
)

const queryStartKey = "inkwell:query_start"

// RegisterGormMetrics records the latency of every statement run through db.
func RegisterGormMetrics(db *gorm.DB) error {
	cb := db.Callback()
	pairs := []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, p := range pairs {
		operation := p.operation
		if err := p.before("metrics:before_"+operation, startQueryTimer); err != nil {
			return err
		}
		if err := p.after("metrics:after_"+operation, func(tx *gorm.DB) {
			observeQuery(tx, operation)
		}); err != nil {
			return err
		}
	}
	return nil
}

func startQueryTimer(tx *gorm.DB) {
	tx.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(tx *gorm.DB, operation string) {
	v, ok := tx.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
