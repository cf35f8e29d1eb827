package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vinoteca_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vinoteca_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthOutcomes counts identity-token exchanges by outcome.
	AuthOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vinoteca_auth_outcomes_total",
		Help: "Identity token exchanges by outcome",
	}, []string{"outcome"})

	// IdentityKeyFetches counts signing-key set fetches by result.
	IdentityKeyFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vinoteca_identity_key_fetches_total",
		Help: "Identity provider key set fetches by result",
	}, []string{"result"})

	// DomainMutations counts successful writes by resource and action.
	DomainMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vinoteca_domain_mutations_total",
		Help: "Successful create, update and delete operations",
	}, []string{"resource", "action"})
)

// Auth outcome labels.
const (
	AuthOutcomeExistingUser = "existing_user"
	AuthOutcomeProvisioned  = "provisioned"
	AuthOutcomeRejected     = "rejected"
	AuthOutcomeFailed       = "failed"
)

// RecordMutation increments DomainMutations.
func RecordMutation(resource, action string) {
	DomainMutations.WithLabelValues(resource, action).Inc()
}

const queryStartKey = "vinoteca:query_started_at"

func startQueryTimer(tx *gorm.DB) {
	tx.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
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
}

// InstrumentGorm registers callbacks that feed DatabaseQueryLatency for every
// statement executed through db.
func InstrumentGorm(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("metrics:before_create", startQueryTimer),
		cb.Create().After("gorm:create").Register("metrics:after_create", observeQuery("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", startQueryTimer),
		cb.Query().After("gorm:query").Register("metrics:after_query", observeQuery("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", startQueryTimer),
		cb.Update().After("gorm:update").Register("metrics:after_update", observeQuery("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", startQueryTimer),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", observeQuery("delete")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", startQueryTimer),
		cb.Row().After("gorm:row").Register("metrics:after_row", observeQuery("row")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", startQueryTimer),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", observeQuery("raw")),
	)
}
