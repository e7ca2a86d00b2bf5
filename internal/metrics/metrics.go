// Package metrics defines and registers the Prometheus metrics for parkspot.
// All metrics register with the default registry through promauto on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parkspot"

// ── Repository metrics ───────────────────────────────────────────────────────

// StoreOperationsTotal counts repository calls.
// Labels:
//   - op: create, list, list_by_user, set_availability, remove, get
//   - result: ok, not_found, invalid, transport, internal
var StoreOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Total number of spot repository operations, by result.",
	},
	[]string{"op", "result"},
)

// StoreOperationDuration measures repository round-trips to the store.
var StoreOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of spot repository operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Identity metrics ─────────────────────────────────────────────────────────

// MirrorWritesTotal counts remote mirror attempts of the current user.
// Label:
//   - result: ok, failed, dropped
var MirrorWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_mirror_writes_total",
		Help:      "Total number of user mirror writes to the remote store.",
	},
	[]string{"result"},
)

// ── Feed metrics ─────────────────────────────────────────────────────────────

// FeedSnapshotsTotal counts snapshots received from live watches.
// Label:
//   - outcome: applied, stale, coalesced
var FeedSnapshotsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_snapshots_total",
		Help:      "Total number of live-feed snapshots, by outcome.",
	},
	[]string{"outcome"},
)

// FeedActiveSubscriptions tracks subscriptions currently holding a watch.
var FeedActiveSubscriptions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_active_subscriptions",
		Help:      "Current number of live-feed subscriptions.",
	},
)

// FeedErrorsTotal counts watches that ended with an error.
var FeedErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_errors_total",
		Help:      "Total number of live-feed subscriptions ended by a store error.",
	},
)

// FeedSpots tracks the size of the most recently applied snapshot.
var FeedSpots = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_spots",
		Help:      "Number of spots in the most recently applied snapshot.",
	},
)
