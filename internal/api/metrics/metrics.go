// Package metrics defines and registers the custom Prometheus metrics of the
// dashboard role service. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics are registered with the default Prometheus registry on package
// initialisation and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard_roles"

// ── Resolution metrics ───────────────────────────────────────────────────────

// RoleResolutionsTotal counts login-time role resolutions.
// Label:
//   - outcome: "remote", "fallback", "empty", "error" or "stale"
var RoleResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_resolutions_total",
		Help:      "Total number of role resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// RoleSelectionsTotal counts explicit role selections.
// Label:
//   - role: "artist" or "company"
var RoleSelectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_selections_total",
		Help:      "Total number of role selections, by role.",
	},
	[]string{"role"},
)

// ── Sync metrics ─────────────────────────────────────────────────────────────

// RoleWritesTotal counts remote role writes.
// Label:
//   - outcome: "ok", "not_found", "error" or "dropped"
var RoleWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_writes_total",
		Help:      "Total number of remote role writes, by outcome.",
	},
	[]string{"outcome"},
)

// SyncQueueDepth tracks the number of role writes waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var SyncQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_queue_depth",
		Help:      "Current number of role writes pending in each sync worker channel.",
	},
	[]string{"worker_id"},
)

// ── Profile API metrics ──────────────────────────────────────────────────────

// ProfileRequestDuration measures round trips to the profile API.
// Labels:
//   - method: "GET" or "PUT"
//   - code: HTTP status code, or "error" when no response was received
var ProfileRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_request_duration_seconds",
		Help:      "Duration of profile API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "code"},
)
