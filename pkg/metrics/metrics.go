// Package metrics holds the Prometheus collectors shared by the server and the sync client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_update_log_size",
		Help: "Current number of records in the update log",
	})

	IngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_updates_ingested_total",
		Help: "Ingestion requests by result",
	}, []string{"result"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collab_updates_query_duration_seconds",
		Help:    "Duration of update log queries",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"mode"})

	SyncTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_sync_ticks_total",
		Help: "Sync loop ticks by result",
	}, []string{"result"})

	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_notifications_fired_total",
		Help: "Notifications fired for newly observed updates",
	})
)
