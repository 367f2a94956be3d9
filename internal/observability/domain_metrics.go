package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	warehouseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickuplens_warehouse_queries_total",
			Help: "Total number of warehouse queries by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)
	warehouseQueryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickuplens_warehouse_query_duration_seconds",
			Help:    "Wall time spent waiting for warehouse query results.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"backend"},
	)
	warehouseRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickuplens_warehouse_rows_total",
			Help: "Total number of rows returned by warehouse queries.",
		},
		[]string{"backend"},
	)
	snapshotBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickuplens_snapshot_bytes_total",
			Help: "Total bytes of snapshot files written by format.",
		},
		[]string{"format"},
	)
	mapFeaturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickuplens_map_features_total",
			Help: "Total number of map features rendered by kind.",
		},
		[]string{"kind"},
	)
	objectStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickuplens_object_store_operations_total",
			Help: "Total number of object store calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		warehouseQueriesTotal,
		warehouseQueryDurationSeconds,
		warehouseRowsTotal,
		snapshotBytesTotal,
		mapFeaturesTotal,
		objectStoreOpsTotal,
	)
}

func ObserveWarehouseQuery(backend string, rows int, elapsed time.Duration, err error) {
	if backend == "" {
		backend = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	warehouseQueriesTotal.WithLabelValues(backend, outcome).Inc()
	warehouseQueryDurationSeconds.WithLabelValues(backend).Observe(elapsed.Seconds())
	if rows > 0 {
		warehouseRowsTotal.WithLabelValues(backend).Add(float64(rows))
	}
}

func ObserveSnapshotWrite(format string, size int64) {
	if size < 0 {
		size = 0
	}
	snapshotBytesTotal.WithLabelValues(format).Add(float64(size))
}

func ObserveMapFeatures(markers, lines int) {
	mapFeaturesTotal.WithLabelValues("marker").Add(float64(markers))
	mapFeaturesTotal.WithLabelValues("line").Add(float64(lines))
}

// ObserveObjectStoreOp counts a store call as ok, not_found or error.
func ObserveObjectStoreOp(operation string, err error, notFound bool) {
	outcome := "ok"
	switch {
	case notFound:
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	objectStoreOpsTotal.WithLabelValues(operation, outcome).Inc()
}
