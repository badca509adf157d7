// Package metrics exposes the auditor's Prometheus instrumentation.
package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "romaudit_dats_total",
		Help: "Total number of imported catalogs.",
	})
	SetsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "romaudit_sets_total",
		Help: "Total number of catalog sets.",
	})
	RomsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "romaudit_roms_total",
		Help: "Total number of catalog roms.",
	})
	FilesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "romaudit_files_total",
		Help: "Total number of scanned files.",
	})
	MatchesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "romaudit_matches_total",
		Help: "Total number of resolved matches by status.",
	}, []string{"status"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "romaudit_scan_duration_seconds",
		Help:    "Duration of directory scans in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dat"})

	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "romaudit_files_processed_total",
		Help: "Total number of files processed during scans, by outcome.",
	}, []string{"dat", "status"})
)

// Snapshot refreshes the database-derived gauges from the current store
// state.
func Snapshot(ctx context.Context, db *sql.DB) error {
	var dats, sets, roms, files int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dats").Scan(&dats); err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sets").Scan(&sets); err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roms").Scan(&roms); err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&files); err != nil {
		return err
	}

	DatsTotal.Set(float64(dats))
	SetsTotal.Set(float64(sets))
	RomsTotal.Set(float64(roms))
	FilesTotal.Set(float64(files))

	rows, err := db.QueryContext(ctx, "SELECT status, COUNT(*) FROM matches GROUP BY status")
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	seen := map[string]bool{"hash": true, "name": true, "match": true}
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return err
		}
		counts[status] = n
	}
	for status := range seen {
		MatchesTotal.WithLabelValues(status).Set(float64(counts[status]))
	}
	return rows.Err()
}

// RecordScanDuration records the elapsed time of a scan against a dat.
func RecordScanDuration(datName string, start time.Time) {
	ScanDuration.WithLabelValues(datName).Observe(time.Since(start).Seconds())
}
