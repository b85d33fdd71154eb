package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	IngestRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_ingest_runs_total",
			Help: "Total number of ingestion runs",
		},
	)

	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_ingest_files_total",
			Help: "Total number of candidate files by outcome",
		},
		[]string{"outcome"}, // "succeeded", "skipped", "failed"
	)

	IngestHashesComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_ingest_hashes_computed_total",
			Help: "Total number of content hashes computed",
		},
	)

	IngestImagesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_ingest_images_stored_total",
			Help: "Total number of bitmaps stored in the managed media directory",
		},
	)

	IngestFileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_ingest_file_duration_seconds",
			Help:    "Per-file processing time, including hash, decode and commit",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_conversions_total",
			Help: "Total number of image conversions by status",
		},
		[]string{"status"}, // "succeeded", "failed"
	)
)

// Catalog metrics
var (
	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_transaction_duration_seconds",
			Help:    "Catalog transaction duration by result",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"result"}, // "commit", "rollback"
	)
)
