// Package metrics provides Prometheus instrumentation for the photo catalog.
//
// All metrics are prefixed with "photo_catalog_" and registered with the
// default registry via promauto. The ingestion orchestrator records files
// by outcome (succeeded, skipped, failed), hashes computed, images stored
// and per-file processing time; the convert command records conversions by
// status.
//
// The tools are short-lived batch processes, so the collectors exist mainly
// for embedding: a wrapping process can gather the default registry after a
// run, and long-lived supervisors can expose it with promhttp.
package metrics
