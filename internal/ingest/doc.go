// Package ingest walks a directory tree and records every photo it
// finds in the catalog.
//
// Each candidate file is processed inside its own transaction: the
// device identity and storage path are resolved, the content hash links
// the path to an existing photograph or creates a new one, an optional
// standardized bitmap is stored under the managed media directory, and
// capture metadata is filled in. One file's failure rolls back only that
// file's records; the run continues and failures are aggregated in the
// Result.
package ingest
