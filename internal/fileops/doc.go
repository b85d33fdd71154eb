// Package fileops provides the low-level file primitives of the ingestion
// pipeline: chunked content hashing, atomic copies and a free-space check.
//
// Hashing reads in fixed 4 KiB chunks so memory use is bounded regardless
// of file size. The resulting digest (32 lowercase hex characters) is the
// catalog's sole deduplication key: files with identical bytes hash
// identically no matter where they live.
package fileops
