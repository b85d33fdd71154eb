// Package resolution parses target-size specifications for image resizing.
//
// A specification is either an explicit "WIDTHxHEIGHT" string (the x is
// case-insensitive, internal whitespace is tolerated) or one of a fixed
// set of named presets such as "1080p", "4k" or "instagram". Parsing is
// total: malformed input yields nil rather than an error.
package resolution
