// Package backend dispatches image files that need special decoding to
// format-specific backends.
//
// A Registry maps lowercase file extensions to backends. Each backend
// reports whether it can process a given file and, when asked, produces
// an encoded standard-format bitmap, optionally resized. The built-in
// RAW backend prefers the embedded JPEG preview and falls back to a full
// libvips decode when the library is available.
package backend
