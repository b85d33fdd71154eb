// Package transcode resizes and re-encodes images into the standard
// output formats.
//
// The resize policy preserves aspect ratio: the source is fitted inside
// the target box along whichever axis binds. JPEG output flattens any
// alpha channel onto an opaque white background and encodes at a fixed
// high quality. ConvertFile drives a full file-to-file conversion,
// consulting a special-format decoder before the generic path.
package transcode
