// Package metadata reads photographic metadata from image files.
//
// Extract pulls the fields the catalog stores: capture time and camera
// model, using the standard EXIF tag priority. Inspect produces a full
// metadata dump for display, preferring the exiftool binary when it is
// installed and falling back to the built-in EXIF parser.
package metadata
