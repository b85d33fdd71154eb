package metadata

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	exiftool "github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"photo-catalog/internal/logging"
)

var registerOnce sync.Once

func registerParsers() {
	registerOnce.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})
}

// Info holds the metadata fields the catalog records for a photograph.
// Fields are nil when the file carries no value for them.
type Info struct {
	CaptureTime *time.Time
	CameraModel *string
}

// captureTimeTags in priority order. The original capture moment beats
// the digitization moment beats the file modification stamp.
var captureTimeTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// Extract reads capture time and camera model from the EXIF block of the
// file at path. Files without EXIF data yield an empty Info and no error;
// only I/O failures are reported.
func Extract(path string) (Info, error) {
	registerParsers()

	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	x, err := exif.Decode(f)
	if err != nil {
		logging.Debug("no EXIF data in %s: %v", path, err)
		return Info{}, nil
	}

	var info Info
	for _, name := range captureTimeTags {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, ok := parseEXIFTime(raw); ok {
			info.CaptureTime = &t
			break
		}
	}

	if tag, err := x.Get(exif.Model); err == nil {
		if raw, err := tag.StringVal(); err == nil {
			if model := cleanString(raw); model != "" {
				info.CameraModel = &model
			}
		}
	}

	return info, nil
}

// exifTimeLayouts covers the standard colon-separated EXIF date format and
// the dash-separated variant some firmware writes.
var exifTimeLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
}

func parseEXIFTime(raw string) (time.Time, bool) {
	raw = cleanString(raw)
	for _, layout := range exifTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// cleanString strips the NUL padding and whitespace some cameras leave in
// EXIF string fields.
func cleanString(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// Field is a single name/value pair from a metadata dump.
type Field struct {
	Name  string
	Value string
}

// Inspect returns every metadata field readable from the file at path for
// display purposes. File stats come first, then the full tag dump from the
// exiftool binary when available, otherwise from the built-in EXIF parser.
func Inspect(path string) ([]Field, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	fields := []Field{
		{Name: "File Name", Value: fi.Name()},
		{Name: "File Size", Value: fmt.Sprintf("%d", fi.Size())},
		{Name: "Modified", Value: fi.ModTime().Format(time.RFC3339)},
	}

	if dump, ok := exiftoolDump(path); ok {
		return append(fields, dump...), nil
	}
	return append(fields, exifDump(path)...), nil
}

// exiftoolDump shells out to exiftool for the richest possible tag dump.
// Reports false when the binary is missing or extraction fails, so callers
// can fall back to the built-in parser.
func exiftoolDump(path string) ([]Field, bool) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		logging.Debug("exiftool unavailable: %v", err)
		return nil, false
	}
	defer func() {
		if err := et.Close(); err != nil {
			logging.Warn("failed to close exiftool: %v", err)
		}
	}()

	fms := et.ExtractMetadata(path)
	if len(fms) == 0 || fms[0].Err != nil {
		return nil, false
	}

	fields := make([]Field, 0, len(fms[0].Fields))
	for name, value := range fms[0].Fields {
		fields = append(fields, Field{Name: name, Value: fmt.Sprintf("%v", value)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, true
}

type fieldCollector struct {
	fields []Field
}

func (c *fieldCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c.fields = append(c.fields, Field{Name: string(name), Value: tag.String()})
	return nil
}

func exifDump(path string) []Field {
	registerParsers()

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}

	var c fieldCollector
	if err := x.Walk(&c); err != nil {
		logging.Debug("EXIF walk failed for %s: %v", path, err)
	}
	sort.Slice(c.fields, func(i, j int) bool { return c.fields[i].Name < c.fields[j].Name })
	return c.fields
}
