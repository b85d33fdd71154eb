package backend

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/resolution"
	"photo-catalog/internal/transcode"
)

// rawExtensions is the set of camera RAW file extensions the RAW backend
// claims, lowercase with leading dot.
var rawExtensions = map[string]struct{}{
	".3fr": {}, ".ari": {}, ".arw": {}, ".bay": {}, ".braw": {},
	".cap": {}, ".cr2": {}, ".cr3": {}, ".crw": {}, ".dcr": {},
	".dcs": {}, ".dng": {}, ".drf": {}, ".eip": {}, ".erf": {},
	".fff": {}, ".gpr": {}, ".iiq": {}, ".k25": {}, ".kdc": {},
	".mdc": {}, ".mef": {}, ".mos": {}, ".mrw": {}, ".nef": {},
	".nrw": {}, ".obm": {}, ".orf": {}, ".pef": {}, ".ptx": {},
	".pxn": {}, ".r3d": {}, ".raf": {}, ".raw": {}, ".rw2": {},
	".rwl": {}, ".rwz": {}, ".sr2": {}, ".srf": {}, ".srw": {},
	".x3f": {},
}

// IsRawExtension reports whether ext (lowercase, with dot) is a known
// camera RAW extension.
func IsRawExtension(ext string) bool {
	_, ok := rawExtensions[ext]
	return ok
}

var rawParsersOnce sync.Once

// RawBackend decodes camera RAW files. It prefers the embedded JPEG
// preview most RAW formats carry, which avoids a costly full demosaic,
// and falls back to a full libvips decode when the library is available.
type RawBackend struct{}

func NewRawBackend() *RawBackend {
	rawParsersOnce.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})
	return &RawBackend{}
}

// CanProcess reports whether path is an existing file with a known RAW
// extension.
func (b *RawBackend) CanProcess(path string) bool {
	if !IsRawExtension(strings.ToLower(filepath.Ext(path))) {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// Decode produces encoded image bytes for the RAW file at path.
func (b *RawBackend) Decode(path string, res *resolution.Spec, format transcode.Format) ([]byte, error) {
	if preview := embeddedPreview(path); preview != nil {
		if res == nil && format == transcode.FormatJPEG {
			return preview, nil
		}

		img, err := imaging.Decode(bytes.NewReader(preview), imaging.AutoOrientation(true))
		if err == nil {
			var buf bytes.Buffer
			if err := transcode.EncodeResized(&buf, img, res, format); err != nil {
				return nil, fmt.Errorf("failed to encode preview of %s: %w", path, err)
			}
			return buf.Bytes(), nil
		}
		logging.Debug("unusable embedded preview in %s: %v", path, err)
	}

	if VipsAvailable() {
		return vipsDecode(path, res, format)
	}
	return nil, fmt.Errorf("no usable embedded preview in %s and libvips is unavailable", path)
}

// embeddedPreview extracts the embedded JPEG thumbnail from the EXIF
// block, or nil when the file carries none.
func embeddedPreview(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		logging.Debug("failed to open %s for preview: %v", path, err)
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

	preview, err := x.JpegThumbnail()
	if err != nil {
		return nil
	}
	return preview
}
