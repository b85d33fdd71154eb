package backend

import (
	"fmt"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/resolution"
	"photo-catalog/internal/transcode"
)

var (
	vipsInitMutex   sync.Mutex
	vipsInitialized bool
	vipsAvailable   bool
)

// InitVips initializes libvips for full RAW decoding. Call once at
// startup; programs that never ingest RAW files without embedded
// previews can skip it.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	// Route vips messages through our logger, filtered by app level.
	vipsLogLevel := vips.LogLevelWarning
	if logging.IsDebugEnabled() {
		vipsLogLevel = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings: ingestion processes one file at a time.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
	}
}

// VipsAvailable reports whether libvips has been initialized.
func VipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// vipsDecode fully decodes the file at path through libvips, resizing
// during processing when a resolution is given, and exports it in the
// requested format.
func vipsDecode(path string, res *resolution.Spec, format transcode.Format) ([]byte, error) {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load %s: %w", path, err)
	}
	defer ref.Close()

	if res != nil {
		fitW, fitH := transcode.FitDimensions(ref.Width(), ref.Height(), int(res.Width), int(res.Height))
		if err := ref.Thumbnail(fitW, fitH, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed for %s: %w", path, err)
		}
	}

	var data []byte
	switch format {
	case transcode.FormatPNG:
		data, _, err = ref.ExportPng(vips.NewPngExportParams())
	default:
		params := vips.NewJpegExportParams()
		params.Quality = transcode.JPEGQuality
		data, _, err = ref.ExportJpeg(params)
	}
	if err != nil {
		return nil, fmt.Errorf("vips export failed for %s: %w", path, err)
	}
	return data, nil
}
