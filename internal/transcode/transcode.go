package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"photo-catalog/internal/fileops"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/resolution"

	// Decoders for the generic path beyond the stdlib formats.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the fixed encode quality for lossy output. High enough
// to avoid visible artifacts while bounding output size.
const JPEGQuality = 95

// Format is a standard output image format.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return 0, fmt.Errorf("unsupported output format %q (want JPEG or PNG)", name)
}

// Ext returns the file extension for the format, with the leading dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

func (f Format) String() string {
	if f == FormatPNG {
		return "PNG"
	}
	return "JPEG"
}

// FitDimensions computes the output size for fitting a srcW x srcH image
// to a dstW x dstH target while preserving aspect ratio. A relatively
// wider source fits to the target width, otherwise to the target height.
func FitDimensions(srcW, srcH, dstW, dstH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return srcW, srcH
	}

	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(dstW) / float64(dstH)

	if srcAspect > dstAspect {
		return dstW, int(float64(dstW)/srcAspect + 0.5)
	}
	return int(float64(dstH)*srcAspect + 0.5), dstH
}

// DecodeFile reads and decodes the image at path, applying any EXIF
// orientation so downstream processing sees upright pixels.
func DecodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// EncodeResized writes img to w in the given format, first fitting it to
// res when a resolution is supplied. JPEG output is flattened onto white
// when the source carries transparency.
func EncodeResized(w io.Writer, img image.Image, res *resolution.Spec, format Format) error {
	if res != nil {
		b := img.Bounds()
		fitW, fitH := FitDimensions(b.Dx(), b.Dy(), int(res.Width), int(res.Height))
		if fitW != b.Dx() || fitH != b.Dy() {
			img = imaging.Resize(img, fitW, fitH, imaging.Lanczos)
		}
	}

	switch format {
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return imaging.Encode(w, flattenWhite(img), imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	}
}

// flattenWhite composites images with transparency onto an opaque white
// background. Fully opaque images pass through untouched.
func flattenWhite(img image.Image) image.Image {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok && o.Opaque() {
		return img
	}

	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
	return flat
}

// SpecialDecoder produces ready-to-write encoded bytes for files the
// generic decode path cannot handle, such as RAW formats. A false return
// means no special handling applies and the caller should fall back.
type SpecialDecoder interface {
	Process(path string, res *resolution.Spec, format Format) ([]byte, bool)
}

// ConvertFile converts the image at src into dst, resizing to res when
// given. A special decoder, when supplied, gets first claim on the file;
// otherwise the generic decode/encode path runs. The destination
// directory is created as needed and free space is checked before the
// write.
func ConvertFile(src, dst string, res *resolution.Spec, format Format, special SpecialDecoder) error {
	if err := convertFile(src, dst, res, format, special); err != nil {
		metrics.ConversionsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.ConversionsTotal.WithLabelValues("succeeded").Inc()
	return nil
}

func convertFile(src, dst string, res *resolution.Spec, format Format, special SpecialDecoder) error {
	var buf bytes.Buffer

	if special != nil {
		if data, ok := special.Process(src, res, format); ok {
			buf.Write(data)
		}
	}

	if buf.Len() == 0 {
		img, err := DecodeFile(src)
		if err != nil {
			return err
		}
		if err := EncodeResized(&buf, img, res, format); err != nil {
			return fmt.Errorf("failed to encode %s: %w", src, err)
		}
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if !fileops.CheckDiskSpace(dir, int64(buf.Len())) {
		return fmt.Errorf("insufficient disk space in %s for %d bytes", dir, buf.Len())
	}

	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logging.Warn("failed to remove %s: %v", tmp, rmErr)
		}
		return fmt.Errorf("failed to finalize %s: %w", dst, err)
	}

	logging.Debug("converted %s -> %s (%s, %d bytes)", src, dst, format, buf.Len())
	return nil
}
