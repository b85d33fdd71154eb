package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"photo-catalog/internal/backend"
	"photo-catalog/internal/catalog"
	"photo-catalog/internal/device"
	"photo-catalog/internal/fileops"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metadata"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/resolution"
	"photo-catalog/internal/transcode"
)

// storedImageDir is the subdirectory of the media root holding generated
// bitmaps.
const storedImageDir = "photographs"

// storedImageTimestamp has microsecond precision so concurrent stores
// within one second cannot collide on a filename.
const storedImageTimestamp = "20060102T150405.000000"

// Options controls a single ingestion run.
type Options struct {
	// Resolution selects the stored-bitmap size by preset name or "WxH".
	// Empty or unparseable means store at original size.
	Resolution string

	// ComputeHash enables content hashing and hash-based deduplication.
	ComputeHash bool

	// Recursive walks subdirectories of the root.
	Recursive bool

	// StoreImages writes a standardized bitmap for each photo under the
	// managed media directory.
	StoreImages bool

	// Device overrides the resolved device identity for every file.
	Device string

	// Progress, when set, is called after each file completes.
	Progress func(done, total int)
}

// Result aggregates the outcome of one ingestion run.
type Result struct {
	Total          int
	Succeeded      int
	HashesComputed int
	ImagesStored   int
	Errors         []string
}

// Success reports whether the run achieved anything: it is false only
// when nothing succeeded and at least one error occurred.
func (r *Result) Success() bool {
	return !(r.Succeeded == 0 && len(r.Errors) > 0)
}

// deviceResolver resolves filesystem paths to device identities.
// *device.Resolver implements it.
type deviceResolver interface {
	Resolve(path string) device.Location
}

// Ingestor drives the ingestion pipeline.
type Ingestor struct {
	Store     *catalog.Store
	Devices   deviceResolver
	Backends  *backend.Registry
	MediaRoot string
}

// New returns an Ingestor with the platform device resolver and the
// default backend registry. MediaRoot is the managed media directory;
// stored bitmaps are written beneath it and files inside it are never
// ingested.
func New(store *catalog.Store, mediaRoot string) *Ingestor {
	return &Ingestor{
		Store:     store,
		Devices:   device.NewResolver(),
		Backends:  backend.Default(),
		MediaRoot: mediaRoot,
	}
}

// Run ingests every candidate image under root. Individual file
// failures are collected in the Result; only discovery failures and
// context cancellation abort the run.
func (i *Ingestor) Run(ctx context.Context, root string, opts Options) (Result, error) {
	var result Result

	var res *resolution.Spec
	if opts.Resolution != "" {
		if res = resolution.Parse(opts.Resolution); res == nil {
			logging.Warn("unrecognized resolution %q, storing at original size", opts.Resolution)
		}
	}

	files, err := Discover(root, i.MediaRoot, opts.Recursive)
	if err != nil {
		return result, err
	}

	result.Total = len(files)
	metrics.IngestRunsTotal.Inc()
	logging.Info("ingesting %d candidate files from %s", len(files), root)

	for n, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := time.Now()
		outcome, err := i.ingestFile(path, res, opts, &result)
		metrics.IngestFileDuration.Observe(time.Since(start).Seconds())
		metrics.IngestFilesTotal.WithLabelValues(outcome).Inc()

		if err != nil {
			logging.Error("failed to ingest %s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		}

		if opts.Progress != nil {
			opts.Progress(n+1, len(files))
		}
	}

	return result, nil
}

// ingestFile processes one candidate inside its own transaction and
// reports the outcome label. A returned error means the transaction was
// rolled back and nothing for this file is visible in the catalog.
func (i *Ingestor) ingestFile(path string, res *resolution.Spec, opts Options, result *Result) (string, error) {
	loc := i.Devices.Resolve(path)
	if opts.Device != "" {
		loc.Device = opts.Device
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "failed", fmt.Errorf("failed to stat: %w", err)
	}

	tx, err := i.Store.BeginBatch()
	if err != nil {
		return "failed", err
	}

	outcome, err := i.ingestFileTx(tx, path, fi, loc, res, opts, result)
	if endErr := i.Store.EndBatch(tx, err); endErr != nil {
		return "failed", endErr
	}
	return outcome, nil
}

func (i *Ingestor) ingestFileTx(tx *sql.Tx, path string, fi os.FileInfo, loc device.Location, res *resolution.Spec, opts Options, result *Result) (string, error) {
	// Idempotent re-run: a known (path, device) pair is skipped outright.
	_, err := i.Store.FindPath(tx, loc.StoragePath, loc.Device)
	switch {
	case err == nil:
		logging.Debug("skipping known path %s on %s", loc.StoragePath, loc.Device)
		return "skipped", nil
	case !errors.Is(err, catalog.ErrNotFound):
		return "failed", err
	}

	photo, err := i.resolvePhotograph(tx, path, opts, result)
	if err != nil {
		return "failed", err
	}

	if opts.StoreImages && photo.StoredImage == nil {
		if stored, err := i.storeImage(path, res); err != nil {
			photo.HasErrors = true
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		} else {
			photo.StoredImage = &stored
			result.ImagesStored++
			metrics.IngestImagesStored.Inc()
		}
	}

	if photo.CaptureTime == nil || photo.CameraModel == nil {
		info, err := metadata.Extract(path)
		if err != nil {
			photo.HasErrors = true
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		} else {
			if photo.CaptureTime == nil {
				photo.CaptureTime = info.CaptureTime
			}
			if photo.CameraModel == nil {
				photo.CameraModel = info.CameraModel
			}
		}
	}

	if err := i.Store.UpdatePhotograph(tx, photo); err != nil {
		return "failed", err
	}

	pp := &catalog.PhotoPath{
		Path:           loc.StoragePath,
		Device:         loc.Device,
		Size:           fi.Size(),
		FileCreatedAt:  fileCreatedAt(fi),
		FileModifiedAt: fi.ModTime(),
		PhotographID:   &photo.ID,
	}
	if err := i.Store.CreateOrUpdatePath(tx, pp); err != nil {
		return "failed", err
	}

	result.Succeeded++
	return "succeeded", nil
}

// resolvePhotograph finds or creates the Photograph for the file,
// linking by content hash when hashing is enabled. A hash failure still
// yields an unlinked photograph flagged with HasErrors.
func (i *Ingestor) resolvePhotograph(tx *sql.Tx, path string, opts Options, result *Result) (*catalog.Photograph, error) {
	if !opts.ComputeHash {
		photo := &catalog.Photograph{}
		return photo, i.Store.CreatePhotograph(tx, photo)
	}

	hash, err := fileops.Hash(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		photo := &catalog.Photograph{HasErrors: true}
		return photo, i.Store.CreatePhotograph(tx, photo)
	}
	result.HashesComputed++
	metrics.IngestHashesComputed.Inc()

	photo, err := i.Store.FindPhotographByHash(tx, hash)
	switch {
	case err == nil:
		logging.Debug("linking %s to existing photograph %d", path, photo.ID)
		return photo, nil
	case !errors.Is(err, catalog.ErrNotFound):
		return nil, err
	}

	photo = &catalog.Photograph{ContentHash: &hash}
	return photo, i.Store.CreatePhotograph(tx, photo)
}

// storeImage writes the standardized bitmap for path under the managed
// media directory and returns its media-root-relative name.
func (i *Ingestor) storeImage(path string, res *resolution.Spec) (string, error) {
	dir := filepath.Join(i.MediaRoot, storedImageDir)

	// A failed backend decode is not final: the file falls through to
	// the generic path, which byte-copies when no resize was asked for.
	if data, ok := i.Backends.Process(path, res, transcode.FormatJPEG); ok {
		name := time.Now().Format(storedImageTimestamp) + transcode.FormatJPEG.Ext()
		if err := writeStored(filepath.Join(dir, name), data); err != nil {
			return "", err
		}
		return filepath.Join(storedImageDir, name), nil
	}

	if res == nil {
		// No resize requested: keep the original bytes and extension.
		name := time.Now().Format(storedImageTimestamp) + strings.ToLower(filepath.Ext(path))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := fileops.Copy(path, filepath.Join(dir, name)); err != nil {
			return "", err
		}
		return filepath.Join(storedImageDir, name), nil
	}

	name := time.Now().Format(storedImageTimestamp) + transcode.FormatJPEG.Ext()
	if err := transcode.ConvertFile(path, filepath.Join(dir, name), res, transcode.FormatJPEG, nil); err != nil {
		return "", err
	}
	return filepath.Join(storedImageDir, name), nil
}

func writeStored(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if !fileops.CheckDiskSpace(dir, int64(len(data))) {
		return fmt.Errorf("insufficient disk space in %s for %d bytes", dir, len(data))
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// fileCreatedAt extracts the inode change time, the closest stat gives
// to a creation time on Linux.
func fileCreatedAt(fi os.FileInfo) *time.Time {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	t := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	return &t
}
