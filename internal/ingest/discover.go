package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"photo-catalog/internal/backend"
	"photo-catalog/internal/logging"
)

// imageExtensions is the set of directly decodable image extensions.
// RAW extensions are recognized through the backend registry.
var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".bmp": {}, ".tif": {}, ".tiff": {}, ".webp": {},
	".heic": {}, ".heif": {}, ".pbm": {},
}

// isCandidate reports whether path looks like an ingestible image.
func isCandidate(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExtensions[ext]; ok {
		return true
	}
	return backend.IsRawExtension(ext)
}

// underPath reports whether path is root or falls below it.
func underPath(path, root string) bool {
	if root == "" {
		return false
	}
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// Discover returns the candidate image files under root, which may be a
// directory or a single file. Anything under excludeRoot (the managed
// media directory) is skipped; excluded directories are pruned entirely
// so generated bitmaps are never re-ingested as source files.
func Discover(root, excludeRoot string, recursive bool) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	var absExclude string
	if excludeRoot != "" {
		if absExclude, err = filepath.Abs(excludeRoot); err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", excludeRoot, err)
		}
	}

	fi, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", absRoot, err)
	}

	if !fi.IsDir() {
		if underPath(absRoot, absExclude) {
			logging.Warn("refusing to ingest %s: inside the managed media directory", absRoot)
			return nil, nil
		}
		if !isCandidate(absRoot) {
			return nil, fmt.Errorf("%s is not a recognized image file", absRoot)
		}
		return []string{absRoot}, nil
	}

	if !recursive {
		entries, err := os.ReadDir(absRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", absRoot, err)
		}
		var files []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(absRoot, entry.Name())
			if !underPath(path, absExclude) && isCandidate(path) {
				files = append(files, path)
			}
		}
		return files, nil
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if underPath(path, absExclude) {
				logging.Debug("pruning managed media directory %s", path)
				return fs.SkipDir
			}
			return nil
		}
		if isCandidate(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}
	return files, nil
}
