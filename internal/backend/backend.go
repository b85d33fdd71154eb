package backend

import (
	"path/filepath"
	"strings"
	"sync"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/resolution"
	"photo-catalog/internal/transcode"
)

// Backend decodes files of formats the generic image path cannot handle.
type Backend interface {
	// CanProcess reports whether the backend can decode the file at path.
	CanProcess(path string) bool

	// Decode produces encoded image bytes in the requested format,
	// resized to res when given.
	Decode(path string, res *resolution.Spec, format transcode.Format) ([]byte, error)
}

// Registry maps file extensions to backends. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Backend)}
}

// Default returns a registry with the built-in backends registered.
func Default() *Registry {
	r := NewRegistry()
	raw := NewRawBackend()
	for ext := range rawExtensions {
		r.Register(ext, raw)
	}
	return r
}

// Register maps ext (with or without leading dot, any case) to b,
// replacing any previous backend for that extension.
func (r *Registry) Register(ext string, b Backend) {
	ext = normalizeExt(ext)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExt[ext] = b
}

// For returns the backend claiming the file at path, or nil when no
// registered backend can process it.
func (r *Registry) For(path string) Backend {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	b, ok := r.byExt[ext]
	r.mu.RUnlock()

	if !ok || !b.CanProcess(path) {
		return nil
	}
	return b
}

// Process implements the special-decode hook for the conversion path.
// Returns false when no backend claims the file or decoding fails, so
// the caller falls back to the generic path.
func (r *Registry) Process(path string, res *resolution.Spec, format transcode.Format) ([]byte, bool) {
	b := r.For(path)
	if b == nil {
		return nil, false
	}

	data, err := b.Decode(path, res, format)
	if err != nil {
		logging.Warn("backend decode failed for %s: %v", path, err)
		return nil, false
	}
	return data, true
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
