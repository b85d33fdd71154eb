package fileops

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"photo-catalog/internal/logging"
)

const (
	// hashChunkSize bounds memory use while hashing arbitrarily large files.
	hashChunkSize = 4096

	// copyBufferSize is the chunk size for file copies.
	copyBufferSize = 1024 * 1024
)

// Hash computes the content digest of the file at path, reading it in
// fixed-size chunks. The digest is returned as 32 lowercase hex characters.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s after hashing: %v", path, err)
		}
	}()

	h := md5.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashChunkSize)); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Copy copies src to dst in chunks, writing through a temporary file and
// renaming it into place so dst never holds a partial copy.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", src, err)
	}
	defer func() {
		if err := in.Close(); err != nil {
			logging.Warn("failed to close %s after copy: %v", src, err)
		}
	}()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if _, err := io.CopyBuffer(out, in, make([]byte, copyBufferSize)); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to copy %s to %s: %w", src, tmp, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename %s to %s: %w", tmp, dst, err)
	}

	return nil
}

// CheckDiskSpace reports whether the filesystem holding dir has at least
// need bytes available. Probe failures count as insufficient space.
func CheckDiskSpace(dir string, need int64) bool {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		logging.Error("failed to check disk space for %s: %v", dir, err)
		return false
	}

	available := int64(stat.Bavail) * stat.Bsize
	return available >= need
}
