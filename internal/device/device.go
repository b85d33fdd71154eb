package device

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"photo-catalog/internal/logging"
)

// Location is the resolved identity of a filesystem path.
type Location struct {
	// Device is the stable identifier of the volume holding the path.
	Device string

	// StoragePath is the path relative to the mount point for non-root
	// mounts, otherwise the absolute path.
	StoragePath string

	// MountPoint is the matched mount point, empty when the path resolved
	// against the root filesystem or via the fallback.
	MountPoint string
}

// Resolver maps paths to Locations using the system mount table and the
// /dev/disk symlink farm. The zero value is not usable; call NewResolver.
type Resolver struct {
	// MountsPath is the mount table to parse, normally /proc/mounts.
	MountsPath string

	// DiskByPath is the directory holding by-label/ and by-uuid/ symlinks,
	// normally /dev/disk.
	DiskByPath string

	// Hostname reports the machine hostname for root-filesystem paths.
	Hostname func() (string, error)
}

// NewResolver returns a Resolver wired to the platform defaults.
func NewResolver() *Resolver {
	return &Resolver{
		MountsPath: "/proc/mounts",
		DiskByPath: "/dev/disk",
		Hostname:   os.Hostname,
	}
}

type mountEntry struct {
	device string
	point  string
	fstype string
}

// Resolve determines the device identity and storage path for path.
// It never fails: on any probe error the result is hostname + absolute path.
func (r *Resolver) Resolve(path string) Location {
	abs, err := filepath.Abs(path)
	if err != nil {
		return r.fallback(path)
	}

	canon := canonicalize(abs)

	mounts, err := r.readMounts()
	if err != nil {
		logging.Debug("mount table unavailable (%v), using hostname for %s", err, path)
		return r.fallback(canon)
	}

	best := bestMount(mounts, canon)
	if best == nil || best.point == "/" {
		return Location{Device: r.hostname(), StoragePath: canon}
	}

	rel, err := filepath.Rel(best.point, canon)
	if err != nil {
		return r.fallback(canon)
	}

	return Location{
		Device:      r.identify(best),
		StoragePath: rel,
		MountPoint:  best.point,
	}
}

// canonicalize resolves abs to its canonical form, tolerating paths that
// do not exist yet by canonicalizing the nearest existing ancestor and
// re-appending the remainder.
func canonicalize(abs string) string {
	probe := abs
	for {
		if _, err := os.Lstat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	canon, err := filepath.EvalSymlinks(probe)
	if err != nil {
		return abs
	}
	if probe == abs {
		return canon
	}

	rest, err := filepath.Rel(probe, abs)
	if err != nil {
		return abs
	}
	return filepath.Join(canon, rest)
}

// readMounts parses the mount table, undoing the octal escapes the kernel
// uses for control characters in device and mount point fields.
func (r *Resolver) readMounts() ([]mountEntry, error) {
	f, err := os.Open(r.MountsPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close mount table %s: %v", r.MountsPath, err)
		}
	}()

	var mounts []mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		entry := mountEntry{
			device: unescapeOctal(fields[0]),
			point:  unescapeOctal(fields[1]),
		}
		if len(fields) > 2 {
			entry.fstype = fields[2]
		}
		mounts = append(mounts, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mounts, nil
}

// bestMount selects the entry whose mount point is the longest prefix of
// path. Most specific mount wins, not first match.
func bestMount(mounts []mountEntry, path string) *mountEntry {
	var best *mountEntry
	for i := range mounts {
		m := &mounts[i]
		if !mountContains(m.point, path) {
			continue
		}
		if best == nil || len(m.point) > len(best.point) {
			best = m
		}
	}
	return best
}

func mountContains(point, path string) bool {
	if point == "/" {
		return true
	}
	return path == point || strings.HasPrefix(path, point+"/")
}

// identify names the volume behind a mount entry. Preference order:
// volume label, volume UUID, network server/share, raw device node.
func (r *Resolver) identify(m *mountEntry) string {
	if devNode, ok := strings.CutPrefix(m.device, "/dev/"); ok {
		if label, ok := r.diskLink("by-label", m.device, devNode); ok {
			return fmt.Sprintf("%s (%s)", SanitizeLabel(label), m.point)
		}
		if uuid, ok := r.diskLink("by-uuid", m.device, devNode); ok {
			if len(uuid) > 8 {
				uuid = uuid[:8]
			}
			return fmt.Sprintf("%s [%s]", mountLeaf(m.point), uuid)
		}
	}

	if isNetworkFS(m.fstype) {
		if server := networkServer(m.device); server != "" {
			return fmt.Sprintf("%s (%s)", server, m.point)
		}
	}

	if devNode, ok := strings.CutPrefix(m.device, "/dev/"); ok {
		return fmt.Sprintf("%s (%s)", devNode, mountLeaf(m.point))
	}

	return mountLeaf(m.point)
}

// diskLink scans /dev/disk/<kind> for a symlink resolving to the device
// node and returns the link name (the label or UUID).
func (r *Resolver) diskLink(kind, devPath, devNode string) (string, bool) {
	dir := filepath.Join(r.DiskByPath, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		target, err := os.Readlink(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if filepath.Base(target) == devNode || target == devPath {
			return entry.Name(), true
		}
	}
	return "", false
}

func isNetworkFS(fstype string) bool {
	switch fstype {
	case "nfs", "nfs4", "cifs", "smbfs":
		return true
	}
	return false
}

// networkServer extracts the server name from a network mount device
// string, either "host:/share" or "//host/share".
func networkServer(device string) string {
	if rest, ok := strings.CutPrefix(device, "//"); ok {
		host, _, _ := strings.Cut(rest, "/")
		if host == "" {
			return "network"
		}
		return host
	}
	if host, _, ok := strings.Cut(device, ":"); ok && host != "" {
		return host
	}
	return ""
}

// mountLeaf is the last path element of a mount point, or the mount point
// itself when it has no meaningful leaf.
func mountLeaf(point string) string {
	leaf := filepath.Base(point)
	if leaf == "/" || leaf == "." {
		return point
	}
	return leaf
}

var (
	hexEscape   = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)
	octalEscape = regexp.MustCompile(`\\([0-7]{3})`)
)

// unescapeOctal undoes the \NNN octal sequences mount tables use for
// spaces, tabs, newlines and backslashes.
func unescapeOctal(s string) string {
	return octalEscape.ReplaceAllStringFunc(s, func(match string) string {
		n, err := strconv.ParseUint(match[1:], 8, 8)
		if err != nil {
			return match
		}
		return string(rune(n))
	})
}

// SanitizeLabel decodes the escape schemes seen in volume labels:
// URL encoding first, then \xNN hex sequences, then \NNN octal sequences.
func SanitizeLabel(label string) string {
	if decoded, err := url.PathUnescape(label); err == nil {
		label = decoded
	}

	label = hexEscape.ReplaceAllStringFunc(label, func(match string) string {
		n, err := strconv.ParseUint(match[2:], 16, 8)
		if err != nil {
			return match
		}
		return string(rune(n))
	})

	return unescapeOctal(label)
}

func (r *Resolver) hostname() string {
	if r.Hostname != nil {
		if name, err := r.Hostname(); err == nil && name != "" {
			return name
		}
	}
	return "local"
}

func (r *Resolver) fallback(path string) Location {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Location{Device: r.hostname(), StoragePath: abs}
}
