package device

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// newTestResolver builds a Resolver with a fake mount table, an optional
// fake /dev/disk tree and a fixed hostname.
func newTestResolver(t *testing.T, mounts string, diskBy string) *Resolver {
	t.Helper()

	mountsPath := filepath.Join(t.TempDir(), "mounts")
	if err := os.WriteFile(mountsPath, []byte(mounts), 0o644); err != nil {
		t.Fatal(err)
	}

	if diskBy == "" {
		diskBy = filepath.Join(t.TempDir(), "disk")
	}

	return &Resolver{
		MountsPath: mountsPath,
		DiskByPath: diskBy,
		Hostname:   func() (string, error) { return "testhost", nil },
	}
}

// canonTempDir returns a symlink-free temp dir so paths match the fake
// mount table verbatim.
func canonTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeFixture(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveRootFilesystem(t *testing.T) {
	root := canonTempDir(t)
	photo := filepath.Join(root, "photo.jpg")
	writeFixture(t, photo)

	r := newTestResolver(t, "/dev/sda1 / ext4 rw 0 0\n", "")

	loc := r.Resolve(photo)
	if loc.Device != "testhost" {
		t.Errorf("Device = %q, want %q", loc.Device, "testhost")
	}
	if loc.StoragePath != photo {
		t.Errorf("StoragePath = %q, want absolute %q", loc.StoragePath, photo)
	}
	if loc.MountPoint != "" {
		t.Errorf("MountPoint = %q, want empty", loc.MountPoint)
	}
}

func TestResolveLongestPrefixWins(t *testing.T) {
	root := canonTempDir(t)
	outer := filepath.Join(root, "data")
	inner := filepath.Join(root, "data", "sub")
	photo := filepath.Join(inner, "photo.jpg")
	writeFixture(t, photo)

	mounts := fmt.Sprintf(
		"/dev/sda1 / ext4 rw 0 0\n/dev/sdb1 %s ext4 rw 0 0\n/dev/sdc1 %s ext4 rw 0 0\n",
		outer, inner,
	)
	r := newTestResolver(t, mounts, "")

	loc := r.Resolve(photo)
	if loc.MountPoint != inner {
		t.Errorf("MountPoint = %q, want most specific mount %q", loc.MountPoint, inner)
	}
	if loc.StoragePath != "photo.jpg" {
		t.Errorf("StoragePath = %q, want mount-relative %q", loc.StoragePath, "photo.jpg")
	}
	if loc.Device != "sdc1 (sub)" {
		t.Errorf("Device = %q, want %q", loc.Device, "sdc1 (sub)")
	}
}

func TestResolveMountOrderIrrelevant(t *testing.T) {
	root := canonTempDir(t)
	outer := filepath.Join(root, "data")
	inner := filepath.Join(root, "data", "sub")
	photo := filepath.Join(inner, "photo.jpg")
	writeFixture(t, photo)

	// Most specific mount listed first: selection must not be first-match.
	mounts := fmt.Sprintf(
		"/dev/sdc1 %s ext4 rw 0 0\n/dev/sdb1 %s ext4 rw 0 0\n/dev/sda1 / ext4 rw 0 0\n",
		inner, outer,
	)
	r := newTestResolver(t, mounts, "")

	loc := r.Resolve(photo)
	if loc.MountPoint != inner {
		t.Errorf("MountPoint = %q, want %q", loc.MountPoint, inner)
	}
}

func TestResolveVolumeLabel(t *testing.T) {
	root := canonTempDir(t)
	mount := filepath.Join(root, "usb")
	photo := filepath.Join(mount, "dcim", "photo.jpg")
	writeFixture(t, photo)

	diskBy := filepath.Join(t.TempDir(), "disk")
	labelDir := filepath.Join(diskBy, "by-label")
	if err := os.MkdirAll(labelDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("../../sdb1", filepath.Join(labelDir, `Holiday\x20Photos`)); err != nil {
		t.Fatal(err)
	}

	mounts := fmt.Sprintf("/dev/sda1 / ext4 rw 0 0\n/dev/sdb1 %s vfat rw 0 0\n", mount)
	r := newTestResolver(t, mounts, diskBy)

	loc := r.Resolve(photo)
	want := fmt.Sprintf("Holiday Photos (%s)", mount)
	if loc.Device != want {
		t.Errorf("Device = %q, want %q", loc.Device, want)
	}
	if loc.StoragePath != filepath.Join("dcim", "photo.jpg") {
		t.Errorf("StoragePath = %q, want %q", loc.StoragePath, filepath.Join("dcim", "photo.jpg"))
	}
}

func TestResolveVolumeUUID(t *testing.T) {
	root := canonTempDir(t)
	mount := filepath.Join(root, "backup")
	photo := filepath.Join(mount, "photo.jpg")
	writeFixture(t, photo)

	diskBy := filepath.Join(t.TempDir(), "disk")
	uuidDir := filepath.Join(diskBy, "by-uuid")
	if err := os.MkdirAll(uuidDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("../../sdb2", filepath.Join(uuidDir, "1234abcd-5678-90ef-1234-567890abcdef")); err != nil {
		t.Fatal(err)
	}

	mounts := fmt.Sprintf("/dev/sda1 / ext4 rw 0 0\n/dev/sdb2 %s ext4 rw 0 0\n", mount)
	r := newTestResolver(t, mounts, diskBy)

	loc := r.Resolve(photo)
	if loc.Device != "backup [1234abcd]" {
		t.Errorf("Device = %q, want %q", loc.Device, "backup [1234abcd]")
	}
}

func TestResolveNetworkShares(t *testing.T) {
	root := canonTempDir(t)

	tests := []struct {
		name   string
		device string
		fstype string
		want   string
	}{
		{"NFS", "fileserver:/export/photos", "nfs", "fileserver"},
		{"NFSv4", "nas:/volume1", "nfs4", "nas"},
		{"CIFS", "//winbox/share", "cifs", "winbox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mount := filepath.Join(root, "net", tt.name)
			photo := filepath.Join(mount, "photo.jpg")
			writeFixture(t, photo)

			mounts := fmt.Sprintf("/dev/sda1 / ext4 rw 0 0\n%s %s %s rw 0 0\n", tt.device, mount, tt.fstype)
			r := newTestResolver(t, mounts, "")

			loc := r.Resolve(photo)
			want := fmt.Sprintf("%s (%s)", tt.want, mount)
			if loc.Device != want {
				t.Errorf("Device = %q, want %q", loc.Device, want)
			}
		})
	}
}

func TestResolveOctalEscapedMountPoint(t *testing.T) {
	root := canonTempDir(t)
	mount := filepath.Join(root, "my data")
	photo := filepath.Join(mount, "photo.jpg")
	writeFixture(t, photo)

	escaped := filepath.Join(root, `my\040data`)
	mounts := fmt.Sprintf("/dev/sda1 / ext4 rw 0 0\n/dev/sdb1 %s vfat rw 0 0\n", escaped)
	r := newTestResolver(t, mounts, "")

	loc := r.Resolve(photo)
	if loc.MountPoint != mount {
		t.Errorf("MountPoint = %q, want unescaped %q", loc.MountPoint, mount)
	}
	if loc.StoragePath != "photo.jpg" {
		t.Errorf("StoragePath = %q, want %q", loc.StoragePath, "photo.jpg")
	}
}

func TestResolveMissingMountTable(t *testing.T) {
	root := canonTempDir(t)
	photo := filepath.Join(root, "photo.jpg")
	writeFixture(t, photo)

	r := &Resolver{
		MountsPath: filepath.Join(t.TempDir(), "does-not-exist"),
		DiskByPath: filepath.Join(t.TempDir(), "disk"),
		Hostname:   func() (string, error) { return "testhost", nil },
	}

	loc := r.Resolve(photo)
	if loc.Device != "testhost" {
		t.Errorf("Device = %q, want hostname fallback", loc.Device)
	}
	if loc.StoragePath != photo {
		t.Errorf("StoragePath = %q, want absolute %q", loc.StoragePath, photo)
	}
}

func TestResolveNonexistentPathUsesAncestor(t *testing.T) {
	root := canonTempDir(t)
	mount := filepath.Join(root, "card")
	if err := os.MkdirAll(mount, 0o755); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(mount, "dcim", "future.jpg")

	mounts := fmt.Sprintf("/dev/sda1 / ext4 rw 0 0\n/dev/sdb1 %s vfat rw 0 0\n", mount)
	r := newTestResolver(t, mounts, "")

	loc := r.Resolve(missing)
	if loc.MountPoint != mount {
		t.Errorf("MountPoint = %q, want %q", loc.MountPoint, mount)
	}
	if loc.StoragePath != filepath.Join("dcim", "future.jpg") {
		t.Errorf("StoragePath = %q, want %q", loc.StoragePath, filepath.Join("dcim", "future.jpg"))
	}
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain", "PHOTOS", "PHOTOS"},
		{"URL encoded", "Holiday%20Photos", "Holiday Photos"},
		{"Hex escape", `USB\x20Drive`, "USB Drive"},
		{"Octal escape", `Card\040One`, "Card One"},
		{"Tab octal", `a\011b`, "a\tb"},
		{"All three", `My%20USB\x2dCard\0402`, "My USB-Card 2"},
		{"Bad percent kept", "50%off", "50%off"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLabel(tt.input); got != tt.want {
				t.Errorf("SanitizeLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnescapeOctal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`/mnt/my\040data`, "/mnt/my data"},
		{`/mnt/tab\011here`, "/mnt/tab\there"},
		{`/mnt/back\134slash`, `/mnt/back\slash`},
		{"/mnt/plain", "/mnt/plain"},
		{`\04`, `\04`},
	}

	for _, tt := range tests {
		if got := unescapeOctal(tt.input); got != tt.want {
			t.Errorf("unescapeOctal(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNetworkServer(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"server:/export", "server"},
		{"//host/share", "host"},
		{"///share", "network"},
		{"plaindevice", ""},
	}

	for _, tt := range tests {
		if got := networkServer(tt.input); got != tt.want {
			t.Errorf("networkServer(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
