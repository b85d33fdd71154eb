package metadata

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEXIFTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "Standard colon format",
			input: "2021:06:15 14:30:05",
			want:  time.Date(2021, 6, 15, 14, 30, 5, 0, time.Local),
			ok:    true,
		},
		{
			name:  "Dash format",
			input: "2021-06-15 14:30:05",
			want:  time.Date(2021, 6, 15, 14, 30, 5, 0, time.Local),
			ok:    true,
		},
		{
			name:  "NUL padded",
			input: "2021:06:15 14:30:05\x00",
			want:  time.Date(2021, 6, 15, 14, 30, 5, 0, time.Local),
			ok:    true,
		},
		{
			name:  "Whitespace wrapped",
			input: "  2021:06:15 14:30:05 ",
			want:  time.Date(2021, 6, 15, 14, 30, 5, 0, time.Local),
			ok:    true,
		},
		{
			name:  "Garbage",
			input: "not a date",
			ok:    false,
		},
		{
			name:  "Empty",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseEXIFTime(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseEXIFTime(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseEXIFTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NIKON D750\x00", "NIKON D750"},
		{"  Canon EOS R5  ", "Canon EOS R5"},
		{"\x00\x00", ""},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := cleanString(tt.input); got != tt.want {
			t.Errorf("cleanString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func writePNG(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "plain.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractNoEXIF(t *testing.T) {
	path := writePNG(t)

	info, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if info.CaptureTime != nil {
		t.Errorf("CaptureTime = %v, want nil for file without EXIF", *info.CaptureTime)
	}
	if info.CameraModel != nil {
		t.Errorf("CameraModel = %q, want nil for file without EXIF", *info.CameraModel)
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := Extract(filepath.Join(t.TempDir(), "absent.jpg")); err == nil {
		t.Error("Extract() on missing file should fail")
	}
}

func TestInspectIncludesFileStats(t *testing.T) {
	path := writePNG(t)

	fields, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	if byName["File Name"] != "plain.png" {
		t.Errorf("File Name = %q, want %q", byName["File Name"], "plain.png")
	}
	if byName["File Size"] == "" || byName["File Size"] == "0" {
		t.Errorf("File Size = %q, want non-zero", byName["File Size"])
	}
	if byName["Modified"] == "" {
		t.Error("Modified field missing")
	}
}

func TestInspectMissingFile(t *testing.T) {
	if _, err := Inspect(filepath.Join(t.TempDir(), "absent.jpg")); err == nil {
		t.Error("Inspect() on missing file should fail")
	}
}
