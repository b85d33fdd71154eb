package resolution

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Spec is a target size in pixels. Both dimensions are always positive.
type Spec struct {
	Width  uint
	Height uint
}

// String renders the spec in the canonical "WIDTHxHEIGHT" form.
func (s Spec) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// presets maps lowercase preset names to literal pixel sizes.
var presets = map[string]Spec{
	"xsmall":          {320, 240},
	"low":             {640, 480},
	"small":           {640, 480},
	"240p":            {426, 240},
	"360p":            {640, 360},
	"480p":            {854, 480},
	"720p":            {1280, 720},
	"hd":              {1280, 720},
	"1080p":           {1920, 1080},
	"fhd":             {1920, 1080},
	"medium":          {1920, 1080},
	"landscape":       {1920, 1080},
	"1440p":           {2560, 1440},
	"qhd":             {2560, 1440},
	"2160p":           {3840, 2160},
	"4k":              {3840, 2160},
	"high":            {3840, 2160},
	"large":           {3840, 2160},
	"8k":              {7680, 4320},
	"xlarge":          {7680, 4320},
	"square":          {1080, 1080},
	"instagram":       {1080, 1080},
	"portrait":        {1080, 1920},
	"instagram-story": {1080, 1920},
}

var explicitPattern = regexp.MustCompile(`^(\d+)\s*x\s*(\d+)$`)

// Parse resolves a resolution string to a Spec. It accepts preset names
// and explicit "WIDTHxHEIGHT" strings, both case-insensitive, and returns
// nil for anything else, including zero dimensions.
func Parse(spec string) *Spec {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" {
		return nil
	}

	if preset, ok := presets[spec]; ok {
		return &preset
	}

	m := explicitPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil
	}

	width, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return nil
	}
	height, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return nil
	}
	if width == 0 || height == 0 {
		return nil
	}

	return &Spec{Width: uint(width), Height: uint(height)}
}

// Presets returns a copy of the preset table.
func Presets() map[string]Spec {
	out := make(map[string]Spec, len(presets))
	for name, spec := range presets {
		out[name] = spec
	}
	return out
}
