package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"photo-catalog/internal/backend"
	"photo-catalog/internal/resolution"
	"photo-catalog/internal/transcode"
)

var (
	convertOutput     string
	convertResolution string
	convertFormat     string
)

var convertCmd = &cobra.Command{
	Use:   "convert <source>",
	Short: "Convert an image file to a standard format, optionally resized",
	Long: `Convert decodes the source image (including RAW formats) and writes it
as JPEG or PNG. Without --output the result lands next to the source,
named after the source file and the target resolution.

Examples:
  photo-catalog convert shot.nef
  photo-catalog convert shot.cr2 --resolution 1080p --format PNG
  photo-catalog convert pano.tif --output /tmp/pano.jpg --resolution 3840x2160`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "Destination path (default: derived from the source)")
	convertCmd.Flags().StringVar(&convertResolution, "resolution", "", "Target size, a preset name or WIDTHxHEIGHT")
	convertCmd.Flags().StringVar(&convertFormat, "format", "JPEG", "Output format: JPEG or PNG")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	src := args[0]

	format, err := transcode.ParseFormat(convertFormat)
	if err != nil {
		return err
	}

	var res *resolution.Spec
	if convertResolution != "" {
		if res = resolution.Parse(convertResolution); res == nil {
			return fmt.Errorf("unrecognized resolution %q", convertResolution)
		}
	}

	dst := convertOutput
	if dst == "" {
		dst = deriveOutput(src, res, format)
	}

	backend.InitVips()
	defer backend.ShutdownVips()

	if err := transcode.ConvertFile(src, dst, res, format, backend.Default()); err != nil {
		return err
	}

	fmt.Printf("Converted %s -> %s\n", src, dst)
	return nil
}

// deriveOutput names the destination after the source stem, the target
// resolution and the output format, avoiding an in-place overwrite.
func deriveOutput(src string, res *resolution.Spec, format transcode.Format) string {
	stem := strings.TrimSuffix(src, filepath.Ext(src))
	if res != nil {
		stem += "_" + res.String()
	}

	dst := stem + format.Ext()
	if dst == src {
		dst = stem + "_converted" + format.Ext()
	}
	return dst
}
