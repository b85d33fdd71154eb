// Package cli provides the photo-catalog command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var (
	dbPath    string
	mediaRoot string
)

var rootCmd = &cobra.Command{
	Use:   "photo-catalog",
	Short: "Ingest and deduplicate photographs into a content-addressed catalog",
	Long: `photo-catalog builds a durable catalog of photographs scattered across
filesystems and removable media. Files are deduplicated by content hash,
so the same photo seen on three memory cards becomes one catalog entry
with three known locations. RAW formats are decoded through their
embedded previews or libvips when available.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.main().
func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("PHOTO_CATALOG_DB", "photo-catalog.db"),
		"Path to the catalog database file")
	rootCmd.PersistentFlags().StringVar(&mediaRoot, "media-root", envOr("PHOTO_CATALOG_MEDIA_ROOT", "media"),
		"Managed media directory for stored bitmaps")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
