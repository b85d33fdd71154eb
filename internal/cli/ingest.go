package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photo-catalog/internal/backend"
	"photo-catalog/internal/catalog"
	"photo-catalog/internal/ingest"
	"photo-catalog/internal/logging"
)

var (
	ingestResolution  string
	ingestHash        bool
	ingestNoRecursive bool
	ingestStoreImages bool
	ingestDevice      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest photographs from a directory or file into the catalog",
	Long: `Ingest walks the given path (a directory or a single image file) and
records every recognized image in the catalog. With --hash, identical
files are linked to one photograph regardless of where they live. With
--store-images, a standardized bitmap is written under the managed
media directory, resized when --resolution is given.

Each file commits independently: one broken file is reported and
skipped without losing the rest of the batch.

Examples:
  photo-catalog ingest /mnt/sdcard/DCIM --hash
  photo-catalog ingest ~/Pictures --hash --store-images --resolution 1080p
  photo-catalog ingest shot.nef --hash --device "card-42"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestResolution, "resolution", "", "Stored-bitmap size, a preset name or WIDTHxHEIGHT")
	ingestCmd.Flags().BoolVar(&ingestHash, "hash", false, "Compute content hashes and deduplicate by them")
	ingestCmd.Flags().BoolVar(&ingestNoRecursive, "no-recursive", false, "Do not descend into subdirectories")
	ingestCmd.Flags().BoolVar(&ingestStoreImages, "store-images", false, "Store a standardized bitmap for each photo")
	ingestCmd.Flags().StringVar(&ingestDevice, "device", "", "Override the resolved device identity")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("failed to close catalog: %v", err)
		}
	}()

	if ingestStoreImages {
		// Full RAW decodes need libvips; files with embedded previews
		// work either way.
		backend.InitVips()
		defer backend.ShutdownVips()
	}

	ing := ingest.New(store, mediaRoot)
	result, err := ing.Run(ctx, args[0], ingest.Options{
		Resolution:  ingestResolution,
		ComputeHash: ingestHash,
		Recursive:   !ingestNoRecursive,
		StoreImages: ingestStoreImages,
		Device:      ingestDevice,
		Progress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rProcessed %d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		},
	})
	if err != nil {
		return err
	}

	for _, line := range result.Errors {
		fmt.Fprintln(os.Stderr, line)
	}
	fmt.Printf("Ingested %d photos (%d hashed, %d stored, %d errors)\n",
		result.Succeeded, result.HashesComputed, result.ImagesStored, len(result.Errors))

	if result.Total == 0 {
		return fmt.Errorf("no images found under %s", args[0])
	}
	if !result.Success() {
		return fmt.Errorf("ingestion failed for all %d files", result.Total)
	}
	return nil
}
