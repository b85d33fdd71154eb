package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"photo-catalog/internal/metadata"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show the metadata embedded in an image file",
	Long: `Info dumps everything readable from the file: filesystem stats plus the
full tag set, using the exiftool binary when installed and the built-in
EXIF parser otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	fields, err := metadata.Inspect(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\n", f.Name, f.Value)
	}
	return w.Flush()
}
