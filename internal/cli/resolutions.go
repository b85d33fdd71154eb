package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"photo-catalog/internal/resolution"
)

var resolutionsCmd = &cobra.Command{
	Use:   "resolutions",
	Short: "List the named resolution presets",
	Args:  cobra.NoArgs,
	RunE:  runResolutions,
}

func init() {
	rootCmd.AddCommand(resolutionsCmd)
}

func runResolutions(cmd *cobra.Command, args []string) error {
	presets := resolution.Presets()

	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRESOLUTION")
	for _, name := range names {
		spec := presets[name]
		fmt.Fprintf(w, "%s\t%s\n", name, spec.String())
	}
	return w.Flush()
}
