package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/pkg/color"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove expired locks and focuses and stale temp files",
	Long: `Remove expired locks and focuses and stale temp files.

Expired entries are also removed lazily whenever they are read, so gc is
only needed to tidy a directory nobody has touched for a while. Use
--dry-run to see what would be removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		res, err := client.GC(cmd.Context(), gcDryRun)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd, res)
		}
		out := cmd.OutOrStdout()
		verb := "Removed"
		if res.DryRun {
			verb = "Would remove"
		}
		if res.Total() == 0 {
			fmt.Fprintln(out, color.InfoLine("GC:", "nothing to remove."))
			return nil
		}
		fmt.Fprintf(out, "%s:\n", verb)
		fmt.Fprintf(out, "  Expired locks:   %d\n", len(res.ExpiredLocks))
		for _, l := range res.ExpiredLocks {
			fmt.Fprintf(out, "    %s (%s)\n", l.Glob, l.Owner)
		}
		fmt.Fprintf(out, "  Expired focuses: %d\n", len(res.ExpiredFocuses))
		for _, f := range res.ExpiredFocuses {
			fmt.Fprintf(out, "    %s: %s\n", f.Owner, f.Focus)
		}
		fmt.Fprintf(out, "  Temp files:      %d\n", len(res.TempFiles))
		return nil
	},
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "report without removing anything")
	rootCmd.AddCommand(gcCmd)
}
