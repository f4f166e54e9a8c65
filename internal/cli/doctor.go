package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/internal/doctor"
	"github.com/agent-chat/agent-chat/pkg/color"
)

var (
	doctorStrict bool
	doctorRepair []string
)

// errUnhealthy makes doctor exit non-zero after printing its findings.
var errUnhealthy = errors.New("agent-chat directory is unhealthy")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the .agent-chat directory for problems",
	Long: `Check the .agent-chat directory for problems.

Reports missing store directories, an unreadable config, malformed lock,
focus and session entries, expired entries awaiting cleanup, and temp files
left behind by interrupted writers. Use --strict to also parse every
message, and --repair to apply fixes (restore_layout, sweep_expired,
clean_tmp).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(doctorRepair) > 0 {
			results, err := client.Repair(cmd.Context(), doctorRepair)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(cmd, results)
			}
			for _, r := range results {
				mark := color.Success("✓")
				if !r.Success {
					mark = color.Error("✗")
				}
				fmt.Fprintf(out, "%s %s: %s\n", mark, r.Action, r.Message)
			}
			return nil
		}

		result, err := client.Doctor(cmd.Context(), doctorStrict)
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(cmd, result); err != nil {
				return err
			}
		} else if len(result.Findings) == 0 {
			fmt.Fprintln(out, color.Success("agent-chat directory is healthy."))
		} else {
			fmt.Fprintf(out, "Findings (%d):\n", len(result.Findings))
			for _, f := range result.Findings {
				fmt.Fprintf(out, "  [%s] %s: %s\n", severity(f.Severity), f.Category, f.Description)
			}
		}

		if !result.Healthy {
			return errUnhealthy
		}
		return nil
	},
}

func severity(s string) string {
	switch s {
	case doctor.SeverityCritical, doctor.SeverityError:
		return color.Error(s)
	case doctor.SeverityWarning:
		return color.Warning(s)
	default:
		return color.Dim(s)
	}
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "parse every message in the log")
	doctorCmd.Flags().StringSliceVar(&doctorRepair, "repair", nil,
		"repair actions to apply (restore_layout, sweep_expired, clean_tmp)")
	rootCmd.AddCommand(doctorCmd)
}
