package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show agent-chat directory information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		sessions, err := client.Sessions(ctx)
		if err != nil {
			return err
		}
		msgs, err := client.Messages(ctx)
		if err != nil {
			return err
		}
		locks, err := client.Locks(ctx)
		if err != nil {
			return err
		}
		focuses, err := client.Focuses(ctx)
		if err != nil {
			return err
		}

		info := map[string]any{
			"project_root":  client.Root(),
			"agent_dir":     client.Dir(),
			"session_count": len(sessions),
			"message_count": len(msgs),
			"lock_count":    len(locks),
			"focus_count":   len(focuses),
		}
		if jsonOutput {
			return outputJSON(cmd, info)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project: %s\n", client.Root())
		fmt.Fprintf(out, "  Directory: %s\n", client.Dir())
		fmt.Fprintf(out, "  Sessions: %d\n", len(sessions))
		fmt.Fprintf(out, "  Messages: %d\n", len(msgs))
		fmt.Fprintf(out, "  Active locks: %d\n", len(locks))
		fmt.Fprintf(out, "  Active focuses: %d\n", len(focuses))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
