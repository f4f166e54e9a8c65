package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/internal/format"
	"github.com/agent-chat/agent-chat/pkg/color"
	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/model"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Announce what this session is working on",
	Long: `Announce what this session is working on.

A focus is a short free-text description that expires after focus_ttl_secs.
Setting one warns when another session's focus shares a significant word.`,
}

var focusSetCmd = &cobra.Command{
	Use:   "set <text...>",
	Short: "Set this session's focus",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return errclass.ErrNameInvalid.WithMessage("focus must not be empty")
		}

		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		id, err := requireNamedIdentity(cmd, client)
		if err != nil {
			return err
		}
		entry, overlaps, err := client.SetFocus(cmd.Context(), text, id)
		if err != nil {
			return err
		}

		if jsonOutput {
			if overlaps == nil {
				overlaps = []model.FocusEntry{}
			}
			return outputJSON(cmd, map[string]any{"focus": entry, "overlaps": overlaps})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.SuccessLine("Focus set:", text))
		if len(overlaps) > 0 {
			fmt.Fprintln(out, color.Warning(format.Overlaps(overlaps)))
		}
		return nil
	},
}

var focusClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear this session's focus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		id, err := requireIdentity(cmd, client)
		if err != nil {
			return err
		}
		if err := client.ClearFocus(cmd.Context(), id.SessionID); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd, map[string]bool{"cleared": true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.SuccessLine("Focus cleared.", ""))
		return nil
	},
}

var focusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active focuses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		focuses, err := client.Focuses(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			if focuses == nil {
				focuses = []model.FocusEntry{}
			}
			return outputJSON(cmd, focuses)
		}
		out := cmd.OutOrStdout()
		if len(focuses) == 0 {
			fmt.Fprintln(out, color.InfoLine("Focuses:", "No active focuses."))
			return nil
		}
		now := time.Now()
		table := format.NewTable("AGENT", "TTL", "FOCUS")
		for i := range focuses {
			f := &focuses[i]
			table.Row(f.Owner, format.Remaining(f.Remaining(now)), f.Focus)
		}
		fmt.Fprint(out, table.String())
		return nil
	},
}

var focusCheckCmd = &cobra.Command{
	Use:   "check <text...>",
	Short: "Show focuses that overlap a description without setting one",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))

		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		sid := ""
		if id, err := requireIdentity(cmd, client); err == nil {
			sid = id.SessionID
		}
		overlaps, err := client.Overlaps(cmd.Context(), text, sid)
		if err != nil {
			return err
		}

		if jsonOutput {
			if overlaps == nil {
				overlaps = []model.FocusEntry{}
			}
			return outputJSON(cmd, overlaps)
		}
		if len(overlaps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), color.InfoLine("Focuses:", "No overlap."))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.Warning(format.Overlaps(overlaps)))
		return nil
	},
}

func init() {
	focusCmd.AddCommand(focusSetCmd)
	focusCmd.AddCommand(focusClearCmd)
	focusCmd.AddCommand(focusListCmd)
	focusCmd.AddCommand(focusCheckCmd)
	rootCmd.AddCommand(focusCmd)
}
