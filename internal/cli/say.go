package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var sayCmd = &cobra.Command{
	Use:   "say <message...>",
	Short: "Post a message to the shared log",
	Long: `Post a message to the shared log as this session's name.

All arguments are joined with spaces, so quoting is optional.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := strings.TrimSpace(strings.Join(args, " "))
		if msg == "" {
			return errors.New("message cannot be empty")
		}

		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		id, err := requireNamedIdentity(cmd, client)
		if err != nil {
			return err
		}

		msgID, err := client.Say(cmd.Context(), id.Name, msg)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd, map[string]any{"id": msgID.String(), "author": id.Name})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sayCmd)
}
