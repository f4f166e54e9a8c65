package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/internal/format"
	"github.com/agent-chat/agent-chat/pkg/model"
)

var watchTail int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the message log",
	Long: `Print messages as they are posted, until interrupted.

Use --tail N to print the last N messages first. Watching does not move
this session's read cursor.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		emit := func(m *model.Message) {
			if jsonOutput {
				_ = outputJSON(cmd, m)
				return
			}
			fmt.Fprintln(out, format.MessageColor(m.Author, m.Time(), m.Body))
		}

		if watchTail > 0 {
			msgs, err := client.Messages(cmd.Context())
			if err != nil {
				return err
			}
			if len(msgs) > watchTail {
				msgs = msgs[len(msgs)-watchTail:]
			}
			for _, m := range msgs {
				emit(m)
			}
		}

		return client.Follow(cmd.Context(), nil, emit)
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchTail, "tail", 0, "print the last N messages before following")
	rootCmd.AddCommand(watchCmd)
}
