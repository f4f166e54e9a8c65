package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/internal/format"
	"github.com/agent-chat/agent-chat/internal/hooks"
	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

var readAll bool

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Show unread messages",
	Long: `Show messages posted since this session last read, then mark them read.

A session that has never read sees only the most recent few messages
(first_read_count in config.yaml). Use --all for the whole log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		id, err := requireIdentity(cmd, client)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		hadCursor, err := client.HasCursor(ctx, id.SessionID)
		if err != nil {
			return err
		}

		var msgs []*model.Message
		if readAll {
			msgs, err = client.Messages(ctx)
		} else {
			msgs, err = client.Unread(ctx, id.SessionID, id.Name)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			if msgs == nil {
				msgs = []*model.Message{}
			}
			if err := outputJSON(cmd, msgs); err != nil {
				return err
			}
		} else {
			out := cmd.OutOrStdout()
			for _, m := range msgs {
				fmt.Fprintln(out, format.MessageColor(m.Author, m.Time(), m.Body))
			}
		}

		if len(msgs) > 0 || !hadCursor {
			return client.Advance(ctx, id.SessionID)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-line unread count (Stop hook)",
	Long: `Print "[agent-chat: N unread message(s)]" when this session has unread
messages, and nothing otherwise. Without a session every message counts.
Never fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return passive("status", runStatus(cmd))
	},
}

func runStatus(cmd *cobra.Command) error {
	client, err := requireClient(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	count := 0
	id, err := requireIdentity(cmd, client)
	switch {
	case errors.Is(err, errclass.ErrMissingIdentity):
		msgs, err := client.Messages(ctx)
		if err != nil {
			return err
		}
		count = len(msgs)
	case err != nil:
		return err
	default:
		has, err := client.HasUnread(ctx, id.SessionID)
		if err != nil {
			return err
		}
		if has {
			if count, err = client.CountUnread(ctx, id.SessionID, id.Name); err != nil {
				return err
			}
		}
	}

	if jsonOutput {
		return outputJSON(cmd, map[string]int{"unread": count})
	}
	if line := format.Status(count); line != "" {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

var checkMessagesCmd = &cobra.Command{
	Use:   "check-messages",
	Short: "Inject unread messages into the agent context (PreToolUse hook)",
	Long: `Emit unread messages from other sessions as hook JSON
({"hookSpecificOutput":{"additionalContext":...}}) and mark them read.
Prints nothing when there is nothing new. Never fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return passive("check-messages", runCheckMessages(cmd))
	},
}

func runCheckMessages(cmd *cobra.Command) error {
	client, err := requireClient(cmd)
	if err != nil {
		return err
	}
	id, err := requireIdentity(cmd, client)
	if err != nil {
		logging.Debug("check-messages without identity", map[string]any{"error": err.Error()})
		return nil
	}
	ctx := cmd.Context()

	msgs, err := client.Unread(ctx, id.SessionID, id.Name)
	if err != nil || len(msgs) == 0 {
		return err
	}
	if err := hooks.WriteContext(cmd.OutOrStdout(), format.HookContext(msgs)); err != nil {
		return err
	}
	return client.Advance(ctx, id.SessionID)
}

func init() {
	readCmd.Flags().BoolVar(&readAll, "all", false, "show the whole log")
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkMessagesCmd)
}
