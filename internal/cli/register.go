package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/internal/hooks"
	"github.com/agent-chat/agent-chat/internal/session"
	"github.com/agent-chat/agent-chat/pkg/color"
	"github.com/agent-chat/agent-chat/pkg/logging"
)

// EnvClaudeEnvFile names the file Claude sources into later tool calls.
const EnvClaudeEnvFile = "CLAUDE_ENV_FILE"

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Assign this session a display name",
	Long: `Assign this session a display name.

An explicit --session wins. As a SessionStart hook, the session id is read
from the JSON payload on stdin. Otherwise AGENT_CHAT_SESSION_ID is used, and
a fresh id is generated when none is available. Registering twice keeps the first
name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hookMode := !isTerminal(cmd.InOrStdin())
		err := runRegister(cmd, hookMode)
		if hookMode {
			return passive("register", err)
		}
		return err
	},
}

func runRegister(cmd *cobra.Command, hookMode bool) error {
	client, err := requireClient(cmd)
	if err != nil {
		return err
	}

	sid := strings.TrimSpace(sessionFlag)
	if sid == "" && hookMode {
		in, err := hooks.ReadSessionStart(cmd.InOrStdin())
		if err != nil {
			logging.Debug("no SessionStart payload on stdin", map[string]any{"error": err.Error()})
		} else {
			sid = in.SessionID
		}
	}
	if sid == "" {
		sid = override().SessionID
	}
	if sid == "" {
		sid = session.NewID()
	}

	name, created, err := client.Register(cmd.Context(), sid)
	if err != nil {
		return err
	}

	envFile := os.Getenv(EnvClaudeEnvFile)
	if envFile != "" {
		if err := appendEnvFile(envFile, name, sid); err != nil {
			return err
		}
	}

	if jsonOutput {
		return outputJSON(cmd, map[string]any{
			"session_id": sid,
			"name":       name,
			"created":    created,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "You are %s. Use 'agent-chat say <message>' to talk, 'agent-chat read' to check messages.\n", name)
	if envFile == "" {
		fmt.Fprintf(out, "export %s=%s\nexport %s=%s\n", session.EnvName, name, session.EnvSessionID, sid)
	}
	return nil
}

func appendEnvFile(path, name, sid string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", EnvClaudeEnvFile, err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "export %s=%s\nexport %s=%s\n", session.EnvName, name, session.EnvSessionID, sid)
	if err != nil {
		return fmt.Errorf("write %s: %w", EnvClaudeEnvFile, err)
	}
	return nil
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the resolved session identity",
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

		if jsonOutput {
			return outputJSON(cmd, id)
		}
		name := id.Name
		if name == "" {
			name = "(unregistered)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.Name(name), color.Dim("session "+id.SessionID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
}
