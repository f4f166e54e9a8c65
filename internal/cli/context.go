package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/agent-chat/agent-chat/internal/session"
	"github.com/agent-chat/agent-chat/pkg/agentchat"
	"github.com/agent-chat/agent-chat/pkg/color"
	"github.com/agent-chat/agent-chat/pkg/config"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

// requireClient discovers .agent-chat/ from the working directory.
func requireClient(cmd *cobra.Command) (*agentchat.Client, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot get current directory: %w", err)
	}
	client, err := agentchat.Open(cwd)
	if err != nil {
		return nil, err
	}
	configureLogging(cmd, client.Config())
	return client, nil
}

// configureLogging installs the global logger. The --log-level flag (or
// AGENT_CHAT_LOG_LEVEL) wins over config.yaml.
func configureLogging(cmd *cobra.Command, cfg *config.Config) {
	level := setting(logLevelFlag, keyLogLevel)
	format := logging.FormatText
	if cfg != nil {
		if level == "" {
			level = cfg.Logging.Level
		}
		format = logging.Format(cfg.Logging.Format)
	}
	logging.SetGlobal(logging.New(logging.ParseLevel(level), format, cmd.ErrOrStderr()))
}

// override collects identity flags and environment variables.
func override() agentchat.Override {
	return agentchat.Override{
		SessionID: setting(sessionFlag, keySession),
		Name:      setting(nameFlag, keyName),
	}
}

// requireIdentity resolves the caller's session and name.
func requireIdentity(cmd *cobra.Command, client *agentchat.Client) (model.Identity, error) {
	return client.Resolve(cmd.Context(), override())
}

// requireNamedIdentity is requireIdentity for commands that write as a name.
func requireNamedIdentity(cmd *cobra.Command, client *agentchat.Client) (model.Identity, error) {
	id, err := requireIdentity(cmd, client)
	if err != nil {
		return id, err
	}
	if _, err := session.RequireName(id); err != nil {
		return id, err
	}
	return id, nil
}

// passive reports err for hook-driven commands: logged at warn level, never
// surfaced as a failing exit status so the agent is not blocked.
func passive(command string, err error) error {
	if err != nil {
		logging.Warn("hook command failed", map[string]any{"command": command, "error": err.Error()})
	}
	return nil
}

func fmtErr(w io.Writer, format string, args ...any) {
	prefix := "agent-chat: "
	if color.Enabled() {
		prefix = color.Error("agent-chat:") + " "
	}
	fmt.Fprintf(w, prefix+format+"\n", args...)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
