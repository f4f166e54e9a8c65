package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agent-chat/agent-chat/pkg/color"
)

// Viper keys. With the AGENT_CHAT prefix they map to AGENT_CHAT_SESSION_ID,
// AGENT_CHAT_NAME and AGENT_CHAT_LOG_LEVEL. Flags take precedence.
const (
	keySession  = "session_id"
	keyName     = "name"
	keyLogLevel = "log_level"
)

var (
	jsonOutput   bool
	noColor      bool
	sessionFlag  string
	nameFlag     string
	logLevelFlag string
	v            = newViper()
	rootCmd    = &cobra.Command{
		Use:   "agent-chat",
		Short: "File-based coordination for concurrent coding agents",
		Long: `agent-chat lets independent agent sessions working in the same project
talk to each other, claim advisory locks on files, and announce what they
are focused on. Everything lives in .agent-chat/ at the project root; there
is no server.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupOutput,
	}
)

func newViper() *viper.Viper {
	vp := viper.New()
	vp.SetEnvPrefix("AGENT_CHAT")
	vp.AutomaticEnv()
	for _, key := range []string{keySession, keyName, keyLogLevel} {
		_ = vp.BindEnv(key)
	}
	return vp
}

func init() {
	addGlobalFlags(rootCmd)
}

// addGlobalFlags registers the persistent flags on root.
func addGlobalFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVar(&sessionFlag, "session", "", "session id (default $AGENT_CHAT_SESSION_ID)")
	pf.StringVar(&nameFlag, "name", "", "display name (default $AGENT_CHAT_NAME or the registered name)")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error (default from config.yaml)")
}

// setting returns the flag value when set, else the viper (environment) value.
func setting(flagValue, key string) string {
	if s := strings.TrimSpace(flagValue); s != "" {
		return s
	}
	return strings.TrimSpace(v.GetString(key))
}

func setupOutput(cmd *cobra.Command, args []string) error {
	color.Init(noColor)
	configureLogging(cmd, nil)
	return nil
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmtErr(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

// outputJSON prints data as indented JSON on the command's stdout.
func outputJSON(cmd *cobra.Command, data any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
