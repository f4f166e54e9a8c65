package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Manage agent-chat configuration",
	Long: `Manage agent-chat configuration stored in .agent-chat/config.yaml.

Configuration options:
  lock_ttl_secs     - Default lock lifetime (seconds or a duration like 5m)
  focus_ttl_secs    - Default focus lifetime (seconds or a duration like 30m)
  first_read_count  - Messages shown on a session's first read
  logging.level     - Diagnostic log level (debug, info, warn, error)
  logging.format    - Diagnostic log format (text, json)`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(client.Dir())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if jsonOutput {
			return outputJSON(cmd, cfg)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "# agent-chat configuration")
		fmt.Fprintf(out, "# Location: %s\n\n", filepath.Join(client.Dir(), config.FileName))
		for _, key := range config.Keys() {
			value, _ := cfg.Get(key)
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(out, "%s: %s\n", key, value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in .agent-chat/config.yaml.

Examples:
  agent-chat config set lock_ttl_secs 600
  agent-chat config set focus_ttl_secs 1h
  agent-chat config set logging.level debug

Available keys: ` + strings.Join(config.Keys(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(client.Dir())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			return fmt.Errorf("set config: %w", err)
		}
		if err := config.Save(client.Dir(), cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		stored, _ := cfg.Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value from .agent-chat/config.yaml.

Available keys: ` + strings.Join(config.Keys(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(client.Dir())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		key := args[0]
		value, err := cfg.Get(key)
		if err != nil {
			return fmt.Errorf("get config: %w", err)
		}
		if value == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not set)\n", key)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}
