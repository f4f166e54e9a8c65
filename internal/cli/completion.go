package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/pkg/agentchat"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for agent-chat.

To load completions for your shell:

Bash:
  source <(agent-chat completion bash)

Zsh:
  agent-chat completion zsh > "${fpath[1]}/_agent-chat"

Fish:
  agent-chat completion fish | source

PowerShell:
  agent-chat completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		shell := args[0]

		var err error
		switch shell {
		case "bash":
			err = cmd.Root().GenBashCompletion(out)
		case "zsh":
			err = cmd.Root().GenZshCompletion(out)
		case "fish":
			err = cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(out)
		default:
			err = fmt.Errorf("unsupported shell type: %s", shell)
		}
		if err != nil {
			return fmt.Errorf("generate completion for %s: %w", shell, err)
		}
		return nil
	},
}

// completeLockGlobs offers the patterns of active locks, for unlock.
func completeLockGlobs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	client, err := agentchat.Open(cwd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	locks, err := client.Locks(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	globs := make([]string, 0, len(locks))
	for _, l := range locks {
		globs = append(globs, l.Glob+"\t"+l.Owner)
	}
	return globs, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	unlockCmd.ValidArgsFunction = completeLockGlobs
	rootCmd.AddCommand(completionCmd)
}
