package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/internal/hooks"
	"github.com/agent-chat/agent-chat/internal/repo"
	"github.com/agent-chat/agent-chat/pkg/agentchat"
	"github.com/agent-chat/agent-chat/pkg/color"
	"github.com/agent-chat/agent-chat/pkg/logging"
)

// Location is where integrations are installed.
type Location int

const (
	LocationProject Location = iota
	LocationUser
	LocationBoth
)

func (l Location) String() string {
	switch l {
	case LocationProject:
		return "project"
	case LocationUser:
		return "user"
	default:
		return "project+user"
	}
}

// Tools selects which agent integrations are installed.
type Tools int

const (
	ToolsClaude Tools = iota
	ToolsCodex
	ToolsBoth
)

func (t Tools) String() string {
	switch t {
	case ToolsClaude:
		return "Claude Code"
	case ToolsCodex:
		return "Codex"
	default:
		return "Claude Code + Codex"
	}
}

func (t Tools) claude() bool { return t == ToolsClaude || t == ToolsBoth }
func (t Tools) codex() bool  { return t == ToolsCodex || t == ToolsBoth }

func (l Location) project() bool { return l == LocationProject || l == LocationBoth }
func (l Location) user() bool    { return l == LocationUser || l == LocationBoth }

var (
	initProject  bool
	initUser     bool
	initBoth     bool
	initClaude   bool
	initCodex    bool
	initAllTools bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize agent-chat in the current directory",
	Long: `Initialize agent-chat in the current directory.

This creates:
  - .agent-chat/ with log, locks, cursors, sessions and focuses stores
  - .agent-chat/config.yaml with default settings

and installs agent integrations:
  - Claude Code: hooks in settings.json plus a CLAUDE.md section
  - Codex: an AGENTS.md section

Use --project, --user or --both to choose where integrations go, and
--claude, --codex or --all-tools to choose which. Without flags on a
terminal you are prompted; without a terminal the project Claude Code
integration is installed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}

		loc, tools, err := initChoices(cmd)
		if err != nil {
			return err
		}

		client, err := agentchat.Init(cwd)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		configureLogging(cmd, client.Config())

		installed, err := installIntegrations(client.Root(), loc, tools)
		if err != nil {
			return err
		}
		logging.Info("initialized", map[string]any{"root": client.Root(), "location": loc.String(), "tools": tools.String()})

		if jsonOutput {
			return outputJSON(cmd, map[string]any{
				"project_root": client.Root(),
				"agent_dir":    client.Dir(),
				"location":     loc.String(),
				"tools":        tools.String(),
				"installed":    installed,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s/ and installed %s integration (%s).\n",
			color.Success(repo.DirName), tools, loc)
		return nil
	},
}

// initChoices resolves location and tools from flags, falling back to
// prompts on a terminal and to project + Claude Code otherwise.
func initChoices(cmd *cobra.Command) (Location, Tools, error) {
	locFlag := initProject || initUser || initBoth
	toolFlag := initClaude || initCodex || initAllTools

	loc := LocationProject
	switch {
	case initBoth || (initProject && initUser):
		loc = LocationBoth
	case initUser:
		loc = LocationUser
	}

	tools := ToolsClaude
	switch {
	case initAllTools || (initClaude && initCodex):
		tools = ToolsBoth
	case initCodex:
		tools = ToolsCodex
	}

	if locFlag || toolFlag || !isTerminal(cmd.InOrStdin()) {
		return loc, tools, nil
	}

	in := bufio.NewReader(cmd.InOrStdin())
	prompt := cmd.ErrOrStderr()

	choice, err := ask(in, prompt, "Install for which tools? [1] Claude Code [2] Codex [3] both", 3, 3)
	if err != nil {
		return 0, 0, err
	}
	tools = Tools(choice - 1)

	choice, err = ask(in, prompt, "Install where? [1] project [2] user [3] both", 3, 2)
	if err != nil {
		return 0, 0, err
	}
	loc = Location(choice - 1)
	return loc, tools, nil
}

// ask reads a 1-based choice; an empty answer selects def.
func ask(in *bufio.Reader, out io.Writer, question string, n, def int) (int, error) {
	for {
		fmt.Fprintf(out, "%s (default %d): ", question, def)
		line, err := in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if answer == "" {
			if err != nil && err != io.EOF {
				return 0, fmt.Errorf("read answer: %w", err)
			}
			return def, nil
		}
		var choice int
		if _, scanErr := fmt.Sscanf(answer, "%d", &choice); scanErr == nil && choice >= 1 && choice <= n {
			return choice, nil
		}
		if err != nil {
			return 0, fmt.Errorf("invalid choice %q", answer)
		}
		fmt.Fprintf(out, "Please enter a number from 1 to %d.\n", n)
	}
}

// installIntegrations writes hooks and guidance for the chosen tools and
// returns the files it touched.
func installIntegrations(root string, loc Location, tools Tools) ([]string, error) {
	bin := hooks.BinaryPath()
	var installed []string

	var home string
	if loc.user() {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		home = h
	}

	settings := func(path string) error {
		if err := hooks.InstallSettings(path, bin); err != nil {
			return fmt.Errorf("install hooks in %s: %w", path, err)
		}
		installed = append(installed, path)
		return nil
	}
	section := func(path string, s hooks.Section) error {
		if err := hooks.InstallSection(path, s); err != nil {
			return fmt.Errorf("install guidance in %s: %w", path, err)
		}
		installed = append(installed, path)
		return nil
	}

	if tools.claude() {
		if loc.project() {
			if err := settings(filepath.Join(root, ".claude", "settings.local.json")); err != nil {
				return nil, err
			}
			if err := section(filepath.Join(root, "CLAUDE.md"), hooks.ClaudeSection); err != nil {
				return nil, err
			}
		}
		if loc.user() {
			if err := settings(filepath.Join(home, ".claude", "settings.json")); err != nil {
				return nil, err
			}
			if err := section(filepath.Join(home, ".claude", "CLAUDE.md"), hooks.ClaudeSection); err != nil {
				return nil, err
			}
		}
	}

	if tools.codex() {
		if loc.project() {
			if err := section(filepath.Join(root, "AGENTS.md"), hooks.CodexSection); err != nil {
				return nil, err
			}
		}
		if loc.user() {
			if err := section(filepath.Join(home, ".codex", "AGENTS.md"), hooks.CodexSection); err != nil {
				return nil, err
			}
		}
	}

	// User-level installs keep the store out of git.
	if loc.user() {
		if err := hooks.AddGitExclude(root, repo.DirName+"/"); err != nil {
			logging.Warn("git exclude", map[string]any{"error": err.Error()})
		}
	}
	return installed, nil
}

func init() {
	initCmd.Flags().BoolVar(&initProject, "project", false, "install integrations in this project")
	initCmd.Flags().BoolVar(&initUser, "user", false, "install integrations in your home directory")
	initCmd.Flags().BoolVar(&initBoth, "both", false, "install integrations in the project and home directory")
	initCmd.Flags().BoolVar(&initClaude, "claude", false, "install the Claude Code integration")
	initCmd.Flags().BoolVar(&initCodex, "codex", false, "install the Codex integration")
	initCmd.Flags().BoolVar(&initAllTools, "all-tools", false, "install every integration")
	initCmd.MarkFlagsMutuallyExclusive("project", "both")
	initCmd.MarkFlagsMutuallyExclusive("user", "both")
	initCmd.MarkFlagsMutuallyExclusive("claude", "all-tools")
	initCmd.MarkFlagsMutuallyExclusive("codex", "all-tools")
	rootCmd.AddCommand(initCmd)
}
