package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent-chat/agent-chat/internal/format"
	"github.com/agent-chat/agent-chat/internal/hooks"
	"github.com/agent-chat/agent-chat/pkg/color"
	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/globmatch"
	"github.com/agent-chat/agent-chat/pkg/logging"
	"github.com/agent-chat/agent-chat/pkg/model"
)

var (
	lockTTL       time.Duration
	checkLockFile string
)

var lockCmd = &cobra.Command{
	Use:   "lock <glob>",
	Short: "Claim an advisory lock on files matching a glob",
	Long: `Claim an advisory lock on files matching a glob.

Other sessions get a warning before editing a matching file until the lock
is released or its TTL (lock_ttl_secs, or --ttl) elapses. Locking a glob you
already hold refreshes it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		glob := globmatch.Clean(args[0])
		if !globmatch.Valid(glob) {
			return errclass.ErrNameInvalid.WithMessagef("invalid glob: %s", args[0])
		}

		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		id, err := requireNamedIdentity(cmd, client)
		if err != nil {
			return err
		}

		var rec *model.LockEntry
		if lockTTL > 0 {
			rec, err = client.LockFor(cmd.Context(), glob, id, lockTTL)
		} else {
			rec, err = client.Lock(cmd.Context(), glob, id)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd, rec)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.SuccessLine("Locked:", glob))
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <glob>",
	Short: "Release an advisory lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		glob := globmatch.Clean(args[0])

		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		id, err := requireIdentity(cmd, client)
		if err != nil {
			return err
		}
		if err := client.Unlock(cmd.Context(), glob, id.SessionID); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd, map[string]string{"released": glob})
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.SuccessLine("Unlocked:", glob))
		return nil
	},
}

var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "List active locks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient(cmd)
		if err != nil {
			return err
		}
		locks, err := client.Locks(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			if locks == nil {
				locks = []model.LockEntry{}
			}
			return outputJSON(cmd, locks)
		}
		out := cmd.OutOrStdout()
		if len(locks) == 0 {
			fmt.Fprintln(out, color.InfoLine("Locks:", "No active locks."))
			return nil
		}
		now := time.Now()
		table := format.NewTable("PATTERN", "OWNER", "TTL")
		for i := range locks {
			l := &locks[i]
			table.Row(l.Glob, l.Owner, format.Remaining(l.Remaining(now)))
		}
		fmt.Fprint(out, table.String())
		return nil
	},
}

var checkLockCmd = &cobra.Command{
	Use:   "check-lock",
	Short: "Warn if a file is locked by another session (PreToolUse hook)",
	Long: `Read a PreToolUse payload from stdin (or take --file) and, when another
session holds a lock matching the file, emit a warning as hook JSON.
Silent otherwise. Never fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return passive("check-lock", runCheckLock(cmd))
	},
}

func runCheckLock(cmd *cobra.Command) error {
	client, err := requireClient(cmd)
	if err != nil {
		return err
	}
	id, err := requireIdentity(cmd, client)
	if err != nil {
		logging.Debug("check-lock without identity", map[string]any{"error": err.Error()})
		return nil
	}

	filePath := checkLockFile
	if filePath == "" {
		in, err := hooks.ReadPreToolUse(cmd.InOrStdin())
		if err != nil {
			return err
		}
		filePath = in.FilePath()
	}
	if filePath == "" {
		return nil
	}
	display := filePath
	if !filepath.IsAbs(filePath) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot get current directory: %w", err)
		}
		filePath = filepath.Join(cwd, filePath)
	}

	rec, err := client.CheckFile(cmd.Context(), filePath, id.SessionID)
	if errors.Is(err, errclass.ErrPathEscape) {
		logging.Debug("file outside project", map[string]any{"path": filePath})
		return nil
	}
	if err != nil || rec == nil {
		return err
	}
	return hooks.WriteMessage(cmd.OutOrStdout(), format.LockWarning(display, rec))
}

func init() {
	lockCmd.Flags().DurationVar(&lockTTL, "ttl", 0, "lock lifetime (default lock_ttl_secs from config.yaml)")
	checkLockCmd.Flags().StringVar(&checkLockFile, "file", "", "file to check instead of reading hook JSON")
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(locksCmd)
	rootCmd.AddCommand(checkLockCmd)
}
