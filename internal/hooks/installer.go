package hooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
)

// Hook event names understood by Claude settings files.
const (
	EventSessionStart = "SessionStart"
	EventStop         = "Stop"
	EventPreToolUse   = "PreToolUse"
)

// HookCommand is one command entry inside a matcher group.
type HookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup is a matcher plus the commands it triggers.
type HookGroup struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []HookCommand `json:"hooks"`
}

// BinaryPath returns the absolute path of the running executable, or the
// bare command name when it cannot be determined.
func BinaryPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "agent-chat"
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		return resolved
	}
	return exe
}

// DesiredHooks returns the hook groups agent-chat installs, keyed by event.
func DesiredHooks(bin string) map[string][]HookGroup {
	cmd := func(sub string, timeout int) []HookCommand {
		return []HookCommand{{Type: "command", Command: bin + " " + sub, Timeout: timeout}}
	}
	return map[string][]HookGroup{
		EventSessionStart: {{Matcher: "startup|resume", Hooks: cmd("register", 10)}},
		EventStop:         {{Hooks: cmd("status", 5)}},
		EventPreToolUse: {
			{Matcher: "Edit|Write", Hooks: cmd("check-lock", 5)},
			{Matcher: "Bash", Hooks: cmd("check-messages", 5)},
		},
	}
}

// Permission is the allow-list entry letting the agent run agent-chat.
func Permission(bin string) string {
	return fmt.Sprintf("Bash(%s *)", bin)
}

// commandKey reduces "/abs/path/agent-chat register" to "agent-chat register"
// so reinstalling from a different binary location replaces old entries.
func commandKey(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	fields[0] = filepath.Base(fields[0])
	return strings.Join(fields, " ")
}

// InstallSettings merges agent-chat hooks and its permission into the JSON
// settings file at path, creating it if needed. Unrelated keys, hooks and
// permissions are preserved; earlier agent-chat entries are replaced.
func InstallSettings(path, bin string) error {
	settings := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(strings.TrimSpace(string(data))) > 0 {
			if err := json.Unmarshal(data, &settings); err != nil {
				return errclass.ErrMalformed.WithMessagef("%s: %v", path, err)
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read settings: %w", err)
	}

	mergePermission(settings, Permission(bin))
	if err := mergeHooks(settings, DesiredHooks(bin)); err != nil {
		return err
	}

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return fsutil.AtomicWrite(path, append(out, '\n'), 0644)
}

func mergePermission(settings map[string]any, allow string) {
	perms, _ := settings["permissions"].(map[string]any)
	if perms == nil {
		perms = map[string]any{}
	}
	list, _ := perms["allow"].([]any)
	for _, v := range list {
		if s, ok := v.(string); ok && s == allow {
			settings["permissions"] = perms
			return
		}
	}
	perms["allow"] = append(list, allow)
	settings["permissions"] = perms
}

func mergeHooks(settings map[string]any, desired map[string][]HookGroup) error {
	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}
	for event, groups := range desired {
		existing, _ := hooks[event].([]any)
		ours := map[string]bool{}
		for _, g := range groups {
			for _, h := range g.Hooks {
				ours[commandKey(h.Command)] = true
			}
		}

		kept := make([]any, 0, len(existing)+len(groups))
		for _, e := range existing {
			if !groupHasCommand(e, ours) {
				kept = append(kept, e)
			}
		}
		for _, g := range groups {
			generic, err := toGeneric(g)
			if err != nil {
				return err
			}
			kept = append(kept, generic)
		}
		hooks[event] = kept
	}
	settings["hooks"] = hooks
	return nil
}

func groupHasCommand(group any, keys map[string]bool) bool {
	g, ok := group.(map[string]any)
	if !ok {
		return false
	}
	cmds, _ := g["hooks"].([]any)
	for _, c := range cmds {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["command"].(string); ok && keys[commandKey(s)] {
			return true
		}
	}
	return false
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal hook group: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal hook group: %w", err)
	}
	return out, nil
}
