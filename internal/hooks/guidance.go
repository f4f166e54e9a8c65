package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agent-chat/agent-chat/pkg/fsutil"
)

// Section is a sentinel-delimited block owned by agent-chat inside a
// markdown file that otherwise belongs to the user.
type Section struct {
	Start string
	End   string
	Body  string
}

// Text returns the full block including sentinels.
func (s Section) Text() string {
	return s.Start + "\n" + strings.TrimSpace(s.Body) + "\n" + s.End
}

// ClaudeSection is installed into CLAUDE.md.
var ClaudeSection = Section{
	Start: "<!-- agent-chat:start -->",
	End:   "<!-- agent-chat:end -->",
	Body: "# Agent Chat\n\n" +
		"This project uses `agent-chat` for inter-agent coordination. You were auto-registered\n" +
		"at session start; your name is in `$AGENT_CHAT_NAME`.\n\n" +
		"## Commands\n\n" +
		"- `agent-chat read`: check for messages from other agents\n" +
		"- `agent-chat say <msg>`: post to the shared chatroom\n" +
		"- `agent-chat lock <glob>`: claim an advisory lock before editing files\n" +
		"- `agent-chat unlock <glob>`: release when done\n" +
		"- `agent-chat locks`: see who has locked what\n" +
		"- `agent-chat focus set <area>`: announce what you are working on\n\n" +
		"## Conventions\n\n" +
		"- Say what you're working on when you start a task\n" +
		"- Lock files before multi-file edits, unlock when done\n" +
		"- Read messages when the Stop hook tells you there are unread messages\n" +
		"- Keep messages short; other agents pay tokens to read them\n",
}

// CodexSection is installed into AGENTS.md.
var CodexSection = Section{
	Start: "<!-- agent-chat-codex:start -->",
	End:   "<!-- agent-chat-codex:end -->",
	Body: "## Agent Chat (Codex)\n\n" +
		"Use `agent-chat` for inter-agent coordination in this repo.\n\n" +
		"### Commands\n\n" +
		"- `agent-chat register --session <id>`: initialize identity for this Codex session\n" +
		"- `agent-chat read`: check unread messages from other agents\n" +
		"- `agent-chat say \"<msg>\"`: post short status updates\n" +
		"- `agent-chat lock \"<glob>\"`: advisory lock before editing shared files\n" +
		"- `agent-chat unlock \"<glob>\"`: release lock immediately after edits\n" +
		"- `agent-chat locks`: inspect active locks\n" +
		"- `agent-chat focus set \"<area>\"`: declare active focus area\n" +
		"- `agent-chat focus clear`: clear focus when done\n" +
		"- `agent-chat focus list`: inspect active focuses\n\n" +
		"### Suggested startup\n\n" +
		"1. Register once per Codex session: `agent-chat register --session \"$USER-$(date +%s)\"`\n" +
		"2. Export the printed `AGENT_CHAT_SESSION_ID`\n" +
		"3. Run `agent-chat read`\n" +
		"4. Announce scope: `agent-chat say \"starting on <task>\"`\n" +
		"5. Lock planned files: `agent-chat lock \"src/<area>/**\"`\n\n" +
		"### Finishing\n\n" +
		"1. Unlock files you touched.\n" +
		"2. Clear focus.\n" +
		"3. Announce completion.\n" +
		"4. Run `agent-chat read` once more.\n",
}

// InstallSection writes s into the markdown file at path: created if
// missing, replaced in place if the sentinels exist, appended otherwise.
func InstallSection(path string, s Section) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return fsutil.AtomicWrite(path, []byte(MergeSection(string(data), s)), 0644)
}

// MergeSection returns existing with s installed.
func MergeSection(existing string, s Section) string {
	block := s.Text()
	start := strings.Index(existing, s.Start)
	if start < 0 {
		trimmed := strings.TrimRight(existing, " \t\r\n")
		if trimmed == "" {
			return block + "\n"
		}
		return trimmed + "\n\n" + block + "\n"
	}

	before := strings.TrimRight(existing[:start], " \t\r\n")
	after := ""
	if end := strings.Index(existing[start:], s.End); end >= 0 {
		after = existing[start+end+len(s.End):]
	}
	var b strings.Builder
	if before != "" {
		b.WriteString(before)
		b.WriteString("\n\n")
	}
	b.WriteString(block)
	if strings.TrimSpace(after) == "" {
		b.WriteString("\n")
	} else {
		b.WriteString(after)
	}
	return b.String()
}

// AddGitExclude appends pattern to .git/info/exclude of the repository
// containing projectRoot. Outside a git work tree it does nothing.
func AddGitExclude(projectRoot, pattern string) error {
	gitDir := ""
	for dir := projectRoot; ; {
		candidate := filepath.Join(dir, ".git")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			gitDir = candidate
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}

	path := filepath.Join(gitDir, "info", "exclude")
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read git exclude: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == pattern {
			return nil
		}
	}
	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += pattern + "\n"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create git info dir: %w", err)
	}
	return fsutil.AtomicWrite(path, []byte(content), 0644)
}
