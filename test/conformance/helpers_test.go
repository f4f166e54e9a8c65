//go:build conformance

package conformance

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var agentChatBinary string

func init() {
	// Find the agent-chat binary
	cwd, _ := os.Getwd()
	// Walk up to find bin/agent-chat
	for {
		binPath := filepath.Join(cwd, "bin", "agent-chat")
		if _, err := os.Stat(binPath); err == nil {
			agentChatBinary = binPath
			return
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	// Fallback to PATH
	agentChatBinary = "agent-chat"
}

// project is a temp directory with .agent-chat/ initialized.
type project struct {
	t    *testing.T
	root string
	home string
}

func initProject(t *testing.T) *project {
	t.Helper()
	p := &project{t: t, root: t.TempDir(), home: t.TempDir()}
	if _, stderr, code := p.run("", nil, "init", "--project", "--claude"); code != 0 {
		t.Fatalf("init failed: %s", stderr)
	}
	return p
}

// run executes agent-chat in the project root, with stdin and extra
// environment entries.
func (p *project) run(stdin string, env []string, args ...string) (stdout, stderr string, exitCode int) {
	p.t.Helper()
	cmd := exec.Command(agentChatBinary, args...)
	cmd.Dir = p.root
	cmd.Env = append([]string{
		"HOME=" + p.home,
		"PATH=" + os.Getenv("PATH"),
		"NO_COLOR=1",
	}, env...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}
	return
}

// as runs a command as session sid.
func (p *project) as(sid string, args ...string) (stdout, stderr string, exitCode int) {
	p.t.Helper()
	return p.run("", []string{"AGENT_CHAT_SESSION_ID=" + sid}, args...)
}

// register assigns sid a name through the SessionStart hook path.
func (p *project) register(sid string) string {
	p.t.Helper()
	stdout, stderr, code := p.run(`{"session_id":"`+sid+`"}`, nil, "register", "--json")
	if code != 0 {
		p.t.Fatalf("register %s failed: %s", sid, stderr)
	}
	var res struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil || res.Name == "" {
		p.t.Fatalf("register %s: bad output %q", sid, stdout)
	}
	return res.Name
}

// hookOutput decodes a hookSpecificOutput envelope.
func hookOutput(t *testing.T, stdout string) (context, message string) {
	t.Helper()
	var out struct {
		HookSpecificOutput struct {
			AdditionalContext string `json:"additionalContext"`
			Message           string `json:"message"`
		} `json:"hookSpecificOutput"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("decode hook output %q: %v", stdout, err)
	}
	return out.HookSpecificOutput.AdditionalContext, out.HookSpecificOutput.Message
}
