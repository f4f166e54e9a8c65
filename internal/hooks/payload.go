// Package hooks handles coding-agent hook payloads and installs agent-chat
// into agent settings and guidance files.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/agent-chat/agent-chat/pkg/errclass"
)

// SessionStartInput is the JSON a SessionStart hook receives on stdin.
type SessionStartInput struct {
	SessionID   string `json:"session_id"`
	SessionType string `json:"session_type,omitempty"`
}

// PreToolUseInput is the JSON a PreToolUse hook receives on stdin.
type PreToolUseInput struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
}

// FilePath returns tool_input.file_path, or "" when absent.
func (p *PreToolUseInput) FilePath() string {
	if p.ToolInput == nil {
		return ""
	}
	s, _ := p.ToolInput["file_path"].(string)
	return s
}

// Output is the hookSpecificOutput envelope written to stdout.
type Output struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

// HookSpecificOutput carries either extra model context or a user-facing message.
type HookSpecificOutput struct {
	AdditionalContext string `json:"additionalContext,omitempty"`
	Message           string `json:"message,omitempty"`
}

// ReadSessionStart decodes a SessionStart payload.
func ReadSessionStart(r io.Reader) (*SessionStartInput, error) {
	var in SessionStartInput
	if err := decode(r, &in); err != nil {
		return nil, err
	}
	in.SessionID = strings.TrimSpace(in.SessionID)
	if in.SessionID == "" {
		return nil, errclass.ErrMalformed.WithMessage("session start payload has no session_id")
	}
	return &in, nil
}

// ReadPreToolUse decodes a PreToolUse payload.
func ReadPreToolUse(r io.Reader) (*PreToolUseInput, error) {
	var in PreToolUseInput
	if err := decode(r, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func decode(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read hook input: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errclass.ErrMalformed.WithMessagef("hook input: %v", err)
	}
	return nil
}

// WriteContext emits an additionalContext envelope.
func WriteContext(w io.Writer, context string) error {
	return writeOutput(w, Output{HookSpecificOutput: HookSpecificOutput{AdditionalContext: context}})
}

// WriteMessage emits a message envelope.
func WriteMessage(w io.Writer, msg string) error {
	return writeOutput(w, Output{HookSpecificOutput: HookSpecificOutput{Message: msg}})
}

func writeOutput(w io.Writer, out Output) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal hook output: %w", err)
	}
	_, err = w.Write(data)
	return err
}
