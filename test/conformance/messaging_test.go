//go:build conformance

package conformance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test 1: say then read delivers the message to another session
func TestMessaging_SayRead(t *testing.T) {
	p := initProject(t)
	alice := p.register("a")
	p.register("b")

	if _, stderr, code := p.as("a", "say", "build", "is", "green"); code != 0 {
		t.Fatalf("say failed: %s", stderr)
	}
	stdout, _, code := p.as("b", "read")
	if code != 0 {
		t.Fatalf("read failed")
	}
	if !strings.Contains(stdout, "["+alice+" ") || !strings.Contains(stdout, "build is green") {
		t.Errorf("unexpected read output: %s", stdout)
	}
}

// Test 2: a second read with nothing new prints nothing
func TestMessaging_ReadAdvancesCursor(t *testing.T) {
	p := initProject(t)
	p.register("a")
	p.register("b")
	p.as("a", "say", "once")
	p.as("b", "read")

	stdout, _, _ := p.as("b", "read")
	if stdout != "" {
		t.Errorf("expected empty second read, got: %s", stdout)
	}
}

// Test 3: first contact shows only the newest first_read_count messages
func TestMessaging_FirstContactLimit(t *testing.T) {
	p := initProject(t)
	p.register("a")
	p.register("b")
	for i := 0; i < 8; i++ {
		p.as("a", "say", "msg", string(rune('0'+i)))
	}

	stdout, _, _ := p.as("b", "read", "--json")
	var msgs []map[string]any
	if err := json.Unmarshal([]byte(stdout), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages on first contact, got %d", len(msgs))
	}
	if msgs[4]["body"] != "msg 7" {
		t.Errorf("expected newest last, got %v", msgs[4]["body"])
	}
}

// Test 4: say without an identity fails
func TestMessaging_SayNeedsIdentity(t *testing.T) {
	p := initProject(t)
	_, stderr, code := p.run("", nil, "say", "hello")
	if code == 0 {
		t.Fatal("say without identity should fail")
	}
	if !strings.Contains(stderr, "E_MISSING_IDENTITY") {
		t.Errorf("expected E_MISSING_IDENTITY, got: %s", stderr)
	}
}

// Test 5: messages are one file each with the documented layout
func TestMessaging_OnDiskFormat(t *testing.T) {
	p := initProject(t)
	alice := p.register("a")
	p.as("a", "say", "line")

	entries, err := os.ReadDir(filepath.Join(p.root, ".agent-chat", "log"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one message file, got %d (%v)", len(entries), err)
	}
	if !strings.HasSuffix(entries[0].Name(), ".md") {
		t.Errorf("unexpected filename %s", entries[0].Name())
	}
	data, _ := os.ReadFile(filepath.Join(p.root, ".agent-chat", "log", entries[0].Name()))
	if string(data) != "name: "+alice+"\nline\n" {
		t.Errorf("unexpected content %q", data)
	}
}

// Test 6: status is terse and empty when caught up
func TestMessaging_Status(t *testing.T) {
	p := initProject(t)
	p.register("a")
	p.register("b")

	stdout, _, code := p.as("b", "status")
	if code != 0 || stdout != "" {
		t.Fatalf("expected silent status, got %q (exit %d)", stdout, code)
	}
	p.as("a", "say", "ping")
	stdout, _, _ = p.as("b", "status")
	if stdout != "[agent-chat: 1 unread message]\n" {
		t.Errorf("unexpected status %q", stdout)
	}
}

// Test 7: check-messages emits hook JSON once, then nothing
func TestMessaging_CheckMessagesHook(t *testing.T) {
	p := initProject(t)
	alice := p.register("a")
	p.register("b")
	p.as("a", "say", "heads up")

	stdout, _, code := p.as("b", "check-messages")
	if code != 0 {
		t.Fatalf("check-messages failed")
	}
	ctx, _ := hookOutput(t, stdout)
	if !strings.Contains(ctx, "from "+alice) || !strings.Contains(ctx, "heads up") {
		t.Errorf("unexpected context %q", ctx)
	}

	stdout, _, _ = p.as("b", "check-messages")
	if stdout != "" {
		t.Errorf("expected no output after advancing, got %s", stdout)
	}
}

// Test 8: register is idempotent per session
func TestMessaging_RegisterIdempotent(t *testing.T) {
	p := initProject(t)
	first := p.register("a")
	second := p.register("a")
	if first != second {
		t.Errorf("name changed on re-register: %s -> %s", first, second)
	}
	other := p.register("b")
	if other == first {
		t.Errorf("two sessions share the name %s", first)
	}
}
