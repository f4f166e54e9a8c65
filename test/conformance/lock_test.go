//go:build conformance

package conformance

import (
	"path/filepath"
	"strings"
	"testing"
)

// Test 1: lock acquire succeeds
func TestLock_Acquire(t *testing.T) {
	p := initProject(t)
	p.register("a")

	stdout, stderr, code := p.as("a", "lock", "src/*.rs")
	if code != 0 {
		t.Fatalf("lock failed: %s", stderr)
	}
	if !strings.Contains(stdout, "Locked:") {
		t.Errorf("expected 'Locked:' in output, got: %s", stdout)
	}
}

// Test 2: another session conflicts, the owner refreshes
func TestLock_Conflict(t *testing.T) {
	p := initProject(t)
	alice := p.register("a")
	p.register("b")
	p.as("a", "lock", "src/*.rs")

	_, stderr, code := p.as("b", "lock", "src/*.rs")
	if code == 0 {
		t.Fatal("second session should conflict")
	}
	if !strings.Contains(stderr, "E_LOCK_CONFLICT") || !strings.Contains(stderr, alice) {
		t.Errorf("unexpected error: %s", stderr)
	}

	if _, _, code := p.as("a", "lock", "src/*.rs"); code != 0 {
		t.Error("owner should be able to refresh")
	}
}

// Test 3: only the owner releases
func TestLock_Release(t *testing.T) {
	p := initProject(t)
	p.register("a")
	p.register("b")
	p.as("a", "lock", "src/*.rs")

	if _, _, code := p.as("b", "unlock", "src/*.rs"); code == 0 {
		t.Error("non-owner unlock should fail")
	}
	if _, stderr, code := p.as("a", "unlock", "src/*.rs"); code != 0 {
		t.Fatalf("owner unlock failed: %s", stderr)
	}
	_, stderr, code := p.as("a", "unlock", "src/*.rs")
	if code == 0 || !strings.Contains(stderr, "E_LOCK_NOT_FOUND") {
		t.Errorf("expected E_LOCK_NOT_FOUND, got %s", stderr)
	}
}

// Test 4: check-lock warns other sessions only
func TestLock_CheckLockHook(t *testing.T) {
	p := initProject(t)
	alice := p.register("a")
	p.register("b")
	p.as("a", "lock", "src/*.rs")

	payload := `{"tool_name":"Write","tool_input":{"file_path":"` + filepath.Join(p.root, "src", "main.rs") + `"}}`
	stdout, _, code := p.run(payload, []string{"AGENT_CHAT_SESSION_ID=b"}, "check-lock")
	if code != 0 {
		t.Fatal("check-lock must never fail")
	}
	_, msg := hookOutput(t, stdout)
	if !strings.Contains(msg, "locked by "+alice) {
		t.Errorf("unexpected warning %q", msg)
	}

	stdout, _, _ = p.run(payload, []string{"AGENT_CHAT_SESSION_ID=a"}, "check-lock")
	if stdout != "" {
		t.Errorf("owner should not be warned, got %s", stdout)
	}

	stdout, _, _ = p.as("b", "check-lock", "--file", "tests/main.rs")
	if stdout != "" {
		t.Errorf("non-matching file should be silent, got %s", stdout)
	}
}

// Test 5: locks lists the active entries
func TestLock_List(t *testing.T) {
	p := initProject(t)
	alice := p.register("a")
	p.as("a", "lock", "docs/**")

	stdout, _, _ := p.run("", nil, "locks")
	if !strings.Contains(stdout, "docs/**") || !strings.Contains(stdout, alice) {
		t.Errorf("unexpected list: %s", stdout)
	}
}
