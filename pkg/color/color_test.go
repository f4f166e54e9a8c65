package color

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func restore(t *testing.T) {
	t.Helper()
	enabled := state.enabled.Load()
	overridden := state.overridden.Load()
	t.Cleanup(func() {
		state.enabled.Store(enabled)
		state.overridden.Store(overridden)
	})
}

func TestEnableDisable(t *testing.T) {
	restore(t)

	Enable()
	assert.True(t, Enabled())

	Disable()
	assert.False(t, Enabled())
}

func TestDisabled_ReturnsPlainText(t *testing.T) {
	restore(t)
	Disable()

	assert.Equal(t, "ok", Success("ok"))
	assert.Equal(t, "bad", Error("bad"))
	assert.Equal(t, "careful", Warning("careful"))
	assert.Equal(t, "note", Info("note"))
	assert.Equal(t, "swift-fox", Name("swift-fox"))
	assert.Equal(t, "Title", Header("Title"))
	assert.Equal(t, "14:30", Dim("14:30"))
	assert.Equal(t, "agent-chat say", Code("agent-chat say"))
	assert.Equal(t, "n=3", Infof("n=%d", 3))
}

func TestLines(t *testing.T) {
	restore(t)
	Disable()

	assert.Equal(t, "✓ Locked: src/*.go", SuccessLine("Locked:", "src/*.go"))
	assert.Equal(t, "✓ Focus cleared.", SuccessLine("Focus cleared.", ""))
	assert.Equal(t, "• Locks: No active locks.", InfoLine("Locks:", "No active locks."))
}

func TestEnabled_KeepsText(t *testing.T) {
	restore(t)
	Enable()

	assert.True(t, strings.Contains(Success("done"), "done"))
	assert.True(t, strings.Contains(Errorf("code %d", 1), "code 1"))
}

func TestInit_FlagDisables(t *testing.T) {
	restore(t)
	Enable()
	Init(true)
	assert.False(t, Enabled())
}
