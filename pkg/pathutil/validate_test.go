package pathutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/pathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName_Valid(t *testing.T) {
	valid := []string{"swift-fox", "sess-1", "3f1c2a9e-7b0d-4d8e-9a51-2f4b6c8d0e1a", "agent_2", "v1.0"}
	for _, name := range valid {
		assert.NoError(t, pathutil.ValidateName(name), "should accept: %s", name)
	}
}

func TestValidateName_Invalid(t *testing.T) {
	invalid := []string{"", "..", "a/b", "a\\b", ".hidden", ".tmp.123", "hello\x00world", "has space", "a..b"}
	for _, name := range invalid {
		require.ErrorIs(t, pathutil.ValidateName(name), errclass.ErrNameInvalid, "should reject: %q", name)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "caf\u00e9", pathutil.NormalizeName(" cafe\u0301\n"))
}

func TestRelToRoot_Absolute(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "commands"), 0755))

	rel, err := pathutil.RelToRoot(root, root, filepath.Join(root, "src", "commands", "init.rs"))
	require.NoError(t, err)
	assert.Equal(t, "src/commands/init.rs", rel)
}

func TestRelToRoot_RelativeToBase(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(sub, 0755))

	rel, err := pathutil.RelToRoot(root, sub, "main.rs")
	require.NoError(t, err)
	assert.Equal(t, "src/main.rs", rel)
}

func TestRelToRoot_MissingIntermediateDirs(t *testing.T) {
	root := t.TempDir()
	rel, err := pathutil.RelToRoot(root, root, filepath.Join(root, "a", "b", "c.go"))
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.go", rel)
}

func TestRelToRoot_Escape(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "project")
	require.NoError(t, os.Mkdir(root, 0755))

	_, err := pathutil.RelToRoot(root, root, filepath.Join(parent, "other.txt"))
	require.ErrorIs(t, err, errclass.ErrPathEscape)
}

func TestRelToRoot_Symlink(t *testing.T) {
	real := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skip("symlinks not supported")
	}
	rel, err := pathutil.RelToRoot(real, link, "x.go")
	require.NoError(t, err)
	assert.Equal(t, "x.go", rel)
}
