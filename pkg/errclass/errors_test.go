package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	err := errclass.ErrLockNotFound.WithMessage("no lock on src/*.go")
	assert.Equal(t, "E_LOCK_NOT_FOUND: no lock on src/*.go", err.Error())
}

func TestError_Error_WithoutMessage(t *testing.T) {
	assert.Equal(t, "E_MALFORMED", errclass.ErrMalformed.Error())
}

func TestError_Is(t *testing.T) {
	err := errclass.ErrMissingIdentity.WithMessage("no session")
	require.True(t, errors.Is(err, errclass.ErrMissingIdentity))
	require.False(t, errors.Is(err, errclass.ErrLockConflict))
}

func TestError_Is_ThroughWrap(t *testing.T) {
	err := fmt.Errorf("read message: %w", errclass.ErrMalformed.WithMessage("bad header"))
	require.ErrorIs(t, err, errclass.ErrMalformed)
}

func TestError_Is_StandardError(t *testing.T) {
	err := errclass.ErrNameInvalid.WithMessage("test")
	require.False(t, errors.Is(err, errors.New("some error")))
	require.False(t, errors.Is(errors.New("some error"), err))
}

func TestError_WithMessage_DoesNotMutateBase(t *testing.T) {
	base := errclass.ErrPathEscape
	err1 := base.WithMessage("one")
	err2 := base.WithMessagef("two %d", 2)

	assert.Equal(t, "E_PATH_ESCAPE", err1.Code)
	assert.Equal(t, "one", err1.Message)
	assert.Equal(t, "two 2", err2.Message)
	assert.Empty(t, base.Message)
}

func TestError_AllCodesUnique(t *testing.T) {
	all := []*errclass.Error{
		errclass.ErrNotInitialized,
		errclass.ErrLockConflict,
		errclass.ErrLockNotFound,
		errclass.ErrMissingIdentity,
		errclass.ErrMalformed,
		errclass.ErrNameInvalid,
		errclass.ErrPathEscape,
		errclass.ErrConfigInvalid,
	}
	seen := map[string]bool{}
	for _, e := range all {
		assert.False(t, seen[e.Code], "duplicate code %s", e.Code)
		seen[e.Code] = true
	}
}

type coded struct{}

func (coded) Error() string     { return "conflict" }
func (coded) ErrorCode() string { return "E_LOCK_CONFLICT" }

func TestCode(t *testing.T) {
	assert.Equal(t, "E_CONFIG_INVALID", errclass.Code(fmt.Errorf("load: %w", errclass.ErrConfigInvalid)))
	assert.Equal(t, "E_LOCK_CONFLICT", errclass.Code(fmt.Errorf("acquire: %w", coded{})))
	assert.Equal(t, "", errclass.Code(errors.New("plain")))
	assert.Equal(t, "", errclass.Code(nil))
}
