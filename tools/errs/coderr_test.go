package errs

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ArgsError, CodeOf(ErrArgs))
	assert.Equal(t, ArgsError, CodeOf(ErrArgs.WrapMsg("bad member_id")))
	assert.Equal(t, DuplicateKeyError, CodeOf(fmt.Errorf("outer: %w", ErrDuplicateKey.Wrap())))

	// 非业务码错误一律按内部错误
	assert.Equal(t, ServerInternalError, CodeOf(errors.New("disk on fire")))
}

func TestCodeErrorWrapKeepsCode(t *testing.T) {
	err := ErrRecordNotFound.WrapMsg("no pending request", "member_id", "alice")
	codeErr, ok := CodeErrorOf(err)
	require.True(t, ok)
	assert.Equal(t, RecordNotFoundError, codeErr.Code())
	assert.Contains(t, err.Error(), "member_id")
}

func TestCodeErrorIs(t *testing.T) {
	wrapped := ErrNoPermission.WrapMsg("pair is blocked")
	assert.True(t, ErrNoPermission.Is(wrapped))
	assert.False(t, ErrArgs.Is(wrapped))
}

func TestWithDetailDoesNotMutateBase(t *testing.T) {
	detailed := ErrInternalServer.WithDetail("redis timeout")
	assert.Contains(t, detailed.Error(), "redis timeout")
	assert.NotContains(t, ErrInternalServer.Error(), "redis timeout")
}
