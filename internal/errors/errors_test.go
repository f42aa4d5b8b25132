package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesCategory(t *testing.T) {
	tests := []struct {
		code     string
		category Category
	}{
		{ErrCodeInvalidArg, CategoryArg},
		{ErrCodeInvalidQuery, CategoryArg},
		{ErrCodeReaderClosed, CategoryState},
		{ErrCodeIOFailed, CategoryIO},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := ArgError("doc out of range", nil)
	assert.Equal(t, "[ERR_101_INVALID_ARG] doc out of range", err.Error())
}

func TestIsMatchesByCode(t *testing.T) {
	err := StateError("reader closed", nil)
	assert.True(t, stderrors.Is(err, New(ErrCodeInvalidState, "", nil)))
	assert.False(t, stderrors.Is(err, New(ErrCodeInvalidArg, "", nil)))
}

func TestUnwrapChain(t *testing.T) {
	base := stderrors.New("disk gone")
	err := Wrap(ErrCodeIOFailed, fmt.Errorf("opening store: %w", base))
	assert.True(t, stderrors.Is(err, base))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeIOFailed, nil))
}

func TestWithDetail(t *testing.T) {
	err := IOError("store open failed", nil).
		WithDetail("path", "/tmp/idx").
		WithDetail("op", "open")
	require.NotNil(t, err.Details)
	assert.Equal(t, "/tmp/idx", err.Details["path"])
	assert.Equal(t, "open", err.Details["op"])
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidArg, GetCode(ArgError("x", nil)))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
}
