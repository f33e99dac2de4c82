package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	assert.Len(t, s, n*2)
	_, err = hex.DecodeString(s)
	assert.NoError(t, err)
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	a, err := MakeRandHexString(32)
	require.NoError(t, err)
	b, err := MakeRandHexString(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)

	WipeByteArray(nil)
}

func TestGenerateRandByteArray(t *testing.T) {
	buf := GenerateRandByteArray(24)
	assert.Len(t, buf, 24)
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"exhausted", &StorageExhaustedError{Attempts: 10, Err: ErrConflict}, ErrStorageExhausted},
		{"exhausted unwraps conflict", &StorageExhaustedError{Attempts: 10, Err: ErrConflict}, ErrConflict},
		{"role", &RoleImmutableError{ProjectID: 1, FileName: "a", Existing: "source", Requested: "output"}, ErrRoleImmutable},
		{"owner", &UnauthorizedAccessError{UserID: "u2", ProjectID: 1, FileName: "a"}, ErrorUnauthorized},
		{"truncation", &TruncationSuspectedError{ProjectID: 1, FileName: "a.bky", OldSize: 500, NewSize: 10}, ErrTruncationSuspected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op failed: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.target))
		})
	}
}

func TestRoleImmutableError_As(t *testing.T) {
	err := fmt.Errorf("upload: %w", &RoleImmutableError{ProjectID: 7, FileName: "x.scm", Existing: "source", Requested: "output"})

	var roleErr *RoleImmutableError
	require.True(t, errors.As(err, &roleErr))
	assert.Equal(t, int64(7), roleErr.ProjectID)
	assert.Contains(t, err.Error(), `file "x.scm" in project 7 already has role source`)
}
