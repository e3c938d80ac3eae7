package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(4) // low cost keeps the test fast

	hash, err := h.Hash("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", hash)

	assert.True(t, h.Verify("Secret1!", hash))
	assert.False(t, h.Verify("wrong-password", hash))
}

func TestHasher_DistinctHashes(t *testing.T) {
	h := NewHasher(4)

	first, err := h.Hash("Secret1!")
	require.NoError(t, err)
	second, err := h.Hash("Secret1!")
	require.NoError(t, err)

	// bcrypt salts every hash, so equal inputs produce distinct hashes.
	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("Secret1!", first))
	assert.True(t, h.Verify("Secret1!", second))
}

func TestHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewHasher(99)

	hash, err := h.Hash("Secret1!")
	require.NoError(t, err)
	assert.True(t, h.Verify("Secret1!", hash))
}

func TestGenerateVerificationCode_Length(t *testing.T) {
	for _, length := range []int{1, 16, 32, 64} {
		code, err := GenerateVerificationCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
	}
}

func TestGenerateVerificationCode_Alphanumeric(t *testing.T) {
	code, err := GenerateVerificationCode(64)
	require.NoError(t, err)

	for _, c := range code {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		assert.True(t, isAlnum, "unexpected character %q in code", c)
	}
}

func TestGenerateVerificationCode_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		code, err := GenerateVerificationCode(32)
		require.NoError(t, err)
		_, dup := seen[code]
		assert.False(t, dup, "generated duplicate code %q", code)
		seen[code] = struct{}{}
	}
}

func TestGenerateVerificationCode_InvalidLength(t *testing.T) {
	_, err := GenerateVerificationCode(0)
	assert.Error(t, err)

	_, err = GenerateVerificationCode(-5)
	assert.Error(t, err)
}
