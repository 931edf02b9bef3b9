package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_Hash_and_Compare(t *testing.T) {
	h := NewBcryptHasher(4)
	password := "Abc12345"

	hash, err := h.Hash(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	err = h.Compare(hash, password)
	require.NoError(t, err)
}

func TestBcryptHasher_Compare_wrong_password(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("correct")
	require.NoError(t, err)

	err = h.Compare(hash, "wrong")
	assert.Error(t, err)
}

func TestPasswordGenerator_Generate(t *testing.T) {
	g := NewPasswordGenerator()
	re := regexp.MustCompile(`^[A-Za-z0-9]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pw, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, re, pw)
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 1, "passwords should differ between calls")
}
