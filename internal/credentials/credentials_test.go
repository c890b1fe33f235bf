package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := &BcryptHasher{Cost: bcrypt.MinCost}

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", digest)

	assert.True(t, h.Verify("correct horse", digest))
	assert.False(t, h.Verify("wrong horse", digest))
}

func TestBcryptHasher_SaltsEachDigest(t *testing.T) {
	t.Parallel()
	h := &BcryptHasher{Cost: bcrypt.MinCost}

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher()
	assert.False(t, h.Verify("anything", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify("anything", ""))
}

func TestBcryptHasher_TooLong(t *testing.T) {
	t.Parallel()
	h := &BcryptHasher{Cost: bcrypt.MinCost}

	_, err := h.Hash(strings.Repeat("x", 73))
	require.Error(t, err)
	assert.True(t, IsTooLong(err))
}
