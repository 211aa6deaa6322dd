package credential

import (
	"testing"

	"github.com/khanghh/klms/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, params.BcryptCost, cost)

	assert.True(t, Verify("correct horse", hash))
	assert.False(t, Verify("wrong horse", hash))
	assert.False(t, Verify("", hash))
	assert.False(t, Verify("correct horse", ""))
	assert.False(t, Verify("correct horse", "not-a-bcrypt-hash"))
}

func TestHashIsSalted(t *testing.T) {
	h1, err := Hash("password")
	require.NoError(t, err)
	h2, err := Hash("password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashEmpty(t *testing.T) {
	_, err := Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}
