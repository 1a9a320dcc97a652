package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "guess"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret!"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("s3cret!", 99)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret!"))
}
