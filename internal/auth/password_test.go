package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hashed, err := HashPassword("open-sesame", bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, ComparePassword(hashed, "open-sesame"))
	assert.ErrorIs(t, ComparePassword(hashed, "wrong"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestHashPassword_ZeroCostFallsBackToDefault(t *testing.T) {
	hashed, err := HashPassword("open-sesame", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
