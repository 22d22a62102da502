package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := GeneratePasswordHash("calm-morning")
	require.NoError(t, err)

	assert.NotEqual(t, "calm-morning", hash)
	assert.NoError(t, ComparePasswordHash([]byte(hash), "calm-morning"))
	assert.Error(t, ComparePasswordHash([]byte(hash), "stormy-evening"))
}

func TestPasswordHash_Salted(t *testing.T) {
	first, err := GeneratePasswordHash("same")
	require.NoError(t, err)
	second, err := GeneratePasswordHash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSimulatePasswordCheck(t *testing.T) {
	assert.NotEmpty(t, dummyHash)
	assert.NotPanics(t, func() { SimulatePasswordCheck("anything") })
}

func TestPasswordHash_LongPassword(t *testing.T) {
	long := strings.Repeat("a", 80)

	hash, err := GeneratePasswordHash(long)
	require.NoError(t, err)

	assert.NoError(t, ComparePasswordHash([]byte(hash), long))
	// Passwords sharing the first 72 bytes must still differ.
	assert.Error(t, ComparePasswordHash([]byte(hash), strings.Repeat("a", 72)+"bbbbbbbb"))
}
