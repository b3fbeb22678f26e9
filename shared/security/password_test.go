package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("secret123")
	require.NoError(t, err)
	require.NotEmpty(t, encoded)
	assert.NotContains(t, encoded, "secret123")

	ok, err := VerifyPassword("secret123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("secret123")
	require.NoError(t, err)

	second, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAnswerNormalization(t *testing.T) {
	encoded, err := HashAnswer("  Rex ")
	require.NoError(t, err)

	for _, answer := range []string{"rex", "REX", " Rex", "rex  "} {
		ok, err := VerifyAnswer(answer, encoded)
		require.NoError(t, err)
		assert.True(t, ok, "answer %q should match", answer)
	}

	ok, err := VerifyAnswer("fido", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}
