package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pass1234", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "pass1234", hash)

	assert.True(t, VerifyPassword(hash, "pass1234"))
	assert.False(t, VerifyPassword(hash, "pass12345"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "pass1234"))
}

func TestHashPasswordSalts(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("pass1234", 4)
	require.NoError(t, err)
	b, err := HashPassword("pass1234", 4)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "equal passwords must hash differently")
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"The Forest Hiker":     "the-forest-hiker",
		"  Sea --- Explorer  ": "sea-explorer",
		"Tour 2026!":           "tour-2026",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}
