package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateLicenseKeyFormat(t *testing.T) {
	re := regexp.MustCompile(`^LIC(-[0-9A-F]{4}){6}$`)

	for i := 0; i < 100; i++ {
		key, err := GenerateLicenseKey()
		require.NoError(t, err)
		require.Regexp(t, re, key)
	}
}

func TestGenerateAPIKeyFormat(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{64}$`)

	key, err := GenerateAPIKey()
	require.NoError(t, err)
	require.Regexp(t, re, key)
}

func TestGenerateAPIKeyNoCollisions(t *testing.T) {
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		key, err := GenerateAPIKey()
		require.NoError(t, err)

		_, dup := seen[key]
		require.False(t, dup, "duplicate api key after %d draws", i)
		seen[key] = struct{}{}
	}
}

func TestArgon2RoundTrip(t *testing.T) {
	encoded, err := HashArgon2("admin-token")
	require.NoError(t, err)
	require.Contains(t, encoded, "$argon2id$")

	require.True(t, VerifyArgon2("admin-token", encoded))
	require.False(t, VerifyArgon2("wrong-token", encoded))
	require.False(t, VerifyArgon2("admin-token", "not-an-encoded-hash"))
}
