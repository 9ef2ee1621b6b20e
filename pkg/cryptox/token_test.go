package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
		_, err = GenerateToken(-1)
		require.Error(t, err)
	})

	t.Run("encodes the requested entropy", func(t *testing.T) {
		token, err := GenerateToken(TokenSize512)
		require.NoError(t, err)
		// 64 bytes -> ceil(64*8/6) = 86 base64url chars, no padding.
		require.Len(t, token, 86)
		require.NotContains(t, token, "=")
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 100 {
			token, err := GenerateToken(TokenSize256)
			require.NoError(t, err)
			_, dup := seen[token]
			require.False(t, dup)
			seen[token] = struct{}{}
		}
	})
}

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	_, err := GenerateNumericCode(0)
	require.Error(t, err)

	for range 50 {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "code %q contains non-digit", code)
		}
	}
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := FingerprintToken("some-opaque-token")
	require.Equal(t, fp, FingerprintToken("some-opaque-token"))
	require.NotEqual(t, fp, FingerprintToken("some-opaque-tokeN"))
	require.NotEqual(t, fp, "some-opaque-token")
	// SHA-256 -> 32 bytes -> 43 base64url chars.
	require.Len(t, fp, 43)
}
