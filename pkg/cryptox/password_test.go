package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Each test run gets its own pepper so runs never interfere.
	dir, err := os.MkdirTemp("", "cryptox-test")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashSecretRoundTrip(t *testing.T) {
	t.Parallel()

	for _, secret := range []string{"Secret#123", "a", "correct horse battery staple", "123456"} {
		digest, err := HashSecret(secret)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(digest, "$argon2id$v=19$"))
		require.NotContains(t, digest, secret)

		require.NoError(t, VerifySecret(secret, digest))
		require.Error(t, VerifySecret(secret+"x", digest))
	}
}

func TestHashSecretIsSalted(t *testing.T) {
	t.Parallel()

	a, err := HashSecret("same-secret")
	require.NoError(t, err)
	b, err := HashSecret("same-secret")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NoError(t, VerifySecret("same-secret", a))
	require.NoError(t, VerifySecret("same-secret", b))
}

func TestVerifySecretMalformedDigest(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=19456,t=2,p=1$short",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$bogus$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	}
	for _, digest := range cases {
		require.Error(t, VerifySecret("anything", digest), "digest %q must not verify", digest)
	}
}
