package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "streetfix-auth"
	testAudience = "streetfix-api"
)

func newTestSigner(t *testing.T, kid string) (*EdDSASigner, Verifier) {
	t.Helper()

	signer, err := GenerateSignerEdDSA(kid)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())

	keys := NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	return signer, NewVerifier(keys, testIssuer, []string{testAudience})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, verifier := newTestSigner(t, "key-1")

	now := time.Now().UTC()
	claims := NewAccessClaims("user-123", "a@b.com", "citizen", time.Hour, testIssuer, []string{testAudience}, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", got.Subject)
	require.Equal(t, "a@b.com", got.Email)
	require.Equal(t, "citizen", got.Role)
	require.NotEmpty(t, got.ID) // jti
}

func TestVerifyFailsClosed(t *testing.T) {
	t.Parallel()

	signer, verifier := newTestSigner(t, "key-1")
	now := time.Now().UTC()

	t.Run("expired token", func(t *testing.T) {
		claims := NewAccessClaims("u", "e@x.com", "citizen", time.Hour, testIssuer, []string{testAudience}, now.Add(-2*time.Hour))
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := NewAccessClaims("u", "e@x.com", "citizen", time.Hour, "someone-else", []string{testAudience}, now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := NewAccessClaims("u", "e@x.com", "citizen", time.Hour, testIssuer, []string{"other-api"}, now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrAudience)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other, err := GenerateSignerEdDSA("rogue-key")
		require.NoError(t, err)

		claims := NewAccessClaims("u", "e@x.com", "citizen", time.Hour, testIssuer, []string{testAudience}, now)
		token, err := other.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("tampered token", func(t *testing.T) {
		claims := NewAccessClaims("u", "e@x.com", "citizen", time.Hour, testIssuer, []string{testAudience}, now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token[:len(token)-2] + "xx")
		require.Error(t, err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.Error(t, err)
		_, err = verifier.Verify("")
		require.Error(t, err)
	})
}

func TestKeySet(t *testing.T) {
	t.Parallel()

	keys := NewKeySet()
	require.False(t, keys.IsReady())

	signer, err := GenerateSignerEdDSA("key-a")
	require.NoError(t, err)
	require.NoError(t, keys.AddSigner(signer))

	require.True(t, keys.IsReady())

	_, err = keys.Get("key-a")
	require.NoError(t, err)
	_, err = keys.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)

	jwks := keys.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.Equal(t, "key-a", jwks.Keys[0].Kid)
}
