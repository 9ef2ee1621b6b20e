package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
	// TokenSize512 provides 512 bits of entropy (86 chars base64url).
	// Used for bearer secrets like refresh tokens.
	TokenSize512 = 64
)

// GenerateToken creates a cryptographically secure random token of the given
// byte length, base64url-encoded without padding. The random source is
// crypto/rand only; a general-purpose PRNG is never acceptable here.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateNumericCode returns n uniformly random decimal digits, suitable for
// short codes delivered out of band (password reset emails). Each digit is
// drawn independently from crypto/rand so leading zeros are possible.
func GenerateNumericCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("cryptox: code length must be positive, got %d", n)
	}

	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to generate random digit: %w", err)
		}
		digits[i] = '0' + byte(v.Int64())
	}
	return string(digits), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded. Bearer secrets are stored as fingerprints so the database
// can look them up by equality without ever holding the secret itself.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
