package app

import (
	"fmt"
	"log/slog"

	"github.com/opencivic/streetfix/pkg/idx"
	"github.com/opencivic/streetfix/pkg/jwtx"
)

// AuthKeys bundles the signing key, its public key set, and a matching
// verifier so the app can wire all three in one go.
type AuthKeys struct {
	Signer   jwtx.Signer
	KeySet   *jwtx.KeySet
	Verifier jwtx.Verifier
}

// InitAuthKeys generates an ephemeral Ed25519 signing key on startup. The
// key lives only in memory, so every outstanding access token dies with the
// process; refresh tokens survive in the database and clients transparently
// obtain fresh access tokens on their next refresh.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*AuthKeys, error) {
	kid := idx.New().String()

	signer, err := jwtx.GenerateSignerEdDSA(kid)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("failed to register signing key: %w", err)
	}

	verifier := jwtx.NewVerifier(keys, cfg.Issuer, []string{cfg.Audience})

	logger.Info("ephemeral signing key generated",
		"algorithm", signer.Alg(),
		"kid", kid,
		"issuer", cfg.Issuer,
	)

	return &AuthKeys{
		Signer:   signer,
		KeySet:   keys,
		Verifier: verifier,
	}, nil
}
