package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	dErrors "edgeguard/pkg/domain-errors"
)

// DefaultSize is the number of random bytes behind a generated API key.
const DefaultSize = 32

// Generate creates a cryptographically secure random secret of size bytes,
// base64url-encoded without padding. Sizes below DefaultSize are raised to it.
func Generate(size int) (string, error) {
	if size < DefaultSize {
		size = DefaultSize
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint returns a short, non-reversible identifier for a secret, safe
// to print in logs and operator output.
func Fingerprint(secret string) string {
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:6])
}
