// Package credential checks presented API keys against the accepted set.
//
// Keys are never compared as raw strings. Each accepted key is reduced to a
// keyed BLAKE2b-256 digest at startup, and a presented key is digested the
// same way and compared against every accepted digest in constant time. The
// comparison cost therefore depends on neither the presented key's length
// nor the position of a matching key in the set.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"edgeguard/internal/protection/models"
)

// Set is an immutable accepted-credential set.
type Set struct {
	macKey  []byte
	digests [][]byte
}

// NewSet digests keys. An empty set, or any blank key, is a configuration
// error.
func NewSet(keys []string) (*Set, error) {
	if len(keys) == 0 {
		return nil, models.ConfigurationError("at least one API key is required")
	}

	macKey := make([]byte, blake2b.Size256)
	if _, err := rand.Read(macKey); err != nil {
		return nil, fmt.Errorf("generate credential digest key: %w", err)
	}

	s := &Set{macKey: macKey, digests: make([][]byte, 0, len(keys))}
	for i, key := range keys {
		if strings.TrimSpace(key) == "" {
			return nil, models.ConfigurationError(fmt.Sprintf("API key %d is blank", i))
		}
		s.digests = append(s.digests, s.digest(key))
	}
	return s, nil
}

// Validate classifies a presented credential. An empty value counts as
// absent.
func (s *Set) Validate(presented string) error {
	if presented == "" {
		return models.ErrMissingCredential
	}
	if !s.Matches(presented) {
		return models.ErrInvalidCredential
	}
	return nil
}

// Matches reports whether presented equals any accepted key. Every accepted
// digest is compared; there is no early exit.
func (s *Set) Matches(presented string) bool {
	d := s.digest(presented)
	match := 0
	for _, accepted := range s.digests {
		match |= subtle.ConstantTimeCompare(d, accepted)
	}
	return match == 1
}

// Len returns the number of accepted keys.
func (s *Set) Len() int {
	return len(s.digests)
}

func (s *Set) digest(key string) []byte {
	h, err := blake2b.New256(s.macKey)
	if err != nil {
		// Only reachable with a MAC key longer than 64 bytes.
		panic(err)
	}
	h.Write([]byte(key))
	return h.Sum(nil)
}
