package allowlist

import (
	"context"
	"slices"

	"edgeguard/internal/protection/models"
)

// InMemoryAllowlistStore is the fixed set of clients exempt from every
// check. It is built once from configuration and never mutated, so reads
// need no lock.
type InMemoryAllowlistStore struct {
	entries map[models.ClientKey]struct{}
}

// New builds the allowlist. Address entries are canonicalised so that
// "::ffff:127.0.0.1" and "127.0.0.1" name the same client; anything that
// does not parse as an address is kept verbatim.
func New(entries []string) *InMemoryAllowlistStore {
	s := &InMemoryAllowlistStore{entries: make(map[models.ClientKey]struct{}, len(entries))}
	for _, e := range entries {
		if key := models.NormalizeClientKey(e); key != "" {
			s.entries[key] = struct{}{}
		}
	}
	return s
}

func (s *InMemoryAllowlistStore) IsAllowlisted(_ context.Context, client models.ClientKey) bool {
	if client == "" {
		return false
	}
	_, ok := s.entries[models.NormalizeClientKey(string(client))]
	return ok
}

// List returns the allowlist in sorted order.
func (s *InMemoryAllowlistStore) List() []models.ClientKey {
	out := make([]models.ClientKey, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
