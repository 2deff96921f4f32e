package service

import (
	"context"

	"split-service/internal/repository"
)

// ResolveService is the read-only resolution engine over the alias store.
// Both operations are pure queries: safe for any number of concurrent
// callers, never mutating, terminating on any input including malformed
// edge data.
type ResolveService struct {
	aliases *repository.AliasRepository
}

func NewResolveService(aliases *repository.AliasRepository) *ResolveService {
	return &ResolveService{aliases: aliases}
}

// Canonical returns the terminal identity a chain of merges resolves to.
// An identity with no outgoing edge is its own canonical.
func (s *ResolveService) Canonical(ctx context.Context, id string) (string, error) {
	return s.aliases.ResolveCanonical(ctx, id)
}

// EquivalenceSet returns the canonical of id plus every identity resolving
// to it, always including id itself.
func (s *ResolveService) EquivalenceSet(ctx context.Context, id string) ([]string, error) {
	return s.aliases.EquivalenceSet(ctx, id)
}

// InMembership reports whether id, or any identity equivalent to it,
// appears in the given membership list. Historical lists keep the identity
// they were written with; a later merge must not require rewriting them
// for lookups to keep working.
func (s *ResolveService) InMembership(ctx context.Context, memberIDs []string, id string) (bool, error) {
	set, err := s.EquivalenceSet(ctx, id)
	if err != nil {
		return false, err
	}
	equivalent := make(map[string]struct{}, len(set))
	for _, m := range set {
		equivalent[m] = struct{}{}
	}
	for _, m := range memberIDs {
		if _, ok := equivalent[m]; ok {
			return true, nil
		}
	}
	return false, nil
}
