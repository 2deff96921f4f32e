package repository

import (
	"context"
	"errors"

	"split-service/internal/models"

	"gorm.io/gorm"
)

// AliasRepository is the alias store: flat directed edges alias -> canonical,
// queryable in both directions. The graph is never held as in-memory
// pointers; every lookup goes to the table so resolution survives restarts
// and always sees committed state.
type AliasRepository struct {
	db *gorm.DB
}

func NewAliasRepository(db *gorm.DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// WithTx returns a copy bound to the given transaction handle.
func (r *AliasRepository) WithTx(tx *gorm.DB) *AliasRepository {
	return &AliasRepository{db: tx}
}

// FindByAlias returns the single outgoing edge for aliasID, or nil when the
// identity is not aliased.
func (r *AliasRepository) FindByAlias(ctx context.Context, aliasID string) (*models.AliasEdge, error) {
	var edge models.AliasEdge
	err := r.db.WithContext(ctx).Where("alias_id = ?", aliasID).First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// FindByCanonical is the reverse index: every edge pointing at canonicalID.
func (r *AliasRepository) FindByCanonical(ctx context.Context, canonicalID string) ([]models.AliasEdge, error) {
	var edges []models.AliasEdge
	err := r.db.WithContext(ctx).Where("canonical_id = ?", canonicalID).Find(&edges).Error
	return edges, err
}

func (r *AliasRepository) All(ctx context.Context) ([]models.AliasEdge, error) {
	var edges []models.AliasEdge
	err := r.db.WithContext(ctx).Find(&edges).Error
	return edges, err
}

func (r *AliasRepository) Create(ctx context.Context, edge *models.AliasEdge) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

// DeleteTouching removes every edge where memberID appears on either side.
// Used by cleanup so a removed placeholder can be neither a merge source
// nor a merge target afterward.
func (r *AliasRepository) DeleteTouching(ctx context.Context, memberID string) error {
	return r.db.WithContext(ctx).
		Where("alias_id = ? OR canonical_id = ?", memberID, memberID).
		Delete(&models.AliasEdge{}).Error
}

// ResolveCanonical follows outgoing edges until it reaches an identity with
// no edge. An identity with no edge is its own canonical. If a node repeats
// (a cycle that should never exist but must not hang us), the input id is
// returned unchanged.
func (r *AliasRepository) ResolveCanonical(ctx context.Context, id string) (string, error) {
	visited := map[string]bool{id: true}
	current := id
	for {
		edge, err := r.FindByAlias(ctx, current)
		if err != nil {
			return "", err
		}
		if edge == nil {
			return current, nil
		}
		if visited[edge.CanonicalID] {
			return id, nil
		}
		visited[edge.CanonicalID] = true
		current = edge.CanonicalID
	}
}

// EquivalenceSet returns the canonical of id plus every identity that
// resolves to that canonical, always including id itself. Chains are
// resolved lazily here; merge never rewrites intermediate edges, so
// provenance on each edge stays intact.
func (r *AliasRepository) EquivalenceSet(ctx context.Context, id string) ([]string, error) {
	canonical, err := r.ResolveCanonical(ctx, id)
	if err != nil {
		return nil, err
	}

	edges, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	next := make(map[string]string, len(edges))
	for _, e := range edges {
		next[e.AliasID] = e.CanonicalID
	}

	set := map[string]struct{}{canonical: {}, id: {}}
	for alias := range next {
		if resolveIn(next, alias) == canonical {
			set[alias] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out, nil
}

// resolveIn walks the in-memory edge map with the same cycle defense as
// ResolveCanonical.
func resolveIn(next map[string]string, id string) string {
	visited := map[string]bool{id: true}
	current := id
	for {
		target, ok := next[current]
		if !ok {
			return current
		}
		if visited[target] {
			return id
		}
		visited[target] = true
		current = target
	}
}
