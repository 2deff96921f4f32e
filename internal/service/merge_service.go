package service

import (
	"context"
	"errors"
	"fmt"

	"split-service/internal/models"
	"split-service/internal/repository"

	"gorm.io/gorm"
)

// Custom errors
var (
	ErrMergeCycle     = errors.New("merge would create an alias cycle")
	ErrMergeConflict  = errors.New("identity is already aliased to a different canonical")
	ErrAlreadyLinked  = errors.New("cannot merge an identity with a linked account")
	ErrMemberNotFound = errors.New("member not found")
)

// MergeResult reports the outcome of a merge. AlreadyExisted marks the
// idempotent branch: the requested edge was equivalent to one already in
// the store, so the call succeeded without writing anything.
type MergeResult struct {
	AlreadyExisted bool              `json:"alreadyExisted"`
	Edge           *models.AliasEdge `json:"edge,omitempty"`
}

// MergeService validates and writes alias edges. Every merge runs in a
// single transaction and re-derives all of its checks from the current
// snapshot, so two racing merges on the same source resolve by commit
// order into the idempotent or the conflict branch.
type MergeService struct {
	db      *gorm.DB
	aliases *repository.AliasRepository
	members *repository.MemberRepository
	events  *EventService
}

func NewMergeService(db *gorm.DB, aliases *repository.AliasRepository, members *repository.MemberRepository, events *EventService) *MergeService {
	return &MergeService{db: db, aliases: aliases, members: members, events: events}
}

// Merge records that source is a duplicate of target. The target is first
// resolved to its true canonical, so merging into an identity that is
// itself an alias transparently re-targets onto the final canonical.
func (s *MergeService) Merge(ctx context.Context, source, target string, actingAccount uint) (*MergeResult, error) {
	var result MergeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		aliases := s.aliases.WithTx(tx)

		resolvedTarget, err := aliases.ResolveCanonical(ctx, target)
		if err != nil {
			return err
		}

		// Self-merge is a no-op, not an error.
		if source == resolvedTarget {
			result.AlreadyExisted = true
			return nil
		}

		reaches, err := s.reaches(ctx, aliases, resolvedTarget, source)
		if err != nil {
			return err
		}
		if reaches {
			return ErrMergeCycle
		}

		existing, err := aliases.FindByAlias(ctx, source)
		if err != nil {
			return err
		}
		if existing != nil {
			existingCanonical, err := aliases.ResolveCanonical(ctx, existing.CanonicalID)
			if err != nil {
				return err
			}
			if existingCanonical == resolvedTarget {
				result.AlreadyExisted = true
				result.Edge = existing
				return nil
			}
			return fmt.Errorf("%w: %s already resolves to %s", ErrMergeConflict, source, existingCanonical)
		}

		edge := &models.AliasEdge{
			AliasID:     source,
			CanonicalID: resolvedTarget,
			CreatedByID: actingAccount,
		}
		if err := aliases.Create(ctx, edge); err != nil {
			return err
		}
		result.Edge = edge
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Edge != nil && !result.AlreadyExisted {
		s.events.Publish(ctx, EventMemberMerged, result.Edge.CanonicalID, result.Edge)
	}
	return &result, nil
}

// MergeFriendPair merges two unlinked placeholders: keep becomes the
// canonical and merge the alias. Both members must sit in the acting
// account's own address book, and neither side may carry a verified linked
// account; aliasing a real person's identity under another real person
// would conflate two people.
func (s *MergeService) MergeFriendPair(ctx context.Context, keep, merge string, actingAccount uint) (*MergeResult, error) {
	var result *MergeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		members := s.members.WithTx(tx)

		for _, id := range []string{keep, merge} {
			member, err := members.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if member == nil {
				return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
			}
			if member.OwnerID != actingAccount {
				return fmt.Errorf("%w: %s", ErrMemberWrongOwner, id)
			}
			if member.Linked() {
				return fmt.Errorf("%w: %s", ErrAlreadyLinked, id)
			}
		}

		inner := NewMergeService(tx, s.aliases.WithTx(tx), members, nil)
		r, err := inner.Merge(ctx, merge, keep, actingAccount)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Edge != nil && !result.AlreadyExisted {
		s.events.Publish(ctx, EventMemberMerged, result.Edge.CanonicalID, result.Edge)
	}
	return result, nil
}

// reaches walks forward from start looking for goal, with the same visited
// guard as resolution so malformed data cannot hang the check.
func (s *MergeService) reaches(ctx context.Context, aliases *repository.AliasRepository, start, goal string) (bool, error) {
	visited := map[string]bool{start: true}
	current := start
	for {
		if current == goal {
			return true, nil
		}
		edge, err := aliases.FindByAlias(ctx, current)
		if err != nil {
			return false, err
		}
		if edge == nil || visited[edge.CanonicalID] {
			return false, nil
		}
		visited[edge.CanonicalID] = true
		current = edge.CanonicalID
	}
}
