package service

import (
	"context"
	"fmt"

	"split-service/internal/models"
	"split-service/internal/repository"

	"github.com/google/uuid"
)

// MemberService creates placeholder identities and exposes the resolution
// surface for display. Placeholders are how a person is tracked before
// they ever join; linking and merging happen elsewhere.
type MemberService struct {
	members *repository.MemberRepository
	resolve *ResolveService
}

func NewMemberService(members *repository.MemberRepository, resolve *ResolveService) *MemberService {
	return &MemberService{members: members, resolve: resolve}
}

func (s *MemberService) CreatePlaceholder(ctx context.Context, ownerID uint, name string) (*models.Member, error) {
	member := &models.Member{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *MemberService) ListMembers(ctx context.Context, ownerID uint) ([]models.MemberResponse, error) {
	members, err := s.members.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, models.MemberResponse{
			ID:     m.ID,
			Name:   m.Name,
			Linked: m.Linked(),
			UserID: m.UserID,
		})
	}
	return out, nil
}

// Canonical resolves a member identity for display: its canonical and the
// full equivalence set.
func (s *MemberService) Canonical(ctx context.Context, ownerID uint, memberID string) (*models.CanonicalResponse, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}

	canonical, err := s.resolve.Canonical(ctx, memberID)
	if err != nil {
		return nil, err
	}
	set, err := s.resolve.EquivalenceSet(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &models.CanonicalResponse{
		ID:          memberID,
		CanonicalID: canonical,
		Equivalents: set,
	}, nil
}
