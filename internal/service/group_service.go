package service

import (
	"context"
	"errors"
	"fmt"

	"split-service/internal/models"
	"split-service/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Custom errors
var (
	ErrNotGroupOwner    = errors.New("group does not belong to the acting account")
	ErrDirectGroupSize  = errors.New("a direct group holds exactly two members")
	ErrMemberWrongOwner = errors.New("member does not belong to the acting account's address book")
)

// GroupService creates groups and grows their membership. Every membership
// change runs the relationship side effect in the same transaction, so a
// committed group always has its group_peer rows in place.
type GroupService struct {
	db            *gorm.DB
	groups        *repository.GroupRepository
	members       *repository.MemberRepository
	relationships *RelationshipService
}

func NewGroupService(db *gorm.DB, groups *repository.GroupRepository, members *repository.MemberRepository, relationships *RelationshipService) *GroupService {
	return &GroupService{db: db, groups: groups, members: members, relationships: relationships}
}

func (s *GroupService) CreateGroup(ctx context.Context, ownerID uint, req *models.CreateGroupRequest) (*models.Group, error) {
	if req.Direct && len(req.MemberIDs) != 2 {
		return nil, ErrDirectGroupSize
	}

	group := &models.Group{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    req.Name,
		Direct:  req.Direct,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)

		if err := s.checkMembers(ctx, tx, ownerID, req.MemberIDs); err != nil {
			return err
		}
		if err := groups.Create(ctx, group); err != nil {
			return err
		}
		for _, memberID := range req.MemberIDs {
			if err := groups.AddMember(ctx, group.ID, memberID); err != nil {
				return err
			}
		}
		return s.relationships.onMembersAddedTx(ctx, tx, group.ID)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// AddMembers joins members into an existing group and upserts the
// group_peer rows for every pair. Idempotent for already-present members.
func (s *GroupService) AddMembers(ctx context.Context, ownerID uint, groupID string, memberIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)

		group, err := groups.FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return ErrGroupNotFound
		}
		if group.OwnerID != ownerID {
			return ErrNotGroupOwner
		}
		if group.Direct {
			return ErrDirectGroupSize
		}

		if err := s.checkMembers(ctx, tx, ownerID, memberIDs); err != nil {
			return err
		}
		for _, memberID := range memberIDs {
			if err := groups.AddMember(ctx, groupID, memberID); err != nil {
				return err
			}
		}
		return s.relationships.onMembersAddedTx(ctx, tx, groupID)
	})
}

func (s *GroupService) GetGroup(ctx context.Context, ownerID uint, groupID string) (*models.GroupResponse, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.OwnerID != ownerID {
		return nil, ErrNotGroupOwner
	}
	ids, err := s.groups.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &models.GroupResponse{
		ID:        group.ID,
		Name:      group.Name,
		Direct:    group.Direct,
		MemberIDs: ids,
	}, nil
}

func (s *GroupService) checkMembers(ctx context.Context, tx *gorm.DB, ownerID uint, memberIDs []string) error {
	members := s.members.WithTx(tx)
	for _, id := range memberIDs {
		member, err := members.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
		}
		if member.OwnerID != ownerID {
			return fmt.Errorf("%w: %s", ErrMemberWrongOwner, id)
		}
	}
	return nil
}
