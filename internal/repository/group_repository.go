package repository

import (
	"context"
	"errors"

	"split-service/internal/models"

	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) WithTx(tx *gorm.DB) *GroupRepository {
	return &GroupRepository{db: tx}
}

func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// AddMember is idempotent: inserting the same (group, member) pair twice
// leaves a single row.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, memberID string) error {
	gm := models.GroupMember{GroupID: groupID, MemberID: memberID}
	return r.db.WithContext(ctx).
		Where("group_id = ? AND member_id = ?", groupID, memberID).
		FirstOrCreate(&gm).Error
}

func (r *GroupRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("member_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&groups).Error
	return groups, err
}

// FindDirectGroup returns the owner's two-party group whose membership
// includes memberID, or nil when none exists.
func (r *GroupRepository) FindDirectGroup(ctx context.Context, ownerID uint, memberID string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("groups.owner_id = ? AND groups.direct = ? AND group_members.member_id = ?",
			ownerID, true, memberID).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// RemoveMember drops the membership row for memberID in groupID.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, memberID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND member_id = ?", groupID, memberID).
		Delete(&models.GroupMember{}).Error
}

// Delete removes a group and its membership rows.
func (r *GroupRepository) Delete(ctx context.Context, groupID string) error {
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", groupID).Delete(&models.Group{}).Error
}

func (r *GroupRepository) DeleteByOwner(ctx context.Context, ownerID uint) error {
	groups, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if err := r.Delete(ctx, g.ID); err != nil {
			return err
		}
	}
	return nil
}
