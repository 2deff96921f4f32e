package repository

import (
	"context"
	"errors"

	"split-service/internal/models"

	"gorm.io/gorm"
)

type RelationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

func (r *RelationshipRepository) WithTx(tx *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: tx}
}

func (r *RelationshipRepository) Find(ctx context.Context, ownerID uint, memberID string) (*models.Relationship, error) {
	var rel models.Relationship
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *RelationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

func (r *RelationshipRepository) Save(ctx context.Context, rel *models.Relationship) error {
	return r.db.WithContext(ctx).Save(rel).Error
}

// CreatePeerIfAbsent inserts a group_peer row for (ownerID, memberID) only
// when no relationship exists yet. An existing row keeps its status
// untouched, whatever tier it is at; group co-membership never upgrades or
// downgrades anything.
func (r *RelationshipRepository) CreatePeerIfAbsent(ctx context.Context, ownerID uint, member *models.Member) error {
	rel := models.Relationship{
		OwnerID:          ownerID,
		MemberID:         member.ID,
		Status:           models.StatusGroupPeer,
		HasLinkedAccount: member.Linked(),
		LinkedUserID:     member.UserID,
		OriginalName:     member.Name,
	}
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND member_id = ?", ownerID, member.ID).
		FirstOrCreate(&rel).Error
}

func (r *RelationshipRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Relationship, error) {
	var rels []models.Relationship
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("owner_id = ?", ownerID).
		Find(&rels).Error
	return rels, err
}

func (r *RelationshipRepository) Delete(ctx context.Context, ownerID uint, memberID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		Delete(&models.Relationship{}).Error
}

func (r *RelationshipRepository) DeleteByOwner(ctx context.Context, ownerID uint) error {
	return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Relationship{}).Error
}

// UnlinkUser clears the link metadata on every relationship row, across
// all observing accounts, that points at the given verified account. The
// rows themselves persist as unlinked placeholders.
func (r *RelationshipRepository) UnlinkUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("linked_user_id = ?", userID).
		Updates(map[string]interface{}{
			"has_linked_account": false,
			"linked_user_id":     nil,
		}).Error
}

// BackfillLegacyStatus assigns friend to every row written before the
// tiered model existed. One-time administrative operation.
func (r *RelationshipRepository) BackfillLegacyStatus(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("status = ? OR status IS NULL", "").
		Update("status", models.StatusFriend)
	return res.RowsAffected, res.Error
}
