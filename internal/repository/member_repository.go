package repository

import (
	"context"
	"errors"

	"split-service/internal/models"

	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) WithTx(tx *gorm.DB) *MemberRepository {
	return &MemberRepository{db: tx}
}

func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *MemberRepository) FindByID(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByOwnerAndUser locates the owner's address-book entry for a linked
// account, if one exists.
func (r *MemberRepository) FindByOwnerAndUser(ctx context.Context, ownerID, userID uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND user_id = ?", ownerID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&members).Error
	return members, err
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Member{}).Error
}

// UnlinkUser clears the verified link on every member row pointing at
// userID, leaving the rows behind as unlinked placeholders.
func (r *MemberRepository) UnlinkUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("user_id = ?", userID).
		Update("user_id", nil).Error
}

func (r *MemberRepository) DeleteByOwner(ctx context.Context, ownerID uint) error {
	return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Member{}).Error
}
