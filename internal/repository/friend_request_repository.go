package repository

import (
	"context"
	"errors"

	"split-service/internal/models"

	"gorm.io/gorm"
)

type FriendRequestRepository struct {
	db *gorm.DB
}

func NewFriendRequestRepository(db *gorm.DB) *FriendRequestRepository {
	return &FriendRequestRepository{db: db}
}

func (r *FriendRequestRepository) WithTx(tx *gorm.DB) *FriendRequestRepository {
	return &FriendRequestRepository{db: tx}
}

func (r *FriendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *FriendRequestRepository) FindByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindPending returns the in-flight request for the ordered pair
// (sender, recipient email), if any. Used to reject duplicate sends.
func (r *FriendRequestRepository) FindPending(ctx context.Context, senderID uint, recipientEmail string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND recipient_email = ? AND status = ?",
			senderID, recipientEmail, models.RequestPending).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindRejected reports whether a rejected request exists for the ordered
// pair. Consulted only when re-requesting after rejection is disabled.
func (r *FriendRequestRepository) FindRejected(ctx context.Context, senderID uint, recipientEmail string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND recipient_email = ? AND status = ?",
			senderID, recipientEmail, models.RequestRejected).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPendingForEmail returns the incoming pending requests addressed to a
// recipient's email, newest first.
func (r *FriendRequestRepository) ListPendingForEmail(ctx context.Context, email string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("recipient_email = ? AND status = ?", email, models.RequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *FriendRequestRepository) Save(ctx context.Context, req *models.FriendRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *FriendRequestRepository) DeleteBySender(ctx context.Context, senderID uint) error {
	return r.db.WithContext(ctx).Where("sender_id = ?", senderID).Delete(&models.FriendRequest{}).Error
}

func (r *FriendRequestRepository) DeleteForRecipient(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("recipient_email = ?", email).Delete(&models.FriendRequest{}).Error
}
