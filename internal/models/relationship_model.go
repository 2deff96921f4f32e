package models

import (
	"time"

	"gorm.io/gorm"
)

// RelationshipStatus is the closed set of relationship tiers. Legacy rows
// written before the tiered model carry an empty status; those read as
// friend at the boundary (EffectiveStatus) and the empty value is never
// written back for new rows.
type RelationshipStatus string

const (
	StatusFriend      RelationshipStatus = "friend"
	StatusGroupPeer   RelationshipStatus = "group_peer"
	StatusRequestSent RelationshipStatus = "request_sent"
)

// FriendRequestStatus is the lifecycle of a handshake.
type FriendRequestStatus string

const (
	RequestPending  FriendRequestStatus = "pending"
	RequestAccepted FriendRequestStatus = "accepted"
	RequestRejected FriendRequestStatus = "rejected"
	// RequestLapsed marks a pending request that sat past its expiry and was
	// retired when the sender tried again. Distinct from rejected so a lapse
	// never counts against the re-request policy.
	RequestLapsed FriendRequestStatus = "lapsed"
)

/** --------------------ENTITIES-------------------- */

// Relationship is one account's view of one other party. Rows are keyed
// by the observing account and the member entry in its address book, so
// the same real person can appear in many accounts' relationship tables.
type Relationship struct {
	gorm.Model
	OwnerID          uint               `gorm:"not null;uniqueIndex:idx_rel_owner_member" json:"ownerId"`
	MemberID         string             `gorm:"not null;uniqueIndex:idx_rel_owner_member;type:varchar(36)" json:"memberId"`
	Status           RelationshipStatus `gorm:"type:varchar(32)" json:"status"`
	HasLinkedAccount bool               `json:"hasLinkedAccount"`
	LinkedUserID     *uint              `gorm:"index" json:"linkedUserId,omitempty"`
	Nickname         string             `json:"nickname"`
	OriginalName     string             `json:"originalName"`

	Member Member `gorm:"foreignKey:MemberID;references:ID" json:"member"`
}

// EffectiveStatus interprets a legacy empty status as friend. This is the
// only place the migration default lives; callers never branch on "".
func (r *Relationship) EffectiveStatus() RelationshipStatus {
	if r.Status == "" {
		return StatusFriend
	}
	return r.Status
}

// FriendRequest is a pending handshake from a sender account toward a
// verified recipient, addressed by email. PriorStatus snapshots the
// sender's relationship tier before the send so a rejection can restore
// it exactly.
type FriendRequest struct {
	ID             string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SenderID       uint                `gorm:"not null;index" json:"senderId"`
	RecipientEmail string              `gorm:"not null;index" json:"recipientEmail"`
	Status         FriendRequestStatus `gorm:"not null;type:varchar(32)" json:"status"`
	PriorStatus    RelationshipStatus  `gorm:"type:varchar(32)" json:"-"`
	CreatedAt      time.Time           `json:"createdAt"`
	ExpiresAt      time.Time           `json:"expiresAt"`
}

// Expired reports whether the request can no longer be accepted.
func (fr *FriendRequest) Expired(now time.Time) bool {
	return !fr.ExpiresAt.IsZero() && now.After(fr.ExpiresAt)
}

/** -------------------- DTOs -------------------- */

type SendFriendRequestRequest struct {
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
}

type RelationshipResponse struct {
	MemberID         string             `json:"memberId"`
	Name             string             `json:"name"`
	Nickname         string             `json:"nickname,omitempty"`
	Status           RelationshipStatus `json:"status"`
	HasLinkedAccount bool               `json:"hasLinkedAccount"`
}

type FriendRequestResponse struct {
	ID          string              `json:"id"`
	SenderID    uint                `json:"senderId"`
	SenderName  string              `json:"senderName,omitempty"`
	SenderEmail string              `json:"senderEmail,omitempty"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	ExpiresAt   time.Time           `json:"expiresAt"`
}
