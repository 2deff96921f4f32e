package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// Member is a member identity: one participant as seen from the owning
// account's address book. It starts life as an unlinked placeholder and
// may later be linked to a verified User. The ID is immutable; a member
// is never edited into someone else, only superseded via an AliasEdge.
type Member struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID   uint           `gorm:"not null;index" json:"ownerId"`
	Name      string         `gorm:"not null" json:"name"`
	UserID    *uint          `gorm:"index" json:"userId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Linked reports whether this member is backed by a verified account.
func (m *Member) Linked() bool {
	return m.UserID != nil
}

// AliasEdge declares one member identity to be a duplicate of another.
// At most one outgoing edge exists per alias, and edges are never
// updated in place; conflicting merges are rejected instead.
type AliasEdge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AliasID     string    `gorm:"uniqueIndex;not null;type:varchar(36)" json:"aliasId"`
	CanonicalID string    `gorm:"index;not null;type:varchar(36)" json:"canonicalId"`
	CreatedByID uint      `gorm:"not null" json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
}

/** -------------------- DTOs -------------------- */

type CreateMemberRequest struct {
	Name string `json:"name" binding:"required"`
}

type MergeMembersRequest struct {
	KeepID  string `json:"keepId" binding:"required"`
	MergeID string `json:"mergeId" binding:"required"`
}

type MemberResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Linked bool   `json:"linked"`
	UserID *uint  `json:"userId,omitempty"`
}

type CanonicalResponse struct {
	ID          string   `json:"id"`
	CanonicalID string   `json:"canonicalId"`
	Equivalents []string `json:"equivalents"`
}
