package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// Group is a shared-expense context owned by one account. A Direct group
// is the strictly two-party context that hosts one-to-one expenses; only
// direct groups are subject to the friend gate.
type Group struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID   uint           `gorm:"not null;index" json:"ownerId"`
	Name      string         `gorm:"not null" json:"name"`
	Direct    bool           `gorm:"not null;default:false" json:"direct"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// GroupMember joins a member identity into a group. Membership rows keep
// the identity the group was created with; merges are resolved lazily at
// read time, never by rewriting these rows.
type GroupMember struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	GroupID  string `gorm:"not null;uniqueIndex:idx_group_member;type:varchar(36)" json:"groupId"`
	MemberID string `gorm:"not null;uniqueIndex:idx_group_member;type:varchar(36)" json:"memberId"`
}

/** -------------------- DTOs -------------------- */

type CreateGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	Direct    bool     `json:"direct"`
	MemberIDs []string `json:"memberIds"`
}

type AddGroupMembersRequest struct {
	MemberIDs []string `json:"memberIds" binding:"required,min=1"`
}

type GroupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Direct    bool     `json:"direct"`
	MemberIDs []string `json:"memberIds"`
}
