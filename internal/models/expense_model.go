package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// Expense is a shared cost recorded inside a group. Amounts use decimal
// columns; float arithmetic never touches money.
type Expense struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	GroupID     string          `gorm:"not null;index;type:varchar(36)" json:"groupId"`
	Description string          `gorm:"not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaidByID    string          `gorm:"not null;type:varchar(36)" json:"paidById"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	Splits []ExpenseSplit `gorm:"foreignKey:ExpenseID;references:ID" json:"splits"`
}

// ExpenseSplit is one participant's share of an expense.
type ExpenseSplit struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ExpenseID string          `gorm:"not null;uniqueIndex:idx_split_expense_member;type:varchar(36)" json:"expenseId"`
	MemberID  string          `gorm:"not null;uniqueIndex:idx_split_expense_member;type:varchar(36)" json:"memberId"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}

/** -------------------- DTOs -------------------- */

type CreateExpenseRequest struct {
	GroupID        string          `json:"groupId" binding:"required"`
	Description    string          `json:"description" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PaidByID       string          `json:"paidById" binding:"required"`
	ParticipantIDs []string        `json:"participantIds" binding:"required,min=1"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"groupId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidByID    string          `json:"paidById"`
	Splits      []ExpenseSplit  `json:"splits"`
}
