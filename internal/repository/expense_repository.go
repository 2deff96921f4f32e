package repository

import (
	"context"
	"errors"

	"split-service/internal/models"

	"gorm.io/gorm"
)

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) WithTx(tx *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: tx}
}

// Create writes the expense and its splits.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *ExpenseRepository) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).Preload("Splits").Where("id = ?", id).First(&expense).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *ExpenseRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.WithContext(ctx).Preload("Splits").Where("group_id = ?", groupID).Find(&expenses).Error
	return expenses, err
}

// ListTouchingMember returns every expense in the given groups that names
// memberID as payer or split participant.
func (r *ExpenseRepository) ListTouchingMember(ctx context.Context, groupIDs []string, memberID string) ([]models.Expense, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Distinct("expenses.id").
		Joins("LEFT JOIN expense_splits ON expense_splits.expense_id = expenses.id").
		Where("expenses.group_id IN ?", groupIDs).
		Where("expenses.paid_by_id = ? OR expense_splits.member_id = ?", memberID, memberID).
		Pluck("expenses.id", &ids).Error
	if err != nil {
		return nil, err
	}
	var expenses []models.Expense
	if len(ids) == 0 {
		return expenses, nil
	}
	err = r.db.WithContext(ctx).Preload("Splits").Where("id IN ?", ids).Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).
		Where("expense_id = ?", id).
		Delete(&models.ExpenseSplit{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Expense{}).Error
}

func (r *ExpenseRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	expenses, err := r.ListByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	for _, e := range expenses {
		if err := r.Delete(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceSplits swaps an expense's split rows for a new set.
func (r *ExpenseRepository) ReplaceSplits(ctx context.Context, expenseID string, splits []models.ExpenseSplit) error {
	if err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Delete(&models.ExpenseSplit{}).Error; err != nil {
		return err
	}
	if len(splits) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&splits).Error
}
