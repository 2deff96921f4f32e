package service

import (
	"context"
	"errors"
	"fmt"

	"split-service/internal/models"
	"split-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Custom errors
var (
	ErrNotFriends         = errors.New("direct expenses require mutual friend status")
	ErrDirectParticipants = errors.New("a direct expense names exactly two participants")
	ErrInvalidAmount      = errors.New("expense amount must be positive")
	ErrExpenseParticipant = errors.New("participant is not a member of the group")
)

// ExpenseService records expenses and enforces the direct-expense gate:
// a one-to-one expense may only be created between mutual friends, while
// group expenses are open to any co-member. Participants are resolved
// through the alias graph first, so a merged duplicate identity is judged
// by its canonical's relationship.
type ExpenseService struct {
	db            *gorm.DB
	expenses      *repository.ExpenseRepository
	groups        *repository.GroupRepository
	members       *repository.MemberRepository
	aliases       *repository.AliasRepository
	relationships *repository.RelationshipRepository
}

func NewExpenseService(
	db *gorm.DB,
	expenses *repository.ExpenseRepository,
	groups *repository.GroupRepository,
	members *repository.MemberRepository,
	aliases *repository.AliasRepository,
	relationships *repository.RelationshipRepository,
) *ExpenseService {
	return &ExpenseService{
		db:            db,
		expenses:      expenses,
		groups:        groups,
		members:       members,
		aliases:       aliases,
		relationships: relationships,
	}
}

// AuthorizeDirectExpense is the gate consulted before a direct expense is
// written. For a non-direct group it passes unconditionally. For a direct
// group, every participant other than the acting account must resolve to
// an identity the acting account holds friend status with.
func (s *ExpenseService) AuthorizeDirectExpense(ctx context.Context, actingAccount uint, groupID string, participantIDs []string) error {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if !group.Direct {
		return nil
	}
	return s.authorizeDirect(ctx, s.db, actingAccount, participantIDs)
}

func (s *ExpenseService) authorizeDirect(ctx context.Context, tx *gorm.DB, actingAccount uint, participantIDs []string) error {
	aliases := s.aliases.WithTx(tx)
	members := s.members.WithTx(tx)

	for _, participant := range participantIDs {
		canonical, err := aliases.ResolveCanonical(ctx, participant)
		if err != nil {
			return err
		}

		member, err := members.FindByID(ctx, canonical)
		if err != nil {
			return err
		}
		if member != nil && member.UserID != nil && *member.UserID == actingAccount {
			// The acting account's own identity needs no friendship with itself.
			continue
		}

		rel, err := s.relationshipFor(ctx, tx, actingAccount, canonical)
		if err != nil {
			return err
		}
		if rel == nil || rel.EffectiveStatus() != models.StatusFriend {
			return fmt.Errorf("%w: participant %s", ErrNotFriends, participant)
		}
	}
	return nil
}

// relationshipFor looks up the acting account's relationship row for an
// identity, falling back to the identity's equivalence set when the row
// was written against a pre-merge duplicate.
func (s *ExpenseService) relationshipFor(ctx context.Context, tx *gorm.DB, ownerID uint, canonical string) (*models.Relationship, error) {
	aliases := s.aliases.WithTx(tx)
	relationships := s.relationships.WithTx(tx)

	rel, err := relationships.Find(ctx, ownerID, canonical)
	if err != nil {
		return nil, err
	}
	if rel != nil {
		return rel, nil
	}

	set, err := aliases.EquivalenceSet(ctx, canonical)
	if err != nil {
		return nil, err
	}
	for _, id := range set {
		if id == canonical {
			continue
		}
		rel, err = relationships.Find(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		if rel != nil {
			return rel, nil
		}
	}
	return nil, nil
}

// CreateExpense validates the expense against the gate and writes it with
// an equal split, all in one transaction.
func (s *ExpenseService) CreateExpense(ctx context.Context, actingAccount uint, req *models.CreateExpenseRequest) (*models.Expense, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var expense *models.Expense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		expenses := s.expenses.WithTx(tx)
		resolver := NewResolveService(s.aliases.WithTx(tx))

		group, err := groups.FindByID(ctx, req.GroupID)
		if err != nil {
			return err
		}
		if group == nil {
			return ErrGroupNotFound
		}
		if group.OwnerID != actingAccount {
			return ErrNotGroupOwner
		}

		memberIDs, err := groups.MemberIDs(ctx, req.GroupID)
		if err != nil {
			return err
		}
		for _, participant := range append([]string{req.PaidByID}, req.ParticipantIDs...) {
			ok, err := resolver.InMembership(ctx, memberIDs, participant)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrExpenseParticipant, participant)
			}
		}

		if group.Direct {
			if len(req.ParticipantIDs) != 2 {
				return ErrDirectParticipants
			}
			if err := s.authorizeDirect(ctx, tx, actingAccount, req.ParticipantIDs); err != nil {
				return err
			}
		}

		expense = &models.Expense{
			ID:          uuid.NewString(),
			GroupID:     req.GroupID,
			Description: req.Description,
			Amount:      req.Amount,
			PaidByID:    req.PaidByID,
			Splits:      equalSplit("", req.Amount, req.ParticipantIDs),
		}
		for i := range expense.Splits {
			expense.Splits[i].ExpenseID = expense.ID
		}
		return expenses.Create(ctx, expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) ListGroupExpenses(ctx context.Context, actingAccount uint, groupID string) ([]models.Expense, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.OwnerID != actingAccount {
		return nil, ErrNotGroupOwner
	}
	return s.expenses.ListByGroup(ctx, groupID)
}

// equalSplit divides amount evenly across participants, pushing the
// rounding remainder onto the last share so the splits always sum to the
// amount. The full split calculator lives outside this service.
func equalSplit(expenseID string, amount decimal.Decimal, participantIDs []string) []models.ExpenseSplit {
	n := int64(len(participantIDs))
	if n == 0 {
		return nil
	}
	share := amount.DivRound(decimal.NewFromInt(n), 2)
	splits := make([]models.ExpenseSplit, 0, n)
	running := decimal.Zero
	for i, id := range participantIDs {
		s := share
		if int64(i) == n-1 {
			s = amount.Sub(running)
		}
		running = running.Add(s)
		splits = append(splits, models.ExpenseSplit{
			ExpenseID: expenseID,
			MemberID:  id,
			Amount:    s,
		})
	}
	return splits
}
