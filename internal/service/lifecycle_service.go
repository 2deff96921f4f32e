package service

import (
	"context"
	"errors"
	"fmt"

	"split-service/internal/models"
	"split-service/internal/repository"

	"gorm.io/gorm"
)

// Custom errors
var (
	ErrMemberLinked         = errors.New("member has a linked account; use the linked removal path")
	ErrMemberNotLinked      = errors.New("member has no linked account; use the unlinked removal path")
	ErrRelationshipNotFound = errors.New("relationship not found")
)

// LifecycleService is the cleanup path: the only place member identities,
// alias edges and relationship rows are ever deleted. Which cascade runs
// is selected by the member's linked state, and invoking the wrong path
// for a record's current state is rejected rather than guessed around.
type LifecycleService struct {
	db            *gorm.DB
	members       *repository.MemberRepository
	aliases       *repository.AliasRepository
	relationships *repository.RelationshipRepository
	requests      *repository.FriendRequestRepository
	groups        *repository.GroupRepository
	expenses      *repository.ExpenseRepository
	users         *repository.UserRepository
	events        *EventService
}

func NewLifecycleService(
	db *gorm.DB,
	members *repository.MemberRepository,
	aliases *repository.AliasRepository,
	relationships *repository.RelationshipRepository,
	requests *repository.FriendRequestRepository,
	groups *repository.GroupRepository,
	expenses *repository.ExpenseRepository,
	users *repository.UserRepository,
	events *EventService,
) *LifecycleService {
	return &LifecycleService{
		db:            db,
		members:       members,
		aliases:       aliases,
		relationships: relationships,
		requests:      requests,
		groups:        groups,
		expenses:      expenses,
		users:         users,
		events:        events,
	}
}

// RemoveLinkedFriend removes a friend who has a verified account. Only the
// local view is touched: the relationship row goes away and the direct
// group between the two parties is deleted with its expenses. The other
// party's account exists independently and is left alone.
func (s *LifecycleService) RemoveLinkedFriend(ctx context.Context, ownerID uint, memberID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		members := s.members.WithTx(tx)
		relationships := s.relationships.WithTx(tx)
		groups := s.groups.WithTx(tx)
		expenses := s.expenses.WithTx(tx)

		member, err := members.FindByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
		}
		if !member.Linked() {
			return ErrMemberNotLinked
		}

		rel, err := relationships.Find(ctx, ownerID, memberID)
		if err != nil {
			return err
		}
		if rel == nil {
			return ErrRelationshipNotFound
		}
		if err := relationships.Delete(ctx, ownerID, memberID); err != nil {
			return err
		}

		// Removing a friend severs the direct-expense context.
		direct, err := groups.FindDirectGroup(ctx, ownerID, memberID)
		if err != nil {
			return err
		}
		if direct != nil {
			if err := expenses.DeleteByGroup(ctx, direct.ID); err != nil {
				return err
			}
			if err := groups.Delete(ctx, direct.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, EventMemberRemoved, memberID, map[string]interface{}{
		"memberId": memberID,
		"ownerId":  ownerID,
		"linked":   true,
	})
	return nil
}

// RemoveUnlinkedMember removes a placeholder that never linked to an
// account: full cascade. The identity leaves every group the owner holds,
// each expense either loses the participant's split or is deleted outright
// when one or zero participants would remain, and every alias edge
// touching the identity on either side is dropped so it can be neither a
// merge source nor a merge target afterward.
func (s *LifecycleService) RemoveUnlinkedMember(ctx context.Context, ownerID uint, memberID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		members := s.members.WithTx(tx)
		relationships := s.relationships.WithTx(tx)
		aliases := s.aliases.WithTx(tx)
		groups := s.groups.WithTx(tx)
		expenses := s.expenses.WithTx(tx)

		member, err := members.FindByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
		}
		if member.Linked() {
			return ErrMemberLinked
		}

		if err := relationships.Delete(ctx, ownerID, memberID); err != nil {
			return err
		}

		owned, err := groups.ListByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		groupIDs := make([]string, 0, len(owned))
		for _, g := range owned {
			groupIDs = append(groupIDs, g.ID)
		}

		touched, err := expenses.ListTouchingMember(ctx, groupIDs, memberID)
		if err != nil {
			return err
		}
		for _, expense := range touched {
			if err := s.stripParticipant(ctx, expenses, &expense, memberID); err != nil {
				return err
			}
		}

		for _, g := range owned {
			if err := groups.RemoveMember(ctx, g.ID, memberID); err != nil {
				return err
			}
		}

		if err := aliases.DeleteTouching(ctx, memberID); err != nil {
			return err
		}
		return members.Delete(ctx, memberID)
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, EventMemberRemoved, memberID, map[string]interface{}{
		"memberId": memberID,
		"ownerId":  ownerID,
		"linked":   false,
	})
	return nil
}

// stripParticipant removes one participant from an expense. The expense is
// deleted when the payer is removed or when at most one participant would
// remain; otherwise the remaining participants re-split the full amount.
func (s *LifecycleService) stripParticipant(ctx context.Context, expenses *repository.ExpenseRepository, expense *models.Expense, memberID string) error {
	if expense.PaidByID == memberID {
		return expenses.Delete(ctx, expense.ID)
	}

	remaining := make([]string, 0, len(expense.Splits))
	for _, split := range expense.Splits {
		if split.MemberID != memberID {
			remaining = append(remaining, split.MemberID)
		}
	}
	if len(remaining) <= 1 {
		return expenses.Delete(ctx, expense.ID)
	}

	splits := equalSplit(expense.ID, expense.Amount, remaining)
	return expenses.ReplaceSplits(ctx, expense.ID, splits)
}

// UnlinkAccount is the self-delete path for a verified account. Expenses
// survive: other parties' debt records must outlive the account. Every
// member and relationship row across the system that points at the account
// is cleared back to an unlinked placeholder, and the account row goes.
func (s *LifecycleService) UnlinkAccount(ctx context.Context, userID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		members := s.members.WithTx(tx)
		relationships := s.relationships.WithTx(tx)
		users := s.users.WithTx(tx)

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		if err := members.UnlinkUser(ctx, userID); err != nil {
			return err
		}
		if err := relationships.UnlinkUser(ctx, userID); err != nil {
			return err
		}
		return users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, EventAccountUnlinked, fmt.Sprintf("user-%d", userID), map[string]interface{}{
		"userId": userID,
	})
	return nil
}

// PurgeAccount is the operator-only hard delete: the account and
// everything it owns is removed, including groups, expenses, members,
// alias edges and friend requests on either side. Not reachable from the
// public API.
func (s *LifecycleService) PurgeAccount(ctx context.Context, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		members := s.members.WithTx(tx)
		relationships := s.relationships.WithTx(tx)
		requests := s.requests.WithTx(tx)
		aliases := s.aliases.WithTx(tx)
		groups := s.groups.WithTx(tx)
		expenses := s.expenses.WithTx(tx)
		users := s.users.WithTx(tx)

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		owned, err := groups.ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		for _, g := range owned {
			if err := expenses.DeleteByGroup(ctx, g.ID); err != nil {
				return err
			}
			if err := groups.Delete(ctx, g.ID); err != nil {
				return err
			}
		}

		book, err := members.ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		for _, m := range book {
			if err := aliases.DeleteTouching(ctx, m.ID); err != nil {
				return err
			}
		}
		if err := members.DeleteByOwner(ctx, userID); err != nil {
			return err
		}

		if err := relationships.DeleteByOwner(ctx, userID); err != nil {
			return err
		}
		if err := relationships.UnlinkUser(ctx, userID); err != nil {
			return err
		}
		if err := members.UnlinkUser(ctx, userID); err != nil {
			return err
		}
		if err := requests.DeleteBySender(ctx, userID); err != nil {
			return err
		}
		if err := requests.DeleteForRecipient(ctx, user.Email); err != nil {
			return err
		}
		return users.Delete(ctx, userID)
	})
}
