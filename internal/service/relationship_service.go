package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"split-service/internal/models"
	"split-service/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Custom errors
var (
	ErrRecipientNotVerified = errors.New("recipient does not have a verified account")
	ErrSelfRequest          = errors.New("cannot send a friend request to yourself")
	ErrRequestPending       = errors.New("a friend request is already pending for this pair")
	ErrReRequestForbidden   = errors.New("a rejected request exists and re-requesting is disabled")
	ErrAlreadyFriends       = errors.New("already friends")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrRequestNotPending    = errors.New("friend request is not pending")
	ErrRequestExpired       = errors.New("friend request has expired")
	ErrNotRecipient         = errors.New("only the request's recipient may act on it")
	ErrGroupNotFound        = errors.New("group not found")
	ErrUserNotFound         = errors.New("user not found")
)

// RelationshipService owns the friend/peer state machine and the
// group-membership side effect. Friendship is reached only through the
// send/accept handshake; sharing a group never silently creates it.
type RelationshipService struct {
	db            *gorm.DB
	relationships *repository.RelationshipRepository
	requests      *repository.FriendRequestRepository
	members       *repository.MemberRepository
	users         *repository.UserRepository
	groups        *repository.GroupRepository
	events        *EventService

	requestTTL     time.Duration
	allowReRequest bool
}

func NewRelationshipService(
	db *gorm.DB,
	relationships *repository.RelationshipRepository,
	requests *repository.FriendRequestRepository,
	members *repository.MemberRepository,
	users *repository.UserRepository,
	groups *repository.GroupRepository,
	events *EventService,
	requestTTL time.Duration,
	allowReRequest bool,
) *RelationshipService {
	return &RelationshipService{
		db:             db,
		relationships:  relationships,
		requests:       requests,
		members:        members,
		users:          users,
		groups:         groups,
		events:         events,
		requestTTL:     requestTTL,
		allowReRequest: allowReRequest,
	}
}

// SendRequest starts a handshake toward a verified account addressed by
// email. The sender's view of the recipient moves to request_sent; the
// recipient sees nothing until they act on the pending request.
func (s *RelationshipService) SendRequest(ctx context.Context, senderID uint, recipientEmail string) (*models.FriendRequest, error) {
	var request *models.FriendRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		requests := s.requests.WithTx(tx)
		members := s.members.WithTx(tx)
		relationships := s.relationships.WithTx(tx)

		recipient, err := users.FindByEmail(ctx, recipientEmail)
		if err != nil {
			return err
		}
		if recipient == nil {
			return ErrRecipientNotVerified
		}
		if recipient.ID == senderID {
			return ErrSelfRequest
		}

		pending, err := requests.FindPending(ctx, senderID, recipientEmail)
		if err != nil {
			return err
		}
		if pending != nil {
			if !pending.Expired(time.Now()) {
				return ErrRequestPending
			}
			// An expired request must not block the pair forever. Retire it
			// and revert the sender's view exactly as a reject would, then
			// let the new send proceed.
			pending.Status = models.RequestLapsed
			if err := requests.Save(ctx, pending); err != nil {
				return err
			}
			if err := s.revertSenderView(ctx, members, relationships, pending, recipient.ID); err != nil {
				return err
			}
		}

		if !s.allowReRequest {
			rejected, err := requests.FindRejected(ctx, senderID, recipientEmail)
			if err != nil {
				return err
			}
			if rejected != nil {
				return ErrReRequestForbidden
			}
		}

		member, err := s.ensureMemberFor(ctx, members, senderID, recipient)
		if err != nil {
			return err
		}

		rel, err := relationships.Find(ctx, senderID, member.ID)
		if err != nil {
			return err
		}
		if rel != nil && rel.EffectiveStatus() == models.StatusFriend {
			return ErrAlreadyFriends
		}

		var prior models.RelationshipStatus
		if rel == nil {
			rel = &models.Relationship{
				OwnerID:          senderID,
				MemberID:         member.ID,
				HasLinkedAccount: true,
				LinkedUserID:     &recipient.ID,
				OriginalName:     recipient.Username,
			}
		} else {
			prior = rel.Status
		}
		rel.Status = models.StatusRequestSent
		if err := relationships.Save(ctx, rel); err != nil {
			return err
		}

		request = &models.FriendRequest{
			ID:             uuid.NewString(),
			SenderID:       senderID,
			RecipientEmail: recipientEmail,
			Status:         models.RequestPending,
			PriorStatus:    prior,
			ExpiresAt:      time.Now().Add(s.requestTTL),
		}
		return requests.Create(ctx, request)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// AcceptRequest completes the handshake. Only the named recipient may
// accept, only while pending and unexpired. Both directed relationship
// rows move to friend in the same transaction as the request's own status
// flip; no observer can see an accepted request with one side still at
// group_peer.
func (s *RelationshipService) AcceptRequest(ctx context.Context, actorID uint, requestID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		requests := s.requests.WithTx(tx)
		members := s.members.WithTx(tx)

		request, actor, err := s.loadForRecipient(ctx, users, requests, actorID, requestID)
		if err != nil {
			return err
		}
		if request.Expired(time.Now()) {
			return ErrRequestExpired
		}

		sender, err := users.FindByID(ctx, request.SenderID)
		if err != nil {
			return err
		}
		if sender == nil {
			return fmt.Errorf("%w: sender %d", ErrUserNotFound, request.SenderID)
		}

		request.Status = models.RequestAccepted
		if err := requests.Save(ctx, request); err != nil {
			return err
		}

		// Sender's view of the recipient.
		if err := s.upsertFriend(ctx, tx, members, request.SenderID, actor); err != nil {
			return err
		}
		// Recipient's view of the sender.
		return s.upsertFriend(ctx, tx, members, actorID, sender)
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, EventFriendAccepted, requestID, map[string]interface{}{
		"requestId": requestID,
		"actorId":   actorID,
	})
	return nil
}

// RejectRequest declines a pending handshake. The request becomes
// rejected; the sender's view reverts to whatever it was before the send.
// Rejection applies only while pending, so an established friendship is
// never demoted by a late reject.
func (s *RelationshipService) RejectRequest(ctx context.Context, actorID uint, requestID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		requests := s.requests.WithTx(tx)
		members := s.members.WithTx(tx)
		relationships := s.relationships.WithTx(tx)

		request, _, err := s.loadForRecipient(ctx, users, requests, actorID, requestID)
		if err != nil {
			return err
		}

		request.Status = models.RequestRejected
		if err := requests.Save(ctx, request); err != nil {
			return err
		}
		return s.revertSenderView(ctx, members, relationships, request, actorID)
	})
}

// revertSenderView rolls the sender's request_sent row back to the tier
// snapshotted on the request, or drops the row when there was none. Shared
// by reject and by the lapse of an expired request. A view that already
// moved past request_sent is left alone.
func (s *RelationshipService) revertSenderView(
	ctx context.Context,
	members *repository.MemberRepository,
	relationships *repository.RelationshipRepository,
	request *models.FriendRequest,
	recipientUserID uint,
) error {
	member, err := members.FindByOwnerAndUser(ctx, request.SenderID, recipientUserID)
	if err != nil || member == nil {
		return err
	}
	rel, err := relationships.Find(ctx, request.SenderID, member.ID)
	if err != nil || rel == nil {
		return err
	}
	if rel.Status != models.StatusRequestSent {
		return nil
	}
	if request.PriorStatus == "" {
		return relationships.Delete(ctx, request.SenderID, member.ID)
	}
	rel.Status = request.PriorStatus
	return relationships.Save(ctx, rel)
}

// OnMembersAdded is the group-management hook: after members join a group,
// every observing account gains a group_peer row for every co-member it
// does not already know. Existing rows are left exactly as they are --
// co-presence in a group must never create or upgrade a friendship.
// Safe to invoke twice for the same members.
func (s *RelationshipService) OnMembersAdded(ctx context.Context, groupID string, memberIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.onMembersAddedTx(ctx, tx, groupID)
	})
}

func (s *RelationshipService) onMembersAddedTx(ctx context.Context, tx *gorm.DB, groupID string) error {
	groups := s.groups.WithTx(tx)
	members := s.members.WithTx(tx)
	relationships := s.relationships.WithTx(tx)

	group, err := groups.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}

	ids, err := groups.MemberIDs(ctx, groupID)
	if err != nil {
		return err
	}

	all := make([]*models.Member, 0, len(ids))
	for _, id := range ids {
		m, err := members.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
		}
		all = append(all, m)
	}

	// Observing accounts: the group owner plus every member linked to a
	// verified account. Unlinked placeholders exist only inside the
	// owner's address book, so only linked members observe from their own
	// account's perspective.
	for _, target := range all {
		if target.UserID != nil && *target.UserID == group.OwnerID {
			continue
		}
		if err := relationships.CreatePeerIfAbsent(ctx, group.OwnerID, target); err != nil {
			return err
		}
	}
	for _, observer := range all {
		if observer.UserID == nil || *observer.UserID == group.OwnerID {
			continue
		}
		observerAccount := *observer.UserID
		for _, target := range all {
			if target.ID == observer.ID {
				continue
			}
			if target.UserID != nil && *target.UserID == observerAccount {
				continue
			}
			own, err := s.memberInBook(ctx, members, observerAccount, target)
			if err != nil {
				return err
			}
			if own == nil {
				continue
			}
			if err := relationships.CreatePeerIfAbsent(ctx, observerAccount, own); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListRelationships returns the account's current view of everyone it
// knows, with the legacy empty status already normalized to friend.
func (s *RelationshipService) ListRelationships(ctx context.Context, ownerID uint) ([]models.RelationshipResponse, error) {
	rels, err := s.relationships.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]models.RelationshipResponse, 0, len(rels))
	for _, rel := range rels {
		out = append(out, models.RelationshipResponse{
			MemberID:         rel.MemberID,
			Name:             rel.Member.Name,
			Nickname:         rel.Nickname,
			Status:           rel.EffectiveStatus(),
			HasLinkedAccount: rel.HasLinkedAccount,
		})
	}
	return out, nil
}

// ListIncomingRequests returns pending requests addressed to the account.
func (s *RelationshipService) ListIncomingRequests(ctx context.Context, accountID uint) ([]models.FriendRequestResponse, error) {
	account, err := s.users.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}

	requests, err := s.requests.ListPendingForEmail(ctx, account.Email)
	if err != nil {
		return nil, err
	}
	out := make([]models.FriendRequestResponse, 0, len(requests))
	for _, req := range requests {
		resp := models.FriendRequestResponse{
			ID:        req.ID,
			SenderID:  req.SenderID,
			Status:    req.Status,
			CreatedAt: req.CreatedAt,
			ExpiresAt: req.ExpiresAt,
		}
		if sender, err := s.users.FindByID(ctx, req.SenderID); err == nil && sender != nil {
			resp.SenderName = sender.Username
			resp.SenderEmail = sender.Email
		}
		out = append(out, resp)
	}
	return out, nil
}

// GetRelationship returns one relationship row for the UI boundary.
func (s *RelationshipService) GetRelationship(ctx context.Context, ownerID uint, memberID string) (*models.Relationship, error) {
	return s.relationships.Find(ctx, ownerID, memberID)
}

// loadForRecipient fetches a request and authorizes the actor as its
// recipient, enforcing the pending-only rule shared by accept and reject.
func (s *RelationshipService) loadForRecipient(
	ctx context.Context,
	users *repository.UserRepository,
	requests *repository.FriendRequestRepository,
	actorID uint,
	requestID string,
) (*models.FriendRequest, *models.User, error) {
	request, err := requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request == nil {
		return nil, nil, ErrRequestNotFound
	}

	actor, err := users.FindByID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if actor == nil {
		return nil, nil, ErrUserNotFound
	}
	if actor.Email != request.RecipientEmail {
		return nil, nil, ErrNotRecipient
	}
	if request.Status != models.RequestPending {
		return nil, nil, ErrRequestNotPending
	}
	return request, actor, nil
}

// ensureMemberFor finds or creates the owner's address-book entry for a
// verified account.
func (s *RelationshipService) ensureMemberFor(ctx context.Context, members *repository.MemberRepository, ownerID uint, account *models.User) (*models.Member, error) {
	member, err := members.FindByOwnerAndUser(ctx, ownerID, account.ID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return member, nil
	}
	member = &models.Member{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    account.Username,
		UserID:  &account.ID,
	}
	if err := members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// memberInBook locates the observer's own entry for a member seen in a
// group. Linked members are matched through their account; unlinked
// placeholders belong to a single book and are not mirrored.
func (s *RelationshipService) memberInBook(ctx context.Context, members *repository.MemberRepository, ownerID uint, target *models.Member) (*models.Member, error) {
	if target.OwnerID == ownerID {
		return target, nil
	}
	if target.UserID == nil {
		return nil, nil
	}
	user := models.User{Model: gorm.Model{ID: *target.UserID}, Username: target.Name}
	return s.ensureMemberFor(ctx, members, ownerID, &user)
}

// upsertFriend moves owner's view of account to friend, creating the
// member entry and relationship row as needed.
func (s *RelationshipService) upsertFriend(ctx context.Context, tx *gorm.DB, members *repository.MemberRepository, ownerID uint, account *models.User) error {
	relationships := s.relationships.WithTx(tx)

	member, err := s.ensureMemberFor(ctx, members, ownerID, account)
	if err != nil {
		return err
	}

	rel, err := relationships.Find(ctx, ownerID, member.ID)
	if err != nil {
		return err
	}
	if rel == nil {
		rel = &models.Relationship{
			OwnerID:      ownerID,
			MemberID:     member.ID,
			OriginalName: account.Username,
		}
	}
	rel.Status = models.StatusFriend
	rel.HasLinkedAccount = true
	rel.LinkedUserID = &account.ID
	return relationships.Save(ctx, rel)
}
