package handler

import (
	"net/http"

	"split-service/internal/models"
	"split-service/internal/service"
	"split-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	relationshipService *service.RelationshipService
	lifecycleService    *service.LifecycleService
}

func NewFriendHandler(relationshipService *service.RelationshipService, lifecycleService *service.LifecycleService) *FriendHandler {
	return &FriendHandler{
		relationshipService: relationshipService,
		lifecycleService:    lifecycleService,
	}
}

// ListFriends godoc
// @Summary      List the account's relationships
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.RelationshipResponse
// @Router       /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	rels, err := h.relationshipService.ListRelationships(c.Request.Context(), actingAccount(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rels)
}

// SendRequest godoc
// @Summary      Send a friend request to a verified account
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.SendFriendRequestRequest true "recipient"
// @Success      201 {object} models.FriendRequestResponse
// @Router       /friends/requests [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req models.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	request, err := h.relationshipService.SendRequest(c.Request.Context(), actingAccount(c), req.RecipientEmail)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, models.FriendRequestResponse{
		ID:        request.ID,
		SenderID:  request.SenderID,
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
		ExpiresAt: request.ExpiresAt,
	})
}

// ListIncomingRequests godoc
// @Summary      List pending incoming friend requests
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.FriendRequestResponse
// @Router       /friends/requests [get]
func (h *FriendHandler) ListIncomingRequests(c *gin.Context) {
	requests, err := h.relationshipService.ListIncomingRequests(c.Request.Context(), actingAccount(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests)
}

// AcceptRequest godoc
// @Summary      Accept a pending friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "request id"
// @Success      200 {object} map[string]string
// @Router       /friends/requests/{id}/accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	if err := h.relationshipService.AcceptRequest(c.Request.Context(), actingAccount(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "accepted"})
}

// RejectRequest godoc
// @Summary      Reject a pending friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "request id"
// @Success      200 {object} map[string]string
// @Router       /friends/requests/{id}/reject [post]
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	if err := h.relationshipService.RejectRequest(c.Request.Context(), actingAccount(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "rejected"})
}

// RemoveFriend godoc
// @Summary      Remove a friend or placeholder member
// @Description  Dispatches on the member's linked state: a linked friend
// @Description  loses only the local relationship and the direct group;
// @Description  an unlinked placeholder is cascaded out of groups,
// @Description  expenses and the alias graph.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        memberId path string true "member id"
// @Success      200 {object} map[string]string
// @Router       /friends/{memberId} [delete]
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	ctx := c.Request.Context()
	owner := actingAccount(c)
	memberID := c.Param("memberId")

	rel, err := h.relationshipService.GetRelationship(ctx, owner, memberID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if rel == nil {
		abortWithError(c, service.ErrRelationshipNotFound)
		return
	}

	// The service re-guards against the member's actual linked state, so a
	// stale relationship row cannot route the wrong cascade.
	if rel.HasLinkedAccount {
		err = h.lifecycleService.RemoveLinkedFriend(ctx, owner, memberID)
	} else {
		err = h.lifecycleService.RemoveUnlinkedMember(ctx, owner, memberID)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "removed"})
}
