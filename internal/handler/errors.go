package handler

import (
	"errors"
	"net/http"

	"split-service/internal/service"
	"split-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithError maps service sentinels onto HTTP statuses. Every one of
// these is a permanent rejection of the specific call; nothing here is
// retried server-side.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrRelationshipNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, err)
	case errors.Is(err, service.ErrMergeCycle),
		errors.Is(err, service.ErrMergeConflict),
		errors.Is(err, service.ErrAlreadyLinked),
		errors.Is(err, service.ErrRequestPending),
		errors.Is(err, service.ErrRequestNotPending),
		errors.Is(err, service.ErrReRequestForbidden),
		errors.Is(err, service.ErrAlreadyFriends),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrMemberLinked),
		errors.Is(err, service.ErrMemberNotLinked):
		response.Error(c, http.StatusConflict, err)
	case errors.Is(err, service.ErrRequestExpired):
		response.Error(c, http.StatusGone, err)
	case errors.Is(err, service.ErrNotRecipient),
		errors.Is(err, service.ErrNotFriends),
		errors.Is(err, service.ErrNotGroupOwner):
		response.Error(c, http.StatusForbidden, err)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrSelfRequest),
		errors.Is(err, service.ErrRecipientNotVerified),
		errors.Is(err, service.ErrDirectGroupSize),
		errors.Is(err, service.ErrDirectParticipants),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrExpenseParticipant),
		errors.Is(err, service.ErrMemberWrongOwner):
		response.Error(c, http.StatusBadRequest, err)
	default:
		response.Error(c, http.StatusInternalServerError, err)
	}
}

func actingAccount(c *gin.Context) uint {
	return c.MustGet("user_id").(uint)
}
