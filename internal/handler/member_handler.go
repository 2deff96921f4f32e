package handler

import (
	"net/http"

	"split-service/internal/models"
	"split-service/internal/service"
	"split-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService *service.MemberService
	mergeService  *service.MergeService
}

func NewMemberHandler(memberService *service.MemberService, mergeService *service.MergeService) *MemberHandler {
	return &MemberHandler{memberService: memberService, mergeService: mergeService}
}

// CreateMember godoc
// @Summary      Create an unlinked placeholder member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.CreateMemberRequest true "member"
// @Success      201 {object} models.MemberResponse
// @Router       /members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req models.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	member, err := h.memberService.CreatePlaceholder(c.Request.Context(), actingAccount(c), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, models.MemberResponse{
		ID:     member.ID,
		Name:   member.Name,
		Linked: member.Linked(),
	})
}

// ListMembers godoc
// @Summary      List the account's address book
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.MemberResponse
// @Router       /members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	members, err := h.memberService.ListMembers(c.Request.Context(), actingAccount(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members)
}

// GetCanonical godoc
// @Summary      Resolve a member identity to its canonical
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "member id"
// @Success      200 {object} models.CanonicalResponse
// @Router       /members/{id}/canonical [get]
func (h *MemberHandler) GetCanonical(c *gin.Context) {
	result, err := h.memberService.Canonical(c.Request.Context(), actingAccount(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// MergeMembers godoc
// @Summary      Merge two unlinked placeholders into one person
// @Description  keepId becomes the canonical identity; mergeId becomes its
// @Description  alias. Rejected if either side is linked to a verified
// @Description  account, if the merge would create a cycle, or if mergeId
// @Description  already aliases a different canonical.
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.MergeMembersRequest true "pair to merge"
// @Success      200 {object} service.MergeResult
// @Router       /members/merge [post]
func (h *MemberHandler) MergeMembers(c *gin.Context) {
	var req models.MergeMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.mergeService.MergeFriendPair(c.Request.Context(), req.KeepID, req.MergeID, actingAccount(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
