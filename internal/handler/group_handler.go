package handler

import (
	"net/http"

	"split-service/internal/models"
	"split-service/internal/service"
	"split-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup godoc
// @Summary      Create a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.CreateGroupRequest true "group"
// @Success      201 {object} models.GroupResponse
// @Router       /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), actingAccount(c), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, models.GroupResponse{
		ID:        group.ID,
		Name:      group.Name,
		Direct:    group.Direct,
		MemberIDs: req.MemberIDs,
	})
}

// GetGroup godoc
// @Summary      Fetch a group with its member list
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "group id"
// @Success      200 {object} models.GroupResponse
// @Router       /groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.GetGroup(c.Request.Context(), actingAccount(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group)
}

// AddMembers godoc
// @Summary      Add members to a group
// @Description  Creates group_peer relationship rows for every new pair;
// @Description  never upgrades anyone to friend.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "group id"
// @Param        request body models.AddGroupMembersRequest true "members"
// @Success      200 {object} map[string]string
// @Router       /groups/{id}/members [post]
func (h *GroupHandler) AddMembers(c *gin.Context) {
	var req models.AddGroupMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	if err := h.groupService.AddMembers(c.Request.Context(), actingAccount(c), c.Param("id"), req.MemberIDs); err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "added"})
}
