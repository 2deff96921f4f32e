package handler

import (
	"net/http"

	"split-service/internal/models"
	"split-service/internal/service"
	"split-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register godoc
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body models.RegisterRequest true "registration payload"
// @Success      201 {object} models.UserResponse
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, user)
}

// Login godoc
// @Summary      Log in and receive a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body models.LoginRequest true "credentials"
// @Success      200 {object} map[string]string
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	token, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token})
}

// GetProfile godoc
// @Summary      Current account profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} models.UserResponse
// @Router       /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), actingAccount(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}
