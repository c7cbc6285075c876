package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/service"
)

// UserHandlers contains HTTP handlers for onboarding endpoints
type UserHandlers struct {
	userService *service.UserService
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(userService *service.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// Create registers a wallet, 201 when new and 200 when it already existed
func (h *UserHandlers) Create(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required,eth_addr"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError("Invalid request", err))
		return
	}

	user, created, err := h.userService.Create(c.Request.Context(), req.WalletAddress)
	if err != nil {
		_ = c.Error(core.AsError(err))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// Me returns the caller's record
func (h *UserHandlers) Me(c *gin.Context) {
	id, ok := IdentityFrom(c)
	if !ok {
		_ = c.Error(core.Unauthorized("Unauthorized", nil))
		return
	}

	user, err := h.userService.Me(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(core.AsError(err))
		return
	}

	c.JSON(http.StatusOK, user)
}

// SubmitKYC approves the caller after validating the form
func (h *UserHandlers) SubmitKYC(c *gin.Context) {
	id, ok := IdentityFrom(c)
	if !ok {
		_ = c.Error(core.Unauthorized("Unauthorized", nil))
		return
	}

	var form core.KYCForm
	if err := c.ShouldBindJSON(&form); err != nil {
		_ = c.Error(bindError("Invalid request", err))
		return
	}

	user, err := h.userService.SubmitKYC(c.Request.Context(), id, form)
	if err != nil {
		_ = c.Error(core.AsError(err))
		return
	}

	c.JSON(http.StatusOK, user)
}

// CompleteOnboarding marks onboarding as done
func (h *UserHandlers) CompleteOnboarding(c *gin.Context) {
	id, ok := IdentityFrom(c)
	if !ok {
		_ = c.Error(core.Unauthorized("Unauthorized", nil))
		return
	}

	user, err := h.userService.CompleteOnboarding(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(core.AsError(err))
		return
	}

	c.JSON(http.StatusOK, user)
}
