package handlers

import (
	"errors"
	"net/http"

	"staycal/models"
	"staycal/services/identity"
	"staycal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exposes the identity registry over HTTP.
type AuthHandler struct {
	Service identity.IdentityService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc identity.IdentityService) *AuthHandler {
	return &AuthHandler{Service: svc}
}

// RegisterHandler handles POST /api/users/register.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	logger := utils.GetLogger()

	var req models.UserCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Service.Register(c.Request.Context(), req.Name, req.Secret)
	if err != nil {
		if errors.Is(err, identity.ErrAlreadyExists) {
			utils.JSONErrorCode(c, http.StatusConflict, "alreadyExists", err.Error())
			return
		}
		logger.Error("Registration failed", zap.String("name", req.Name), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AuthenticateHandler handles POST /api/users/login.
func (h *AuthHandler) AuthenticateHandler(c *gin.Context) {
	logger := utils.GetLogger()

	var req models.UserCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Service.Authenticate(c.Request.Context(), req.Name, req.Secret)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			utils.JSONErrorCode(c, http.StatusUnauthorized, "invalidCredential", err.Error())
			return
		}
		logger.Error("Authentication failed", zap.String("name", req.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RevokeTokenHandler handles DELETE /api/users/revoke.
func (h *AuthHandler) RevokeTokenHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.Service.RevokeToken(c.Request.Context(), userID); err != nil {
		utils.GetLogger().Error("Failed to revoke token", zap.String("userID", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session revoked"})
}

// ListUsersHandler handles GET /api/users, returning the roster shown
// on the calendar grid.
func (h *AuthHandler) ListUsersHandler(c *gin.Context) {
	users, err := h.Service.Users(c.Request.Context())
	if err != nil {
		utils.GetLogger().Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}
