package handlers

import (
	"net/http"

	userRepo "healthpulse/database/repository/user"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	Users userRepo.UserRepository
}

func NewDeviceHandler(users userRepo.UserRepository) *DeviceHandler {
	return &DeviceHandler{Users: users}
}

type fcmTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// UpdateFCMTokenHandler registers the caller's device token for offline push.
func (h *DeviceHandler) UpdateFCMTokenHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.Users.UpsertFCMToken(c.Request.Context(), userID, req.Token); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to update FCM token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}
