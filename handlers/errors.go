package handlers

import (
	"errors"
	"net/http"

	"healthpulse/services/chat"
	"healthpulse/services/community"
	"healthpulse/services/notification"
	"healthpulse/services/tasks"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var perr *notification.PersistenceError
	switch {
	case errors.Is(err, notification.ErrNotFound), errors.Is(err, community.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, notification.ErrForbidden), errors.Is(err, community.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, notification.ErrUnsupportedTransition):
		utils.JSONError(c, http.StatusConflict, "Unsupported transition", err.Error())
	case errors.Is(err, notification.ErrInvalidInput),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, community.ErrEmptyContent),
		errors.Is(err, tasks.ErrInvalidReminder):
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.As(err, &perr):
		getLogger(c).Error("Persistence failure", zap.String("op", perr.Op), zap.Error(perr.Err))
		utils.JSONError(c, http.StatusInternalServerError, "Storage unavailable", "please retry later")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

// requireUser reads the authenticated user id or aborts with 401.
func requireUser(c *gin.Context) (string, bool) {
	raw, exists := c.Get("userID")
	userID, ok := raw.(string)
	if !exists || !ok || userID == "" {
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "user ID not found in context")
		return "", false
	}
	return userID, true
}
