package handlers

import (
	"context"
	"net/http"
	"time"

	"healthpulse/models"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
)

// ReminderScheduler queues a single-user reminder.
type ReminderScheduler interface {
	Schedule(ctx context.Context, ownerID, message string, fireAt time.Time) (models.ReminderPayload, error)
}

type ReminderHandler struct {
	Scheduler ReminderScheduler
}

func NewReminderHandler(s ReminderScheduler) *ReminderHandler {
	return &ReminderHandler{Scheduler: s}
}

type reminderRequest struct {
	Message string    `json:"message" binding:"required"`
	FireAt  time.Time `json:"fireAt" binding:"required"`
}

func (h *ReminderHandler) CreateReminderHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Scheduler == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Reminders unavailable", "reminder queue is not configured")
		return
	}
	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	payload, err := h.Scheduler.Schedule(c.Request.Context(), userID, req.Message, req.FireAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, payload)
}
