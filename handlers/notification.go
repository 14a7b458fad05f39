package handlers

import (
	"net/http"

	"healthpulse/models"
	"healthpulse/services/notification"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Service notification.NotificationService
}

func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

func parseFilter(c *gin.Context) (models.ReadFilter, bool) {
	filter, err := models.ParseReadFilter(c.Query("filter"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid filter", err.Error())
		return "", false
	}
	return filter, true
}

// ListHandler returns the caller's notifications newest first.
func (h *NotificationHandler) ListHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	list, err := h.Service.List(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) UnreadCountHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	count, err := h.Service.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	n, err := h.Service.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllReadHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	updated, err := h.Service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *NotificationHandler) MarkUnreadHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Service.MarkUnread(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteMatchingHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	deleted, err := h.Service.DeleteMatching(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
