package handlers

import (
	"net/http"

	"healthpulse/services/chat"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	Service chat.ChatService
}

func NewChatHandler(svc chat.ChatService) *ChatHandler {
	return &ChatHandler{Service: svc}
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *ChatHandler) SendMessageHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.Service.Send(c.Request.Context(), userID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ChatHandler) HistoryHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	history, err := h.Service.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": history})
}

func (h *ChatHandler) ClearHistoryHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	cleared, err := h.Service.Clear(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": cleared})
}
