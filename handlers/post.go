package handlers

import (
	"net/http"
	"strconv"

	"healthpulse/services/community"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	Service community.CommunityService
}

func NewPostHandler(svc community.CommunityService) *PostHandler {
	return &PostHandler{Service: svc}
}

type createPostRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *PostHandler) CreatePostHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	post, err := h.Service.Create(c.Request.Context(), userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) ListPostsHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	posts, err := h.Service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page})
}

func (h *PostHandler) DeletePostHandler(c *gin.Context) {
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
