package handlers

import (
	"errors"
	"net/http"

	"pixelgram/services"

	"github.com/gin-gonic/gin"
)

type CreateCommentRequest struct {
	Body     string `json:"body" binding:"required"`
	ParentID *int64 `json:"parent_id"`
}

// CreateComment добавляет комментарий или ответ к посту
func CreateComment(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	comment, err := commentService.CreateComment(c.Request.Context(), userID.(int64), postID, req.ParentID, req.Body)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments - дерево комментариев поста
func ListComments(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	comments, err := commentService.ListComments(c.Request.Context(), postID, viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}
