package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pixelgram/api/middleware"
	"pixelgram/services"

	"github.com/gin-gonic/gin"
)

var interactionService = services.NewInteractionService()

func toggleResponse(c *gin.Context, action string, state bool, err error, started time.Time) {
	middleware.RecordInteraction(action, "pixelgram", time.Since(started), err)

	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		case errors.Is(err, services.ErrSelfFollow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "state": state})
}

// ToggleLike переключает лайк поста
func ToggleLike(c *gin.Context) {
	started := time.Now()

	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	state, err := interactionService.ToggleLike(c.Request.Context(), userID.(int64), postID)
	toggleResponse(c, "like", state, err, started)
}

// ToggleSave переключает закладку
func ToggleSave(c *gin.Context) {
	started := time.Now()

	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	state, err := interactionService.ToggleSave(c.Request.Context(), userID.(int64), postID)
	toggleResponse(c, "save", state, err, started)
}

// ToggleFollow переключает подписку на пользователя из пути
func ToggleFollow(c *gin.Context) {
	started := time.Now()

	username := c.Param("username")
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target, err := userService.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	state, err := interactionService.ToggleFollow(c.Request.Context(), userID.(int64), target.ID)
	toggleResponse(c, "follow", state, err, started)
}

// ToggleCommentLike переключает лайк комментария
func ToggleCommentLike(c *gin.Context) {
	started := time.Now()

	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	state, err := interactionService.ToggleCommentLike(c.Request.Context(), userID.(int64), commentID)
	toggleResponse(c, "comment_like", state, err, started)
}
