package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pixelgram/services"

	"github.com/gin-gonic/gin"
)

var postService = services.NewPostService()
var commentService = services.NewCommentService()

type CreatePostRequest struct {
	Images  []string `json:"images" binding:"required"`
	Caption string   `json:"caption"`
}

type UpdateCaptionRequest struct {
	Caption string `json:"caption"`
}

func postIDParam(c *gin.Context) (int64, bool) {
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return 0, false
	}
	return postID, true
}

// CreatePost публикует пост; бинарники уже лежат в объектном
// хранилище, сюда приходят только URL
func CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	post, err := postService.CreatePost(c.Request.Context(), userID.(int64), req.Images, req.Caption)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdateCaption меняет подпись поста (только владелец)
func UpdateCaption(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var req UpdateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	post, err := postService.UpdateCaption(c.Request.Context(), userID.(int64), postID, req.Caption)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, services.ErrNotPostOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		}
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost удаляет пост (только владелец)
func DeletePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := postService.DeletePost(c.Request.Context(), userID.(int64), postID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, services.ErrNotPostOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetPost - детали поста с деревом комментариев
func GetPost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := postService.GetPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}

	comments, err := commentService.ListComments(c.Request.Context(), postID, viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post": gin.H{
			"id":         post.ID,
			"user_id":    post.UserID,
			"username":   post.User.Username,
			"user_image": post.User.Image,
			"caption":    post.Caption,
			"images":     post.Images,
			"created_at": post.CreatedAt,
		},
		"comments": comments,
	})
}
