package handlers

import (
	"net/http"
	"strconv"

	"pixelgram/services"

	"github.com/gin-gonic/gin"
)

var feedService = services.NewFeedService()

// viewerID возвращает id зрителя или 0 для анонима
func viewerID(c *gin.Context) int64 {
	if v, exists := c.Get("user_id"); exists {
		return v.(int64)
	}
	return 0
}

func cursorParam(c *gin.Context) int64 {
	if s := c.Query("cursor"); s != "" {
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

// GetHomeFeed - домашняя лента; анониму отдается с выключенными флагами
func GetHomeFeed(c *gin.Context) {
	page, err := feedService.HomeFeed(c.Request.Context(), viewerID(c), cursorParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get feed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetExploreFeed - сетка explore
func GetExploreFeed(c *gin.Context) {
	page, err := feedService.ExploreFeed(c.Request.Context(), viewerID(c), cursorParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get explore feed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetTagFeed - сетка постов с тегом
func GetTagFeed(c *gin.Context) {
	tag := c.Param("tag")
	if tag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tag is required"})
		return
	}

	page, err := feedService.TagFeed(c.Request.Context(), viewerID(c), tag, cursorParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tag feed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetUserPosts - сетка профиля
func GetUserPosts(c *gin.Context) {
	username := c.Param("username")

	page, err := feedService.UserPosts(c.Request.Context(), viewerID(c), username, cursorParam(c))
	if err != nil {
		if err == services.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user posts"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetUserTaggedPosts - сетка постов, где пользователь упомянут
func GetUserTaggedPosts(c *gin.Context) {
	username := c.Param("username")

	page, err := feedService.TaggedPosts(c.Request.Context(), viewerID(c), username, cursorParam(c))
	if err != nil {
		if err == services.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tagged posts"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetSavedPosts - закладки текущего пользователя
func GetSavedPosts(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, err := feedService.SavedPosts(c.Request.Context(), userID.(int64), cursorParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get saved posts"})
		return
	}
	c.JSON(http.StatusOK, page)
}
