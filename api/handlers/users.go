package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pixelgram/services"

	"github.com/gin-gonic/gin"
)

var userService = services.NewUserService()

// GetProfile - публичный профиль; флаг подписки считается от зрителя
func GetProfile(c *gin.Context) {
	username := c.Param("username")

	profile, err := userService.GetProfile(c.Request.Context(), username, viewerID(c))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile - частичное обновление своего профиля
func UpdateProfile(c *gin.Context) {
	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := userService.UpdateProfile(c.Request.Context(), userID.(int64), req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Search - общий поиск для строки explore: пользователи и теги разом
func Search(c *gin.Context) {
	query := c.Query("q")
	limit := 0
	if s := c.Query("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			limit = parsed
		}
	}

	users, err := userService.SearchUsers(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	tags, err := userService.SearchTags(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "tags": tags})
}

// GetSuggestedUsers - кандидаты для сайдбара "на кого подписаться"
func GetSuggestedUsers(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	users, err := userService.SuggestedUsers(c.Request.Context(), userID.(int64))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get suggestions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetStoryUsers - авторы свежих постов для верхней полосы
func GetStoryUsers(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	users, err := userService.RecentStoryUsers(c.Request.Context(), userID.(int64))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get story users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
