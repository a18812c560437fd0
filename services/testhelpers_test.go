package services

import (
	"fmt"
	"strings"
	"testing"

	"pixelgram/db"
	"pixelgram/models"

	"github.com/brianvoe/gofakeit/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB поднимает SQLite в памяти и подменяет глобальный ORM
func setupTestDB(t *testing.T) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = database.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Tag{},
		&models.Comment{},
		&models.Follow{},
		&models.Like{},
		&models.CommentLike{},
		&models.SavedPost{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.ORM = database
	// в тестах кеш и очередь выключены
	RedisClient = nil
	QueueServiceInstance = nil
}

func createTestUser(t *testing.T) *models.User {
	t.Helper()

	name := gofakeit.FirstName()
	user := &models.User{
		Email:          gofakeit.Email(),
		Username:       fmt.Sprintf("%s_%s", strings.ToLower(name), gofakeit.Numerify("######")),
		Name:           name,
		HashedPassword: "x",
	}
	if err := db.ORM.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, userID int64) *models.Post {
	t.Helper()

	post := &models.Post{
		UserID:  userID,
		Caption: gofakeit.Sentence(5),
		Images:  models.ImageList{gofakeit.URL()},
	}
	if err := db.ORM.Create(post).Error; err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}
