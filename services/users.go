package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"pixelgram/db"
	"pixelgram/models"

	"gorm.io/gorm"
)

const (
	suggestedPoolSize = 50
	suggestedCount    = 5
	storyUserCount    = 3
)

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

// Profile - публичный профиль со счетчиками и флагом подписки зрителя
type Profile struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Image          string `json:"image,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Website        string `json:"website,omitempty"`
	PostsCount     int64  `json:"posts_count"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}

func (us *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (us *UserService) GetProfile(ctx context.Context, username string, viewerID int64) (*Profile, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	profile := &Profile{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Image:    user.Image,
		Bio:      user.Bio,
		Website:  user.Website,
	}

	if err := db.GetReadOnlyDB(ctx).Model(&models.Post{}).Where("user_id = ?", user.ID).Count(&profile.PostsCount).Error; err != nil {
		return nil, err
	}
	if err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).Where("following_id = ?", user.ID).Count(&profile.FollowersCount).Error; err != nil {
		return nil, err
	}
	if err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).Where("follower_id = ?", user.ID).Count(&profile.FollowingCount).Error; err != nil {
		return nil, err
	}

	if viewerID > 0 && viewerID != user.ID {
		var count int64
		err = db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", viewerID, user.ID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		profile.IsFollowing = count > 0
	}

	return profile, nil
}

// ProfileUpdate - частичное обновление профиля; nil-поля не трогаются
type ProfileUpdate struct {
	Name    *string `json:"name"`
	Bio     *string `json:"bio"`
	Website *string `json:"website"`
	Image   *string `json:"image"`
}

func (us *UserService) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := db.GetWriteDB(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.Website != nil {
		fields["website"] = strings.TrimSpace(*update.Website)
	}
	if update.Image != nil {
		fields["image"] = *update.Image
	}
	if len(fields) == 0 {
		return &user, nil
	}

	err := db.GetWriteDB(ctx).Model(&user).Updates(fields).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

// SearchUsers ищет по префиксу имени пользователя или подстроке имени
func (us *UserService) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []models.User{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var users []models.User
	err := db.GetReadOnlyDB(ctx).
		Where("username LIKE ? OR LOWER(name) LIKE ?", query+"%", "%"+query+"%").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// SearchTags ищет теги по префиксу для строки поиска explore
func (us *UserService) SearchTags(ctx context.Context, query string, limit int) ([]models.Tag, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []models.Tag{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var tags []models.Tag
	err := db.GetReadOnlyDB(ctx).
		Where("name LIKE ?", query+"%").
		Order("name ASC").
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search tags: %w", err)
	}
	return tags, nil
}

// SuggestedUsers - случайные неподписанные пользователи для сайдбара:
// пул кандидатов ограничен, перемешивается в памяти
func (us *UserService) SuggestedUsers(ctx context.Context, viewerID int64) ([]models.User, error) {
	var followingIDs []int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", viewerID).
		Pluck("following_id", &followingIDs).Error
	if err != nil {
		return nil, err
	}

	q := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("id <> ?", viewerID)
	if len(followingIDs) > 0 {
		q = q.Where("id NOT IN ?", followingIDs)
	}

	var candidates []models.User
	if err := q.Limit(suggestedPoolSize).Find(&candidates).Error; err != nil {
		return nil, err
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > suggestedCount {
		candidates = candidates[:suggestedCount]
	}
	return candidates, nil
}

// RecentStoryUsers - авторы недавних постов для верхней полосы,
// без самого зрителя, максимум storyUserCount
func (us *UserService) RecentStoryUsers(ctx context.Context, viewerID int64) ([]models.User, error) {
	var posts []models.Post
	err := db.GetReadOnlyDB(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(20).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	seen := map[int64]struct{}{}
	users := make([]models.User, 0, storyUserCount)
	for _, p := range posts {
		if p.UserID == viewerID {
			continue
		}
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		users = append(users, p.User)
		if len(users) >= storyUserCount {
			break
		}
	}
	return users, nil
}
