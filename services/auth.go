package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"pixelgram/config"
	"pixelgram/db"
	"pixelgram/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// AuthCookieName - имя httpOnly куки с сессионным токеном
	AuthCookieName = "auth-token"

	bcryptCost          = 12
	defaultTokenTTLDays = 7
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidSession     = errors.New("invalid session token")
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// имя пользователя не может заканчиваться точкой, иначе
	// его невозможно упомянуть в тексте (точка в конце - пунктуация)
	usernameRe = regexp.MustCompile(`^[a-z0-9_.]*[a-z0-9_]$`)
)

type SessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

type AuthService struct{}

func NewAuthService() *AuthService {
	return &AuthService{}
}

// Register создает пользователя. Конфликты email и username различаются
// в сообщении, пароль хешируется bcrypt и наружу не отдается
func (as *AuthService) Register(ctx context.Context, email, password, username, name string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(strings.ToLower(username))
	name = strings.TrimSpace(name)

	if email == "" || password == "" || username == "" || name == "" {
		return nil, errors.New("all fields are required")
	}
	if !emailRe.MatchString(email) {
		return nil, errors.New("invalid email address")
	}
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	if !usernameRe.MatchString(username) {
		return nil, errors.New("username may only contain letters, digits, underscore and dot")
	}

	var existing models.User
	err := db.GetReadOnlyDB(ctx).
		Where("email = ? OR username = ?", email, username).
		First(&existing).Error
	if err == nil {
		if existing.Email == email {
			return nil, ErrEmailTaken
		}
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          email,
		Username:       username,
		Name:           name,
		HashedPassword: string(hash),
	}
	if err := db.GetWriteDB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login проверяет пароль. Сообщение об ошибке одинаковое для
// несуществующего email и неверного пароля
func (as *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// CreateSession выпускает подписанный токен с user_id
func (as *AuthService) CreateSession(userID int64) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingSecret())
}

// ParseSession возвращает user_id из токена либо ErrInvalidSession
func (as *AuthService) ParseSession(tokenStr string) (int64, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return signingSecret(), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidSession
	}
	return claims.UserID, nil
}

// GetUser возвращает пользователя по id
func (as *AuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := db.GetReadOnlyDB(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func SessionTTL() time.Duration {
	days := defaultTokenTTLDays
	if config.AppConfig != nil && config.AppConfig.Auth.TokenTTLDays > 0 {
		days = config.AppConfig.Auth.TokenTTLDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func signingSecret() []byte {
	if config.AppConfig != nil && config.AppConfig.Auth.Secret != "" {
		return []byte(config.AppConfig.Auth.Secret)
	}
	return []byte("pixelgram-dev-secret")
}
