package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	setupTestDB(t)
	as := NewAuthService()
	ctx := context.Background()

	user, err := as.Register(ctx, "Alice@Example.com", "secret123", "Alice_99", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice_99", user.Username)
	assert.NotEqual(t, "secret123", user.HashedPassword)

	// пароль и хеш не должны утекать в JSON
	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret123")
	assert.NotContains(t, string(data), user.HashedPassword)

	logged, err := as.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegisterConflicts(t *testing.T) {
	setupTestDB(t)
	as := NewAuthService()
	ctx := context.Background()

	_, err := as.Register(ctx, "bob@example.com", "secret123", "bob", "Bob")
	require.NoError(t, err)

	// тот же email - различимое сообщение
	_, err = as.Register(ctx, "bob@example.com", "secret123", "other", "Other")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// то же имя пользователя - другое сообщение
	_, err = as.Register(ctx, "other@example.com", "secret123", "bob", "Other")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterValidation(t *testing.T) {
	setupTestDB(t)
	as := NewAuthService()
	ctx := context.Background()

	_, err := as.Register(ctx, "not-an-email", "secret123", "carol", "Carol")
	assert.Error(t, err)

	_, err = as.Register(ctx, "carol@example.com", "short", "carol", "Carol")
	assert.Error(t, err)

	// имя пользователя с точкой на конце нельзя упомянуть в тексте
	_, err = as.Register(ctx, "carol@example.com", "secret123", "carol.", "Carol")
	assert.Error(t, err)

	_, err = as.Register(ctx, "carol@example.com", "secret123", "carol.b", "Carol")
	assert.NoError(t, err)
}

func TestLoginUniformError(t *testing.T) {
	setupTestDB(t)
	as := NewAuthService()
	ctx := context.Background()

	_, err := as.Register(ctx, "dave@example.com", "secret123", "dave", "Dave")
	require.NoError(t, err)

	// несуществующий email и неверный пароль неразличимы
	_, errNoUser := as.Login(ctx, "ghost@example.com", "secret123")
	_, errBadPass := as.Login(ctx, "dave@example.com", "wrongpass")

	assert.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	assert.ErrorIs(t, errBadPass, ErrInvalidCredentials)
	assert.Equal(t, errNoUser.Error(), errBadPass.Error())
}

func TestSessionRoundTrip(t *testing.T) {
	setupTestDB(t)
	as := NewAuthService()

	token, err := as.CreateSession(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := as.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseSessionRejectsGarbage(t *testing.T) {
	setupTestDB(t)
	as := NewAuthService()

	_, err := as.ParseSession("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	// подпись другим секретом не проходит
	token, err := as.CreateSession(7)
	require.NoError(t, err)
	tampered := token[:strings.LastIndex(token, ".")+1] + "AAAA"
	_, err = as.ParseSession(tampered)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
