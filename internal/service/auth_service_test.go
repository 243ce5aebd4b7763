package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jagesaurus/invigilation-api/internal/models"
	"github.com/jagesaurus/invigilation-api/pkg/config"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type userRepoStub struct {
	users map[string]*models.User
}

func (s userRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.users[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s userRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := userRepoStub{users: map[string]*models.User{
		"admin@school.za": {
			ID:           "u1",
			Email:        "admin@school.za",
			FullName:     "Admin User",
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			IsActive:     true,
		},
		"dormant@school.za": {
			ID:           "u2",
			Email:        "dormant@school.za",
			PasswordHash: string(hash),
			Role:         models.RoleViewer,
			IsActive:     false,
		},
	}}
	return NewAuthService(users, config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "invigilation-api",
	}, nil, nil)
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.za",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.InDelta(t, 3600, resp.ExpiresIn, 5)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "invigilation-api", claims.Issuer)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.za",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@school.za",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dormant@school.za",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForgery(t *testing.T) {
	svc := newAuthService(t)

	other := NewAuthService(userRepoStub{}, config.JWTConfig{
		Secret:     "different-secret",
		Expiration: time.Hour,
		Issuer:     "invigilation-api",
	}, nil, nil)
	forged, _, err := other.generateAccessToken(&models.User{ID: "u1", Email: "admin@school.za", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
