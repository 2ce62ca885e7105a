package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kmerkulov/storefront/internal/config"
	"github.com/kmerkulov/storefront/internal/models"
	"github.com/kmerkulov/storefront/internal/repo"
	"github.com/kmerkulov/storefront/internal/transport"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.AutoMigrate(db))

	return &AuthService{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  transport.RegisterRequest
	}{
		{name: "empty email", req: transport.RegisterRequest{Password: "secret"}},
		{name: "empty password", req: transport.RegisterRequest{Email: "user@test.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Register_HashesPasswordAndDefaultsRole(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, transport.RegisterRequest{
		FirstName: "Max",
		LastName:  "Mustermann",
		Email:     "max@test.com",
		Password:  "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "user", user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", user.PasswordHash)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	req := transport.RegisterRequest{Email: "dup@test.com", Password: "secret123"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, transport.RegisterRequest{
		Email:    "login@test.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "login@test.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.NotEqual(t, res.AccessToken, res.RefreshToken)

	// the refresh token is stored hashed, never raw
	var stored models.RefreshToken
	require.NoError(t, svc.Repo.DB.First(&stored).Error)
	assert.NotEqual(t, res.RefreshToken, stored.Token)
	assert.Equal(t, sha256Hex(res.RefreshToken), stored.Token)

	_, err = svc.Login(ctx, "login@test.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@test.com", "secret123")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, transport.RegisterRequest{
		Email:    "logout@test.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "logout@test.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))

	stored, err := svc.Repo.GetRefreshToken(ctx, sha256Hex(res.RefreshToken))
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	// empty token is a no-op
	require.NoError(t, svc.Logout(ctx, ""))
}
