package services

import (
	"context"
	"testing"

	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/config"
	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/pkg/membercode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		App: config.AppConfig{
			AdminEmails:        []string{"bendahara@bci.co.id"},
			DefaultRatePercent: 2,
		},
		JWT: config.JWTConfig{
			Secret:           "test_secret",
			RefreshSecret:    "test_refresh_secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	db := setupServiceDB(t)
	svc := NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		repositories.NewSavingRepository(db),
		testConfig(),
	)
	return svc, db
}

func validRegistration() *RegisterInput {
	return &RegisterInput{
		FullName: "Siti Rahayu",
		NIK:      "3201010101010099",
		Email:    "siti@example.com",
		Phone:    "081298765432",
		Address:  "Jl. Melati No. 5, Bandung",
		Password: "rahasia-sekali",
	}
}

func TestAuthService_Register(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("assigns a member number and the member role", func(t *testing.T) {
		assert.True(t, membercode.Valid(resp.User.MemberNo), "member number %q", resp.User.MemberNo)
		assert.Equal(t, string(domain.RoleMember), resp.User.Role)
		assert.True(t, resp.User.IsActive)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
	})

	t.Run("opens the mandatory savings accounts", func(t *testing.T) {
		savingSvc := NewSavingService(repositories.NewSavingRepository(db))
		balance, err := savingSvc.Balance(ctx, resp.User.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OpeningPokok, balance.Pokok)
		assert.Equal(t, domain.OpeningWajib, balance.Wajib)
		assert.Zero(t, balance.Sukarela)
	})

	t.Run("duplicate email", func(t *testing.T) {
		input := validRegistration()
		input.NIK = "3201010101010098"
		_, err := svc.Register(ctx, input)
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("duplicate NIK", func(t *testing.T) {
		input := validRegistration()
		input.Email = "siti2@example.com"
		_, err := svc.Register(ctx, input)
		assert.ErrorIs(t, err, ErrNIKTaken)
	})

	t.Run("missing fields", func(t *testing.T) {
		input := validRegistration()
		input.FullName = "  "
		_, err := svc.Register(ctx, input)
		assert.ErrorIs(t, err, ErrMissingFields)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("allowlisted email registers as admin", func(t *testing.T) {
		input := &RegisterInput{
			FullName: "Bendahara BCI",
			NIK:      "3201010101010097",
			Email:    "Bendahara@BCI.co.id", // case-insensitive match
			Password: "rahasia-sekali",
		}
		resp, err := svc.Register(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, string(domain.RoleAdmin), resp.User.Role)
	})
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("by member number", func(t *testing.T) {
		resp, err := svc.Login(ctx, &LoginInput{Identifier: registered.User.MemberNo, Password: "rahasia-sekali"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, resp.User.ID)
	})

	t.Run("by NIK", func(t *testing.T) {
		resp, err := svc.Login(ctx, &LoginInput{Identifier: registered.User.NIK, Password: "rahasia-sekali"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginInput{Identifier: registered.User.MemberNo, Password: "salah"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginInput{Identifier: "BCI-2026-XXXXX", Password: "rahasia-sekali"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_TokenRotation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	t.Run("rotated token is revoked", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, registered.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, refreshed.RefreshToken))
		_, err := svc.RefreshToken(ctx, refreshed.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("logout-all revokes every session", func(t *testing.T) {
		first, err := svc.Login(ctx, &LoginInput{Identifier: registered.User.MemberNo, Password: "rahasia-sekali"})
		require.NoError(t, err)
		second, err := svc.Login(ctx, &LoginInput{Identifier: registered.User.MemberNo, Password: "rahasia-sekali"})
		require.NoError(t, err)

		require.NoError(t, svc.LogoutAll(ctx, registered.User.ID))

		_, err = svc.RefreshToken(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		_, err = svc.RefreshToken(ctx, second.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestAuthService_ValidateAccessToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, registered.User.MemberNo, claims.MemberNo)
	assert.Equal(t, string(domain.RoleMember), claims.Role)

	_, err = svc.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)
}
