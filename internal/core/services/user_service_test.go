package services

import (
	"context"
	"testing"

	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ListUsers(t *testing.T) {
	db := setupServiceDB(t)
	userRepo := repositories.NewUserRepository(db)
	svc := NewUserService(userRepo)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		createTestMember(t, userRepo)
	}

	out, err := svc.ListUsers(ctx, &ListUsersInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.Total)
	assert.Len(t, out.Users, 10)
	assert.Equal(t, 2, out.TotalPages)

	t.Run("defaults kick in for zero values", func(t *testing.T) {
		out, err := svc.ListUsers(ctx, &ListUsersInput{})
		require.NoError(t, err)
		assert.Equal(t, 1, out.Page)
		assert.Equal(t, 10, out.Limit)
	})
}

func TestUserService_AdminUpdates(t *testing.T) {
	db := setupServiceDB(t)
	userRepo := repositories.NewUserRepository(db)
	svc := NewUserService(userRepo)
	ctx := context.Background()

	admin := createTestMember(t, userRepo)
	member := createTestMember(t, userRepo)

	t.Run("promote a member", func(t *testing.T) {
		role := string(domain.RoleAdmin)
		updated, err := svc.UpdateUserByAdmin(ctx, member.ID, admin.ID, &UpdateUserByAdminInput{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, role, updated.Role)
	})

	t.Run("admin cannot change own role", func(t *testing.T) {
		role := string(domain.RoleMember)
		_, err := svc.UpdateUserByAdmin(ctx, admin.ID, admin.ID, &UpdateUserByAdminInput{Role: &role})
		assert.ErrorIs(t, err, ErrCannotChangeOwnRole)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		role := "SUPERADMIN"
		_, err := svc.UpdateUserByAdmin(ctx, member.ID, admin.ID, &UpdateUserByAdminInput{Role: &role})
		assert.Error(t, err)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		email := admin.Email
		_, err := svc.UpdateUserByAdmin(ctx, member.ID, admin.ID, &UpdateUserByAdminInput{Email: &email})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("deactivate", func(t *testing.T) {
		inactive := false
		updated, err := svc.UpdateUserByAdmin(ctx, member.ID, admin.ID, &UpdateUserByAdminInput{IsActive: &inactive})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("admin cannot delete self", func(t *testing.T) {
		err := svc.DeleteUser(ctx, admin.ID, admin.ID)
		assert.ErrorIs(t, err, ErrCannotDeleteSelf)
	})

	t.Run("delete member", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(ctx, member.ID, admin.ID))
		_, err := svc.GetUserByID(ctx, member.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_Profile(t *testing.T) {
	db := setupServiceDB(t)
	userRepo := repositories.NewUserRepository(db)
	svc := NewUserService(userRepo)
	ctx := context.Background()

	hashed, err := password.Hash("rahasia-sekali")
	require.NoError(t, err)
	member := createTestMember(t, userRepo)
	member.Password = hashed
	require.NoError(t, userRepo.Update(ctx, member))

	t.Run("update contact details", func(t *testing.T) {
		phone := "081111111111"
		updated, err := svc.UpdateProfile(ctx, member.ID, &UpdateProfileInput{Phone: &phone})
		require.NoError(t, err)
		assert.Equal(t, phone, updated.Phone)
		assert.Equal(t, member.MemberNo, updated.MemberNo)
	})

	t.Run("change password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, member.ID, &ChangePasswordInput{
			OldPassword: "rahasia-sekali",
			NewPassword: "rahasia-baru-123",
		})
		require.NoError(t, err)

		fresh, err := userRepo.GetByID(ctx, member.ID)
		require.NoError(t, err)
		assert.True(t, password.Verify("rahasia-baru-123", fresh.Password))
	})

	t.Run("wrong old password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, member.ID, &ChangePasswordInput{
			OldPassword: "salah",
			NewPassword: "rahasia-baru-456",
		})
		assert.ErrorIs(t, err, ErrOldPasswordWrong)
	})
}
