package services

import (
	"context"
	"testing"

	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavingService_Deposit(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewSavingService(repositories.NewSavingRepository(db))
	user := createTestMember(t, repositories.NewUserRepository(db))
	ctx := context.Background()

	t.Run("valid deposit", func(t *testing.T) {
		saving, err := svc.Deposit(ctx, user.ID, &DepositInput{Type: "SUKARELA", Amount: 250_000, Note: "Tabungan bulan ini"})
		require.NoError(t, err)
		assert.NotZero(t, saving.ID)
		assert.Equal(t, string(domain.SavingSukarela), saving.Type)
		assert.Equal(t, int64(250_000), saving.Amount)
	})

	t.Run("accepts the lowercase display form", func(t *testing.T) {
		saving, err := svc.Deposit(ctx, user.ID, &DepositInput{Type: "wajib", Amount: 50_000})
		require.NoError(t, err)
		assert.Equal(t, string(domain.SavingWajib), saving.Type)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.Deposit(ctx, user.ID, &DepositInput{Type: "deposito", Amount: 100_000})
		assert.ErrorIs(t, err, ErrInvalidSavingType)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.Deposit(ctx, user.ID, &DepositInput{Type: "SUKARELA", Amount: 0})
		assert.ErrorIs(t, err, ErrInvalidSavingAmount)
	})
}

func TestSavingService_Balance(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewSavingService(repositories.NewSavingRepository(db))
	userRepo := repositories.NewUserRepository(db)
	user := createTestMember(t, userRepo)
	other := createTestMember(t, userRepo)
	ctx := context.Background()

	deposits := []DepositInput{
		{Type: "POKOK", Amount: 100_000},
		{Type: "WAJIB", Amount: 50_000},
		{Type: "WAJIB", Amount: 50_000},
		{Type: "SUKARELA", Amount: 300_000},
	}
	for _, d := range deposits {
		d := d
		_, err := svc.Deposit(ctx, user.ID, &d)
		require.NoError(t, err)
	}
	// Another member's deposit must not leak into the balance.
	_, err := svc.Deposit(ctx, other.ID, &DepositInput{Type: "SUKARELA", Amount: 999_000})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), balance.Pokok)
	assert.Equal(t, int64(100_000), balance.Wajib)
	assert.Equal(t, int64(300_000), balance.Sukarela)
	assert.Equal(t, int64(500_000), balance.Total)

	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)

	t.Run("empty balance is all zeros", func(t *testing.T) {
		fresh := createTestMember(t, userRepo)
		balance, err := svc.Balance(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Zero(t, balance.Total)
	})
}
