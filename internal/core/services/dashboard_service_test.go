package services

import (
	"context"
	"testing"
	"time"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedDashboardFixtures(t *testing.T, db *gorm.DB) *models.User {
	userRepo := repositories.NewUserRepository(db)
	member := createTestMember(t, userRepo)

	rate := 2.0
	monthly := int64(510_000)
	now := time.Now()
	loans := []*models.Loan{
		{
			UserID: member.ID, MemberNo: member.MemberNo, FullName: member.Name,
			NIK: member.NIK, Phone: "0812", Address: "Jl. Merdeka",
			Purpose: "modal usaha", Amount: 3_000_000, Tenor: 6,
			Status: string(domain.LoanApproved), RatePercent: &rate,
			Monthly: &monthly, Outstanding: 2_490_000, ApprovedAt: &now,
		},
		{
			UserID: member.ID, MemberNo: member.MemberNo, FullName: member.Name,
			NIK: member.NIK, Phone: "0812", Address: "Jl. Merdeka",
			Purpose: "renovasi", Amount: 1_000_000, Tenor: 3,
			Status: string(domain.LoanPending), Outstanding: 1_000_000,
		},
	}
	for _, loan := range loans {
		require.NoError(t, db.Create(loan).Error)
	}

	require.NoError(t, db.Create(&models.Payment{
		LoanID: loans[0].ID, UserID: member.ID, Amount: 510_000,
		PaidAt: now, Channel: "QRIS",
	}).Error)

	for _, saving := range []*models.Saving{
		{UserID: member.ID, Type: string(domain.SavingPokok), Amount: 100_000},
		{UserID: member.ID, Type: string(domain.SavingWajib), Amount: 50_000},
		{UserID: member.ID, Type: string(domain.SavingWajib), Amount: 50_000},
	} {
		require.NoError(t, db.Create(saving).Error)
	}

	return member
}

func TestDashboardService_Member(t *testing.T) {
	db := setupServiceDB(t)
	member := seedDashboardFixtures(t, db)
	svc := NewDashboardService(db)

	data, err := svc.GetMemberDashboard(context.Background(), member.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), data.TotalLoans)
	assert.Equal(t, int64(1), data.ApprovedLoans)
	assert.Equal(t, int64(1), data.PendingLoans)
	assert.Equal(t, int64(2_490_000), data.Outstanding)
	assert.Equal(t, int64(510_000), data.TotalPaid)
	assert.Equal(t, int64(3), data.DepositCount)
	assert.Equal(t, int64(100_000), data.Savings.Pokok)
	assert.Equal(t, int64(100_000), data.Savings.Wajib)
	assert.Equal(t, int64(200_000), data.Savings.Total)
	assert.Len(t, data.Loans, 2)
	require.Len(t, data.RecentPayments, 1)
	assert.Equal(t, member.MemberNo, data.RecentPayments[0].MemberNo)

	t.Run("other member sees nothing", func(t *testing.T) {
		other := createTestMember(t, repositories.NewUserRepository(db))
		data, err := svc.GetMemberDashboard(context.Background(), other.ID)
		require.NoError(t, err)
		assert.Zero(t, data.TotalLoans)
		assert.Zero(t, data.TotalPaid)
		assert.Zero(t, data.Savings.Total)
	})
}

func TestDashboardService_Admin(t *testing.T) {
	db := setupServiceDB(t)
	seedDashboardFixtures(t, db)
	svc := NewDashboardService(db)

	data, err := svc.GetAdminDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), data.TotalMembers)
	assert.Equal(t, int64(2), data.TotalLoans)
	assert.Equal(t, int64(1), data.PendingLoans)
	assert.Equal(t, int64(1), data.ApprovedLoans)
	assert.Equal(t, int64(3_000_000), data.DisbursedAmount)
	assert.Equal(t, int64(2_490_000), data.OutstandingTotal)
	assert.Equal(t, int64(100_000), data.Savings.Pokok)
	assert.Equal(t, int64(100_000), data.Savings.Wajib)
	assert.Equal(t, int64(200_000), data.Savings.Total)
	assert.Len(t, data.RecentLoans, 2)
	assert.Len(t, data.RecentPayments, 1)
}
