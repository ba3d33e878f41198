package services

import (
	"context"
	"time"

	"koperasi-bci/internal/core/domain"

	"gorm.io/gorm"
)

// DashboardService handles dashboard aggregations
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// Membership Statistics
	TotalMembers int64 `json:"total_members"`
	TotalAdmins  int64 `json:"total_admins"`
	NewThisMonth int64 `json:"new_this_month"`

	// Loan Statistics
	TotalLoans       int64 `json:"total_loans"`
	PendingLoans     int64 `json:"pending_loans"`
	ApprovedLoans    int64 `json:"approved_loans"`
	RejectedLoans    int64 `json:"rejected_loans"`
	ClosedLoans      int64 `json:"closed_loans"`
	DisbursedAmount  int64 `json:"disbursed_amount"`
	OutstandingTotal int64 `json:"outstanding_total"`

	// Payment Statistics
	PaymentsThisMonth int64 `json:"payments_this_month"`
	AmountThisMonth   int64 `json:"amount_this_month"`

	// Savings Statistics
	Savings SavingBalance `json:"savings"`

	// Recent Activity
	RecentLoans    []LoanSummary    `json:"recent_loans"`
	RecentPayments []PaymentSummary `json:"recent_payments"`
}

// LoanSummary represents a loan row on the dashboard
type LoanSummary struct {
	ID            uint      `json:"id"`
	MemberNo      string    `json:"member_no"`
	FullName      string    `json:"full_name"`
	Amount        int64     `json:"amount"`
	Tenor         int       `json:"tenor"`
	Status        string    `json:"status"`
	StatusDisplay string    `json:"status_display"`
	Outstanding   int64     `json:"outstanding"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentSummary represents a payment row on the dashboard
type PaymentSummary struct {
	ID       uint      `json:"id"`
	LoanID   uint      `json:"loan_id"`
	MemberNo string    `json:"member_no"`
	Amount   int64     `json:"amount"`
	Channel  string    `json:"channel"`
	PaidAt   time.Time `json:"paid_at"`
}

// GetAdminDashboard returns cooperative-wide statistics
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}

	// Membership counts
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", string(domain.RoleMember)).Count(&data.TotalMembers)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", string(domain.RoleAdmin)).Count(&data.TotalAdmins)

	startOfMonth := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("users").
		Where("created_at >= ? AND deleted_at IS NULL", startOfMonth).
		Count(&data.NewThisMonth)

	// Loan counts by status
	s.db.WithContext(ctx).Table("loans").Where("deleted_at IS NULL").Count(&data.TotalLoans)
	s.db.WithContext(ctx).Table("loans").Where("status = ? AND deleted_at IS NULL", string(domain.LoanPending)).Count(&data.PendingLoans)
	s.db.WithContext(ctx).Table("loans").Where("status = ? AND deleted_at IS NULL", string(domain.LoanApproved)).Count(&data.ApprovedLoans)
	s.db.WithContext(ctx).Table("loans").Where("status = ? AND deleted_at IS NULL", string(domain.LoanRejected)).Count(&data.RejectedLoans)
	s.db.WithContext(ctx).Table("loans").Where("status = ? AND deleted_at IS NULL", string(domain.LoanClosed)).Count(&data.ClosedLoans)

	// Disbursed principal (approved and closed loans)
	s.db.WithContext(ctx).Table("loans").
		Where("status IN ? AND deleted_at IS NULL", []string{string(domain.LoanApproved), string(domain.LoanClosed)}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.DisbursedAmount)

	// Outstanding across active loans
	s.db.WithContext(ctx).Table("loans").
		Where("status = ? AND deleted_at IS NULL", string(domain.LoanApproved)).
		Select("COALESCE(SUM(outstanding), 0)").
		Scan(&data.OutstandingTotal)

	// This month's payments
	s.db.WithContext(ctx).Table("payments").
		Where("paid_at >= ?", startOfMonth).
		Count(&data.PaymentsThisMonth)

	s.db.WithContext(ctx).Table("payments").
		Where("paid_at >= ?", startOfMonth).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.AmountThisMonth)

	// Savings across all members, per type
	data.Savings = sumSavings(s.db.WithContext(ctx).Table("savings"))

	// Recent loans
	var recentLoans []struct {
		ID          uint
		MemberNo    string
		FullName    string
		Amount      int64
		Tenor       int
		Status      string
		Outstanding int64
		CreatedAt   time.Time
	}
	s.db.WithContext(ctx).Table("loans").
		Select("id, member_no, full_name, amount, tenor, status, outstanding, created_at").
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Limit(10).
		Scan(&recentLoans)

	data.RecentLoans = make([]LoanSummary, len(recentLoans))
	for i, l := range recentLoans {
		data.RecentLoans[i] = LoanSummary{
			ID:            l.ID,
			MemberNo:      l.MemberNo,
			FullName:      l.FullName,
			Amount:        l.Amount,
			Tenor:         l.Tenor,
			Status:        l.Status,
			StatusDisplay: domain.LoanStatus(l.Status).Display(),
			Outstanding:   l.Outstanding,
			CreatedAt:     l.CreatedAt,
		}
	}

	// Recent payments
	var recentPayments []struct {
		ID       uint
		LoanID   uint
		MemberNo string
		Amount   int64
		Channel  string
		PaidAt   time.Time
	}
	s.db.WithContext(ctx).Table("payments").
		Select("payments.id, payments.loan_id, loans.member_no, payments.amount, payments.channel, payments.paid_at").
		Joins("LEFT JOIN loans ON payments.loan_id = loans.id").
		Order("payments.paid_at DESC").
		Limit(10).
		Scan(&recentPayments)

	data.RecentPayments = make([]PaymentSummary, len(recentPayments))
	for i, p := range recentPayments {
		data.RecentPayments[i] = PaymentSummary{
			ID:       p.ID,
			LoanID:   p.LoanID,
			MemberNo: p.MemberNo,
			Amount:   p.Amount,
			Channel:  p.Channel,
			PaidAt:   p.PaidAt,
		}
	}

	return data, nil
}

// ============================================================
// Member Dashboard
// ============================================================

// MemberDashboardData represents a member's own dashboard
type MemberDashboardData struct {
	// My Loans Summary
	TotalLoans    int64 `json:"total_loans"`
	PendingLoans  int64 `json:"pending_loans"`
	ApprovedLoans int64 `json:"approved_loans"`
	ClosedLoans   int64 `json:"closed_loans"`
	Outstanding   int64 `json:"outstanding"`

	// My Payments
	TotalPaid    int64 `json:"total_paid"`
	DepositCount int64 `json:"deposit_count"`

	// My Savings
	Savings SavingBalance `json:"savings"`

	// My Loans List
	Loans []LoanSummary `json:"loans"`

	// Recent Payments
	RecentPayments []PaymentSummary `json:"recent_payments"`
}

// sumSavings groups a savings query into per-type totals
func sumSavings(query *gorm.DB) SavingBalance {
	var rows []struct {
		Type  string
		Total int64
	}
	query.Select("type, COALESCE(SUM(amount), 0) as total").
		Group("type").
		Scan(&rows)

	var balance SavingBalance
	for _, row := range rows {
		switch domain.SavingType(row.Type) {
		case domain.SavingPokok:
			balance.Pokok = row.Total
		case domain.SavingWajib:
			balance.Wajib = row.Total
		case domain.SavingSukarela:
			balance.Sukarela = row.Total
		}
	}
	balance.Total = balance.Pokok + balance.Wajib + balance.Sukarela
	return balance
}

// GetMemberDashboard returns a member's own statistics
func (s *DashboardService) GetMemberDashboard(ctx context.Context, userID uint) (*MemberDashboardData, error) {
	data := &MemberDashboardData{}

	// My loan counts
	s.db.WithContext(ctx).Table("loans").Where("user_id = ? AND deleted_at IS NULL", userID).Count(&data.TotalLoans)
	s.db.WithContext(ctx).Table("loans").Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, string(domain.LoanPending)).Count(&data.PendingLoans)
	s.db.WithContext(ctx).Table("loans").Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, string(domain.LoanApproved)).Count(&data.ApprovedLoans)
	s.db.WithContext(ctx).Table("loans").Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, string(domain.LoanClosed)).Count(&data.ClosedLoans)

	s.db.WithContext(ctx).Table("loans").
		Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, string(domain.LoanApproved)).
		Select("COALESCE(SUM(outstanding), 0)").
		Scan(&data.Outstanding)

	// My payments
	s.db.WithContext(ctx).Table("payments").
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.TotalPaid)

	// My savings per type
	data.Savings = sumSavings(s.db.WithContext(ctx).Table("savings").Where("user_id = ?", userID))
	s.db.WithContext(ctx).Table("savings").
		Where("user_id = ?", userID).
		Count(&data.DepositCount)

	// My loans
	var myLoans []struct {
		ID          uint
		MemberNo    string
		FullName    string
		Amount      int64
		Tenor       int
		Status      string
		Outstanding int64
		CreatedAt   time.Time
	}
	s.db.WithContext(ctx).Table("loans").
		Select("id, member_no, full_name, amount, tenor, status, outstanding, created_at").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		Scan(&myLoans)

	data.Loans = make([]LoanSummary, len(myLoans))
	for i, l := range myLoans {
		data.Loans[i] = LoanSummary{
			ID:            l.ID,
			MemberNo:      l.MemberNo,
			FullName:      l.FullName,
			Amount:        l.Amount,
			Tenor:         l.Tenor,
			Status:        l.Status,
			StatusDisplay: domain.LoanStatus(l.Status).Display(),
			Outstanding:   l.Outstanding,
			CreatedAt:     l.CreatedAt,
		}
	}

	// My recent payments
	var myPayments []struct {
		ID       uint
		LoanID   uint
		MemberNo string
		Amount   int64
		Channel  string
		PaidAt   time.Time
	}
	s.db.WithContext(ctx).Table("payments").
		Select("payments.id, payments.loan_id, loans.member_no, payments.amount, payments.channel, payments.paid_at").
		Joins("LEFT JOIN loans ON payments.loan_id = loans.id").
		Where("payments.user_id = ?", userID).
		Order("payments.paid_at DESC").
		Limit(10).
		Scan(&myPayments)

	data.RecentPayments = make([]PaymentSummary, len(myPayments))
	for i, p := range myPayments {
		data.RecentPayments[i] = PaymentSummary{
			ID:       p.ID,
			LoanID:   p.LoanID,
			MemberNo: p.MemberNo,
			Amount:   p.Amount,
			Channel:  p.Channel,
			PaidAt:   p.PaidAt,
		}
	}

	return data, nil
}
