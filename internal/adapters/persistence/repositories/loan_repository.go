package repositories

import (
	"context"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository over gorm
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ListByUser lists a member's loans, newest first
func (r *loanRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&loans).Error
	return loans, err
}

// List lists all loans with pagination, newest first
func (r *loanRepository) List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListByStatus lists loans in a given status
func (r *loanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at DESC, id DESC").
		Find(&loans).Error
	return loans, err
}

// UpdateStatusIf runs "UPDATE loans SET ... WHERE id = ? AND status = ?" and
// reports whether exactly one row matched. RowsAffected = 0 means the loan is
// gone or a concurrent transition got there first; the caller re-reads and
// decides.
func (r *loanRepository) UpdateStatusIf(ctx context.Context, id uint, expected domain.LoanStatus, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SettlePayment appends the payment row and updates the loan balance in one
// transaction. The loan update is guarded on (id, APPROVED, outstanding =
// before): a zero-row match rolls everything back, so no payment is ever
// recorded against a stale balance and no state is observable where the
// balance hit zero but the status is still APPROVED.
func (r *loanRepository) SettlePayment(ctx context.Context, loanID uint, before, after int64, newStatus domain.LoanStatus, payment *models.Payment) (bool, error) {
	matched := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Loan{}).
			Where("id = ? AND status = ? AND outstanding = ?", loanID, string(domain.LoanApproved), before).
			Updates(map[string]interface{}{
				"outstanding": after,
				"status":      string(newStatus),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil // lost the race; commit nothing
		}
		matched = true
		return tx.Create(payment).Error
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

// paymentRepository implements PaymentRepository over gorm
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// ListByLoan lists a loan's payments, newest first
func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("paid_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

// ListByUser lists a member's payments, newest first
func (r *paymentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("paid_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}
