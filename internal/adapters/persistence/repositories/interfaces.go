package repositories

import (
	"context"
	"time"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/core/domain"
)

// LoanRepository is the storage contract the loan lifecycle core is compiled
// against. Two implementations exist: the gorm-backed one in this package and
// the in-memory one in the memory package.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Loan, error)
	List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error)
	ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*models.Loan, error)

	// UpdateStatusIf performs a conditional update ("... where id = ? and
	// status = ?") and reports whether a row matched, so callers can detect
	// a lost race instead of silently overwriting a concurrent transition.
	UpdateStatusIf(ctx context.Context, id uint, expected domain.LoanStatus, updates map[string]interface{}) (bool, error)

	// SettlePayment appends the payment row and moves the loan's
	// outstanding balance from before to after, flipping the status to
	// newStatus, all in one transaction guarded by a conditional update on
	// (id, status=APPROVED, outstanding=before). Returns false without
	// side effects when the guard does not match.
	SettlePayment(ctx context.Context, loanID uint, before, after int64, newStatus domain.LoanStatus, payment *models.Payment) (bool, error)
}

// PaymentRepository reads the immutable payment ledger. Rows are only ever
// written through LoanRepository.SettlePayment.
type PaymentRepository interface {
	ListByLoan(ctx context.Context, loanID uint) ([]*models.Payment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error)
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByLogin resolves a member number or NIK to a user.
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNIK(ctx context.Context, nik string) (bool, error)
	ExistsByMemberNo(ctx context.Context, memberNo string) (bool, error)
}

// SavingRepository defines the append-only savings store.
type SavingRepository interface {
	Create(ctx context.Context, saving *models.Saving) error
	ListByUser(ctx context.Context, userID uint) ([]*models.Saving, error)
	TotalsByUser(ctx context.Context, userID uint) (map[domain.SavingType]int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
