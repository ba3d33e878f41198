// Package memory provides an in-memory implementation of the loan storage
// contract. It backs demo and offline use and the lifecycle test suite, so
// the same rule set runs against both stores instead of two divergent ones.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/core/domain"

	"gorm.io/gorm"
)

// Store implements repositories.LoanRepository with a single mutex standing
// in for the database's transaction boundary: every read-modify-write cycle
// holds it. Payments() exposes the payment side of the same data.
type Store struct {
	mu sync.Mutex

	loans    map[uint]models.Loan
	payments []models.Payment

	nextLoanID    uint
	nextPaymentID uint
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		loans:         make(map[uint]models.Loan),
		nextLoanID:    1,
		nextPaymentID: 1,
	}
}

// Create creates a new loan
func (s *Store) Create(_ context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan.ID = s.nextLoanID
	s.nextLoanID++
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now()
	}
	s.loans[loan.ID] = *loan
	return nil
}

// GetByID gets a loan by ID
func (s *Store) GetByID(_ context.Context, id uint) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &loan, nil
}

// ListByUser lists a member's loans, newest first
func (s *Store) ListByUser(_ context.Context, userID uint) ([]*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loans []*models.Loan
	for _, l := range s.loans {
		if l.UserID == userID {
			loan := l
			loans = append(loans, &loan)
		}
	}
	sortLoans(loans)
	return loans, nil
}

// List lists all loans with pagination, newest first
func (s *Store) List(_ context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loans []*models.Loan
	for _, l := range s.loans {
		loan := l
		loans = append(loans, &loan)
	}
	sortLoans(loans)

	total := int64(len(loans))
	if offset >= len(loans) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(loans) {
		end = len(loans)
	}
	return loans[offset:end], total, nil
}

// ListByStatus lists loans in a given status
func (s *Store) ListByStatus(_ context.Context, status domain.LoanStatus) ([]*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loans []*models.Loan
	for _, l := range s.loans {
		if l.Status == string(status) {
			loan := l
			loans = append(loans, &loan)
		}
	}
	sortLoans(loans)
	return loans, nil
}

// UpdateStatusIf applies updates only when the loan's current status equals
// expected, mirroring the conditional UPDATE of the gorm store.
func (s *Store) UpdateStatusIf(_ context.Context, id uint, expected domain.LoanStatus, updates map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[id]
	if !ok || loan.Status != string(expected) {
		return false, nil
	}

	for k, v := range updates {
		switch k {
		case "status":
			loan.Status = v.(string)
		case "rate_percent":
			rate := v.(float64)
			loan.RatePercent = &rate
		case "admin_fee":
			fee := v.(int64)
			loan.AdminFee = &fee
		case "monthly":
			monthly := v.(int64)
			loan.Monthly = &monthly
		case "approved_at":
			at := v.(time.Time)
			loan.ApprovedAt = &at
		case "outstanding":
			loan.Outstanding = v.(int64)
		}
	}
	loan.UpdatedAt = time.Now()
	s.loans[id] = loan
	return true, nil
}

// SettlePayment appends the payment and updates the balance under the same
// lock, matching the transactional guarantee of the gorm store.
func (s *Store) SettlePayment(_ context.Context, loanID uint, before, after int64, newStatus domain.LoanStatus, payment *models.Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[loanID]
	if !ok || loan.Status != string(domain.LoanApproved) || loan.Outstanding != before {
		return false, nil
	}

	loan.Outstanding = after
	loan.Status = string(newStatus)
	loan.UpdatedAt = time.Now()
	s.loans[loanID] = loan

	payment.ID = s.nextPaymentID
	s.nextPaymentID++
	s.payments = append(s.payments, *payment)
	return true, nil
}

// PaymentStore is the payment view over a Store. It implements
// repositories.PaymentRepository against the same underlying data.
type PaymentStore struct {
	store *Store
}

// Payments returns the payment view of the store
func (s *Store) Payments() *PaymentStore {
	return &PaymentStore{store: s}
}

// ListByLoan lists a loan's payments, newest first
func (p *PaymentStore) ListByLoan(_ context.Context, loanID uint) ([]*models.Payment, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	var payments []*models.Payment
	for i := len(p.store.payments) - 1; i >= 0; i-- {
		if p.store.payments[i].LoanID == loanID {
			pay := p.store.payments[i]
			payments = append(payments, &pay)
		}
	}
	return payments, nil
}

// ListByUser lists a member's payments, newest first
func (p *PaymentStore) ListByUser(_ context.Context, userID uint) ([]*models.Payment, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	var payments []*models.Payment
	for i := len(p.store.payments) - 1; i >= 0; i-- {
		if p.store.payments[i].UserID == userID {
			pay := p.store.payments[i]
			payments = append(payments, &pay)
		}
	}
	return payments, nil
}

func sortLoans(loans []*models.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		if loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].ID > loans[j].ID
		}
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})
}
