package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/core/domain"

	"gorm.io/gorm"
)

// Loan service errors
var (
	ErrLoanNotFound     = fmt.Errorf("loan not found: %w", domain.ErrNotFound)
	ErrLoanNotPending   = fmt.Errorf("loan is not awaiting review: %w", domain.ErrInvalidState)
	ErrLoanNotActive    = fmt.Errorf("loan is not active: %w", domain.ErrInvalidState)
	ErrPaymentConflict  = fmt.Errorf("payment conflicts with a concurrent update: %w", domain.ErrConflict)
	ErrInvalidAmount    = fmt.Errorf("amount must be a positive integer: %w", domain.ErrValidation)
	ErrInvalidTenor     = fmt.Errorf("tenor must be a positive number of months: %w", domain.ErrValidation)
	ErrInvalidRate      = fmt.Errorf("rate percent must not be negative: %w", domain.ErrValidation)
	ErrMissingApplicant = fmt.Errorf("full name, NIK, phone, address and purpose are required: %w", domain.ErrValidation)
)

// LoanService handles the loan lifecycle and the balance ledger
type LoanService struct {
	loanRepo      repositories.LoanRepository
	paymentRepo   repositories.PaymentRepository
	userRepo      repositories.UserRepository
	notifyService *NotificationService
	defaultRate   float64
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	notifyService *NotificationService,
	defaultRate float64,
) *LoanService {
	return &LoanService{
		loanRepo:      loanRepo,
		paymentRepo:   paymentRepo,
		userRepo:      userRepo,
		notifyService: notifyService,
		defaultRate:   defaultRate,
	}
}

// ApplyLoanInput represents a loan application
type ApplyLoanInput struct {
	FullName  string `json:"full_name" validate:"required"`
	NIK       string `json:"nik" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Tenor     int    `json:"tenor" validate:"required,gt=0"`
	Purpose   string `json:"purpose" validate:"required"`
	SignName  string `json:"sign_name,omitempty"`
	SignDate  string `json:"sign_date,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Apply submits a new loan application in awaiting-review status
func (s *LoanService) Apply(ctx context.Context, userID uint, input *ApplyLoanInput) (*models.Loan, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Tenor <= 0 {
		return nil, ErrInvalidTenor
	}
	if strings.TrimSpace(input.FullName) == "" || strings.TrimSpace(input.NIK) == "" ||
		strings.TrimSpace(input.Phone) == "" || strings.TrimSpace(input.Address) == "" ||
		strings.TrimSpace(input.Purpose) == "" {
		return nil, ErrMissingApplicant
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	loan := &models.Loan{
		UserID:    userID,
		MemberNo:  user.MemberNo,
		FullName:  input.FullName,
		NIK:       input.NIK,
		Phone:     input.Phone,
		Address:   input.Address,
		Amount:    input.Amount,
		Tenor:     input.Tenor,
		Purpose:   input.Purpose,
		SignName:  input.SignName,
		SignDate:  input.SignDate,
		Signature: input.Signature,
		Status:    string(domain.LoanPending),
		// An application's remaining balance is its full principal until
		// payments start.
		Outstanding: input.Amount,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	s.notifyService.NotifyLoanSubmitted(loan.ID, user.MemberNo, loan.Amount)
	return loan, nil
}

// ApproveLoanInput represents the terms set at approval time
type ApproveLoanInput struct {
	RatePercent float64 `json:"rate_percent" validate:"gte=0"`
	AdminFee    int64   `json:"admin_fee" validate:"gte=0"`
}

// Approve moves an awaiting-review loan to approved, fixing its terms and
// re-asserting the outstanding balance at the principal amount. The
// transition is a conditional update: if the loan already left the
// awaiting-review status, nothing is written.
func (s *LoanService) Approve(ctx context.Context, loanID uint, input *ApproveLoanInput) (*models.Loan, error) {
	if input.RatePercent < 0 {
		return nil, ErrInvalidRate
	}
	if input.AdminFee < 0 {
		return nil, ErrInvalidAmount
	}

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	rate := input.RatePercent
	monthly := domain.Installment(loan.Amount, rate, loan.Tenor)
	now := time.Now()

	updated, err := s.loanRepo.UpdateStatusIf(ctx, loanID, domain.LoanPending, map[string]interface{}{
		"status":       string(domain.LoanApproved),
		"rate_percent": rate,
		"admin_fee":    input.AdminFee,
		"monthly":      monthly,
		"approved_at":  now,
		"outstanding":  loan.Amount,
	})
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost the race: someone else already decided this application.
		return nil, ErrLoanNotPending
	}

	loan, err = s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	s.notifyService.NotifyLoanDecision(loan.UserID, loan.ID, domain.LoanApproved)
	return loan, nil
}

// Reject moves an awaiting-review loan to rejected
func (s *LoanService) Reject(ctx context.Context, loanID uint) (*models.Loan, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	updated, err := s.loanRepo.UpdateStatusIf(ctx, loanID, domain.LoanPending, map[string]interface{}{
		"status": string(domain.LoanRejected),
	})
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrLoanNotPending
	}

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	s.notifyService.NotifyLoanDecision(loan.UserID, loan.ID, domain.LoanRejected)
	return loan, nil
}

// PayInput represents an installment payment
type PayInput struct {
	Amount  int64  `json:"amount" validate:"required,gt=0"`
	Channel string `json:"channel,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Pay records a payment against an active loan and reduces its outstanding
// balance. Overpayment clamps the balance at zero; the paid amount is still
// recorded as given. When the balance reaches zero the loan closes in the
// same write. A concurrent payment that invalidates the observed balance
// makes this call fail instead of double-applying.
func (s *LoanService) Pay(ctx context.Context, userID uint, loanID uint, input *PayInput) (*models.Loan, *models.Payment, error) {
	if input.Amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	if loan.UserID != userID {
		// Do not reveal other members' loans.
		return nil, nil, ErrLoanNotFound
	}
	if loan.Status != string(domain.LoanApproved) {
		return nil, nil, ErrLoanNotActive
	}

	before := loan.Outstanding
	after := domain.Outstanding(before, input.Amount)
	newStatus := domain.LoanApproved
	if after == 0 {
		newStatus = domain.LoanClosed
	}

	channel := input.Channel
	if channel == "" {
		channel = "QRIS"
	}

	payment := &models.Payment{
		LoanID:  loanID,
		UserID:  userID,
		Amount:  input.Amount,
		PaidAt:  time.Now(),
		Channel: channel,
		Note:    input.Note,
	}

	settled, err := s.loanRepo.SettlePayment(ctx, loanID, before, after, newStatus, payment)
	if err != nil {
		return nil, nil, err
	}
	if !settled {
		loan, err = s.getLoan(ctx, loanID)
		if err != nil {
			return nil, nil, err
		}
		if loan.Status != string(domain.LoanApproved) {
			return nil, nil, ErrLoanNotActive
		}
		return nil, nil, ErrPaymentConflict
	}

	loan.Outstanding = after
	loan.Status = string(newStatus)

	s.notifyService.NotifyPaymentReceived(userID, loanID, input.Amount, after)
	if newStatus == domain.LoanClosed {
		s.notifyService.NotifyLoanClosed(userID, loanID)
	}
	return loan, payment, nil
}

// GetByID gets a loan, scoped to its owner unless the caller is an admin
func (s *LoanService) GetByID(ctx context.Context, loanID uint, userID uint, role domain.Role) (*models.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && loan.UserID != userID {
		return nil, ErrLoanNotFound
	}
	return loan, nil
}

// ListMine lists the caller's loans
func (s *LoanService) ListMine(ctx context.Context, userID uint) ([]*models.Loan, error) {
	return s.loanRepo.ListByUser(ctx, userID)
}

// ListAll lists all loans with pagination (admin)
func (s *LoanService) ListAll(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	return s.loanRepo.List(ctx, offset, limit)
}

// ListPending lists loans awaiting review (admin)
func (s *LoanService) ListPending(ctx context.Context) ([]*models.Loan, error) {
	return s.loanRepo.ListByStatus(ctx, domain.LoanPending)
}

// ListPayments lists a loan's payments, scoped like GetByID
func (s *LoanService) ListPayments(ctx context.Context, loanID uint, userID uint, role domain.Role) ([]*models.Payment, error) {
	if _, err := s.GetByID(ctx, loanID, userID, role); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByLoan(ctx, loanID)
}

// ListMyPayments lists all of the caller's payments across loans
func (s *LoanService) ListMyPayments(ctx context.Context, userID uint) ([]*models.Payment, error) {
	return s.paymentRepo.ListByUser(ctx, userID)
}

// Estimate computes an illustrative monthly installment without touching any
// loan. A zero rate falls back to the configured default.
func (s *LoanService) Estimate(amount int64, tenor int, ratePercent float64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if tenor <= 0 {
		return 0, ErrInvalidTenor
	}
	if ratePercent < 0 {
		return 0, ErrInvalidRate
	}
	if ratePercent == 0 {
		ratePercent = s.defaultRate
	}
	return domain.Installment(amount, ratePercent, tenor), nil
}

func (s *LoanService) getLoan(ctx context.Context, loanID uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}
