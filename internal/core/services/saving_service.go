package services

import (
	"context"
	"fmt"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/core/domain"
)

// Saving service errors
var (
	ErrInvalidSavingType   = fmt.Errorf("unknown saving type: %w", domain.ErrValidation)
	ErrInvalidSavingAmount = fmt.Errorf("saving amount must be a positive integer: %w", domain.ErrValidation)
)

// SavingService handles member savings deposits and balances
type SavingService struct {
	savingRepo repositories.SavingRepository
}

// NewSavingService creates a new saving service
func NewSavingService(savingRepo repositories.SavingRepository) *SavingService {
	return &SavingService{savingRepo: savingRepo}
}

// DepositInput represents a savings deposit
type DepositInput struct {
	Type   string `json:"type" validate:"required"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Note   string `json:"note,omitempty"`
}

// Deposit records a deposit of the given type for a member
func (s *SavingService) Deposit(ctx context.Context, userID uint, input *DepositInput) (*models.Saving, error) {
	savingType, err := domain.ParseSavingType(input.Type)
	if err != nil {
		return nil, ErrInvalidSavingType
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidSavingAmount
	}

	saving := &models.Saving{
		UserID: userID,
		Type:   string(savingType),
		Amount: input.Amount,
		Note:   input.Note,
	}
	if err := s.savingRepo.Create(ctx, saving); err != nil {
		return nil, err
	}
	return saving, nil
}

// History lists a member's deposits, newest first
func (s *SavingService) History(ctx context.Context, userID uint) ([]*models.Saving, error) {
	return s.savingRepo.ListByUser(ctx, userID)
}

// SavingBalance represents a member's per-type savings totals
type SavingBalance struct {
	Pokok    int64 `json:"pokok"`
	Wajib    int64 `json:"wajib"`
	Sukarela int64 `json:"sukarela"`
	Total    int64 `json:"total"`
}

// Balance sums a member's deposits per saving type
func (s *SavingService) Balance(ctx context.Context, userID uint) (*SavingBalance, error) {
	totals, err := s.savingRepo.TotalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance := &SavingBalance{
		Pokok:    totals[domain.SavingPokok],
		Wajib:    totals[domain.SavingWajib],
		Sukarela: totals[domain.SavingSukarela],
	}
	balance.Total = balance.Pokok + balance.Wajib + balance.Sukarela
	return balance, nil
}
