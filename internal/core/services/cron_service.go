package services

import (
	"context"
	"log"
	"time"

	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// CronService runs the scheduled jobs: the morning installment reminder and
// the expired refresh token purge.
type CronService struct {
	cron             *cron.Cron
	loanRepo         repositories.LoanRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	notifyService    *NotificationService
}

// NewCronService creates a new cron service
func NewCronService(
	loanRepo repositories.LoanRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	notifyService *NotificationService,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		loanRepo:         loanRepo,
		refreshTokenRepo: refreshTokenRepo,
		notifyService:    notifyService,
	}
}

// Start registers and starts the scheduled jobs
func (s *CronService) Start() error {
	// Installment reminder at 08:30 every day
	if _, err := s.cron.AddFunc("30 8 * * *", s.remindInstallments); err != nil {
		return err
	}

	// Purge expired refresh tokens hourly
	if _, err := s.cron.AddFunc("@hourly", s.purgeExpiredTokens); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("✅ Cron jobs started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron jobs stopped")
}

// remindInstallments notifies every member with an active loan about this
// month's installment
func (s *CronService) remindInstallments() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loans, err := s.loanRepo.ListByStatus(ctx, domain.LoanApproved)
	if err != nil {
		log.Printf("❌ Installment reminder query failed: %v", err)
		return
	}

	for _, loan := range loans {
		monthly := int64(0)
		if loan.Monthly != nil {
			monthly = *loan.Monthly
		}
		s.notifyService.NotifyInstallmentDue(loan.UserID, loan.ID, monthly)
	}
	log.Printf("📅 Installment reminders sent for %d active loans", len(loans))
}

// purgeExpiredTokens removes refresh tokens past their expiry
func (s *CronService) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.refreshTokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Refresh token purge failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("🧹 Purged %d expired refresh tokens", deleted)
	}
}
