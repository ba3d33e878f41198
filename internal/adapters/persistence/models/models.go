package models

import (
	"time"

	"koperasi-bci/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Membership & Auth Tables
// ============================================================

// User represents users table
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MemberNo   string         `gorm:"uniqueIndex;size:20;not null" json:"member_no"`
	NIK        string         `gorm:"uniqueIndex;size:20;not null" json:"nik"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone      string         `gorm:"size:30" json:"phone"`
	Address    string         `gorm:"type:text" json:"address"`
	Password   string         `gorm:"size:255;not null" json:"-"`
	Role       string         `gorm:"size:20;default:'MEMBER'" json:"role"`
	Collateral string         `gorm:"type:text" json:"collateral"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID         uint      `json:"id"`
	MemberNo   string    `json:"member_no"`
	NIK        string    `json:"nik"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Collateral string    `json:"collateral,omitempty"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"joined_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		MemberNo:   u.MemberNo,
		NIK:        u.NIK,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Address:    u.Address,
		Collateral: u.Collateral,
		Role:       u.Role,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Loan & Ledger Tables
// ============================================================

// Loan is the application-and-contract record. Amounts are whole IDR units.
// Approval metadata (rate, admin fee, monthly, approved_at) stays NULL until
// approval and is never rewritten afterwards.
type Loan struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	MemberNo    string         `gorm:"size:20;index" json:"member_no"`
	FullName    string         `gorm:"size:100;not null" json:"full_name"`
	NIK         string         `gorm:"size:20;not null" json:"nik"`
	Phone       string         `gorm:"size:30;not null" json:"phone"`
	Address     string         `gorm:"type:text;not null" json:"address"`
	Amount      int64          `gorm:"not null" json:"amount"`
	Tenor       int            `gorm:"not null" json:"tenor"`
	Purpose     string         `gorm:"size:200;not null" json:"purpose"`
	Desc        string         `gorm:"type:text" json:"desc"`
	Collateral  string         `gorm:"type:text" json:"collateral"`
	SignName    string         `gorm:"size:100" json:"sign_name"`
	SignDate    string         `gorm:"size:20" json:"sign_date"`
	Signature   string         `gorm:"type:text" json:"-"`
	Status      string         `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	RatePercent *float64       `gorm:"type:decimal(5,2)" json:"rate"`
	AdminFee    *int64         `json:"admin_fee"`
	Monthly     *int64         `json:"monthly"`
	Outstanding int64          `gorm:"not null" json:"outstanding"`
	ApprovedAt  *time.Time     `json:"approved_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Payments []Payment `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// LoanResponse DTO. Status carries the member-facing display form alongside
// the canonical one.
type LoanResponse struct {
	ID            uint       `json:"id"`
	UserID        uint       `json:"user_id"`
	MemberNo      string     `json:"member_no"`
	FullName      string     `json:"full_name"`
	Amount        int64      `json:"amount"`
	Tenor         int        `json:"tenor"`
	Purpose       string     `json:"purpose"`
	Desc          string     `json:"desc,omitempty"`
	Collateral    string     `json:"collateral,omitempty"`
	Status        string     `json:"status"`
	StatusDisplay string     `json:"status_display"`
	RatePercent   *float64   `json:"rate"`
	AdminFee      *int64     `json:"admin_fee"`
	Monthly       *int64     `json:"monthly"`
	Outstanding   int64      `json:"outstanding"`
	ApprovedAt    *time.Time `json:"approved_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (l *Loan) ToResponse() *LoanResponse {
	return &LoanResponse{
		ID:            l.ID,
		UserID:        l.UserID,
		MemberNo:      l.MemberNo,
		FullName:      l.FullName,
		Amount:        l.Amount,
		Tenor:         l.Tenor,
		Purpose:       l.Purpose,
		Desc:          l.Desc,
		Collateral:    l.Collateral,
		Status:        l.Status,
		StatusDisplay: domain.LoanStatus(l.Status).Display(),
		RatePercent:   l.RatePercent,
		AdminFee:      l.AdminFee,
		Monthly:       l.Monthly,
		Outstanding:   l.Outstanding,
		ApprovedAt:    l.ApprovedAt,
		CreatedAt:     l.CreatedAt,
	}
}

// Payment is an immutable ledger entry: created once per payment action,
// never updated or deleted. It records the full amount of cash received even
// when that amount overshoots the loan's outstanding balance.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LoanID    uint      `gorm:"not null;index" json:"loan_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	PaidAt    time.Time `gorm:"not null" json:"paid_at"`
	Channel   string    `gorm:"size:20;not null;default:'QRIS'" json:"channel"`
	Note      string    `gorm:"size:200" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Loan *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// ============================================================
// Savings Table
// ============================================================

// Saving is one append-only deposit of a given type for a member.
type Saving struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:20;not null;index" json:"type"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Note      string    `gorm:"size:200" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"deposited_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Saving) TableName() string {
	return "savings"
}

// SavingResponse DTO
type SavingResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Type        string    `json:"type"`
	TypeDisplay string    `json:"type_display"`
	Amount      int64     `json:"amount"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"deposited_at"`
}

func (s *Saving) ToResponse() *SavingResponse {
	return &SavingResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Type:        s.Type,
		TypeDisplay: domain.SavingType(s.Type).Display(),
		Amount:      s.Amount,
		Note:        s.Note,
		CreatedAt:   s.CreatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Loan{},
		&Payment{},
		&Saving{},
	)
}
