package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/config"
	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/pkg/jwt"
	"koperasi-bci/internal/pkg/membercode"
	"koperasi-bci/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = fmt.Errorf("user not found: %w", domain.ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", domain.ErrConflict)
	ErrNIKTaken           = fmt.Errorf("NIK already registered: %w", domain.ErrConflict)
	ErrMissingFields      = fmt.Errorf("name, NIK, email and password are required: %w", domain.ErrValidation)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserInactive       = errors.New("user account is inactive")
)

// AuthService handles registration, login and token rotation
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	savingRepo       repositories.SavingRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	savingRepo repositories.SavingRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		savingRepo:       savingRepo,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	FullName   string `json:"full_name" validate:"required"`
	NIK        string `json:"nik" validate:"required,min=16,max=16"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	Collateral string `json:"collateral,omitempty"`
	Password   string `json:"password" validate:"required,min=8"`
}

// LoginInput represents login input. Identifier accepts either the member
// number or the NIK.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates a new member: assigns a member number, opens the mandatory
// savings accounts and issues the first token pair.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	if strings.TrimSpace(input.FullName) == "" || strings.TrimSpace(input.NIK) == "" ||
		strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	// 1. Check if email already registered
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	// 2. Check if NIK already registered
	exists, err = s.userRepo.ExistsByNIK(ctx, input.NIK)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNIKTaken
	}

	// 3. Assign a fresh member number
	memberNo, err := s.newMemberNo(ctx)
	if err != nil {
		return nil, err
	}

	// 4. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 5. Create user
	role := domain.RoleMember
	if s.isAdminEmail(input.Email) {
		role = domain.RoleAdmin
	}

	user := &models.User{
		MemberNo:   memberNo,
		Name:       input.FullName,
		NIK:        input.NIK,
		Email:      input.Email,
		Phone:      input.Phone,
		Address:    input.Address,
		Collateral: input.Collateral,
		Password:   hashedPassword,
		Role:       string(role),
		IsActive:   true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 6. Open the mandatory savings accounts
	s.seedOpeningSavings(ctx, user.ID)

	// 7. Generate tokens
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	// 8. Store refresh token
	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ Member registered: %s (%s)", user.Name, user.MemberNo)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Login authenticates a member by member number or NIK
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user
	user, err := s.userRepo.GetByLogin(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Promote allowlisted admins created before the allowlist change
	if user.Role != string(domain.RoleAdmin) && s.isAdminEmail(user.Email) {
		user.Role = string(domain.RoleAdmin)
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	// 5. Generate tokens
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	// 6. Store refresh token
	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ Member logged in: %s", user.MemberNo)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// 2. Find the stored token by hash
	tokenHash := password.HashToken(refreshToken)
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// 3. Check revocation and expiry
	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	// 4. Get user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 5. Revoke old refresh token (rotation)
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	// 6. Generate and store new tokens
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for member: %s", user.MemberNo)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
		return err
	}

	log.Printf("✅ Member logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// newMemberNo generates a member number and retries on the unlikely collision
func (s *AuthService) newMemberNo(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		memberNo := membercode.New()
		exists, err := s.userRepo.ExistsByMemberNo(ctx, memberNo)
		if err != nil {
			return "", err
		}
		if !exists {
			return memberNo, nil
		}
	}
	return "", errors.New("could not allocate member number")
}

// seedOpeningSavings records the mandatory principal and monthly savings a
// new member starts with. Failures are logged but do not fail registration.
func (s *AuthService) seedOpeningSavings(ctx context.Context, userID uint) {
	openings := []*models.Saving{
		{UserID: userID, Type: string(domain.SavingPokok), Amount: domain.OpeningPokok, Note: "Simpanan pokok keanggotaan"},
		{UserID: userID, Type: string(domain.SavingWajib), Amount: domain.OpeningWajib, Note: "Simpanan wajib bulan pertama"},
	}
	for _, saving := range openings {
		if err := s.savingRepo.Create(ctx, saving); err != nil {
			log.Printf("❌ Failed to seed opening saving (user=%d, type=%s): %v", userID, saving.Type, err)
		}
	}
}

func (s *AuthService) isAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range s.cfg.App.AdminEmails {
		if strings.ToLower(strings.TrimSpace(allowed)) == email {
			return true
		}
	}
	return false
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.MemberNo,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}

	return s.refreshTokenRepo.Create(ctx, token)
}
