package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"
	"escolapay/internal/config"
	"escolapay/internal/pkg/jwt"
	"escolapay/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already has a password configured")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrPasswordIsDNI      = errors.New("password cannot be the DNI")
	ErrOldPasswordWrong   = errors.New("old password is incorrect")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	accountRepo      repositories.AccountRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	accountRepo repositories.AccountRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		accountRepo:      accountRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
	}
}

// LoginInput represents login input. Identifier is a DNI or an email.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// SetupPasswordInput creates the credential record for a provisioned user.
type SetupPasswordInput struct {
	DNI      string `json:"dni" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response. TempPassword is the
// explicit flag for a credential still equal to the DNI; callers must route
// the user into the password-change flow while it is true.
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	TempPassword bool                 `json:"temp_password"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Login authenticates a user by DNI or email
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.resolveIdentifier(ctx, strings.TrimSpace(input.Identifier))
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// Computed per login, never persisted
	tempPassword := password.IsTemporary(user.DNI, account.PasswordHash)

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s [%s]", user.DNI, user.Role)

	return &AuthResponse{
		User:         user.ToResponse(),
		TempPassword: tempPassword,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// resolveIdentifier finds a user by DNI first, then by email when the
// identifier looks like one.
func (s *AuthService) resolveIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.userRepo.GetByDNI(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, ErrInvalidCredentials
}

// CheckTempPassword recomputes the temporary-password flag for a session
func (s *AuthService) CheckTempPassword(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, ErrUserNotFound
	}

	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return password.IsTemporary(user.DNI, account.PasswordHash), nil
}

// SetupPassword creates the credential record for a DNI that has none
func (s *AuthService) SetupPassword(ctx context.Context, input *SetupPasswordInput) error {
	user, err := s.userRepo.GetByDNI(ctx, strings.TrimSpace(input.DNI))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	exists, err := s.accountRepo.ExistsByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAccountExists
	}

	if !password.ValidatePassword(input.Password) {
		return ErrWeakPassword
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return err
	}

	if err := s.accountRepo.Create(ctx, &models.Account{
		UserID:       user.ID,
		PasswordHash: hash,
	}); err != nil {
		return err
	}

	log.Printf("✅ Credential configured for DNI %s", user.DNI)
	return nil
}

// ChangePassword replaces a user's credential after verifying the old one.
// The new password may not equal the DNI, or the account would be flagged
// temporary again.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if !password.Verify(input.OldPassword, account.PasswordHash) {
		return ErrOldPasswordWrong
	}

	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}
	if input.NewPassword == user.DNI {
		return ErrPasswordIsDNI
	}

	hash, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = hash
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return err
	}

	log.Printf("✅ Password changed for DNI %s", user.DNI)
	return nil
}

// RefreshToken refreshes the access token using refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	tokenHash := password.HashToken(refreshToken)

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// Token rotation: revoke the used one before issuing a new pair
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

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

	log.Printf("✅ User logged out")
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

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		jwt.AccessTokenInput{
			UserID:           user.ID,
			DNI:              user.DNI,
			FirstName:        user.FirstName,
			LastName:         user.LastName,
			Role:             user.Role,
			SchoolDivisionID: user.SchoolDivisionID,
		},
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
