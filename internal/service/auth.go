package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/hash"
	"github.com/cinevisor/cinevisor-api/internal/logging"
	"github.com/cinevisor/cinevisor-api/internal/models"
	"github.com/cinevisor/cinevisor-api/internal/repo"
	"github.com/cinevisor/cinevisor-api/internal/tokens"
)

const minPasswordLen = 6

// AuthService orchestrates the credential store, the token codec and the two
// ledgers into the register/login/refresh/logout/reset operations.
type AuthService struct {
	Repo  *repo.Repo
	Codec *tokens.Codec
}

func NewAuthService(r *repo.Repo, codec *tokens.Codec) *AuthService {
	return &AuthService{Repo: r, Codec: codec}
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// Register creates a user with the default role. No tokens are issued; the
// client logs in afterwards.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if _, err := s.Repo.FindUserByEmail(ctx, email); err == nil {
		return nil, repo.ErrEmailTaken
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.Repo.FindUserByUsername(ctx, username); err == nil {
		return nil, repo.ErrUsernameTaken
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		return nil, err
	}

	pwHash, err := hash.Password(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	// The pre-checks above are an optimization; the store's unique
	// constraints decide the race.
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	l.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials and issues one access and one refresh token,
// recording the refresh token in the ledger. Unknown email and bad password
// collapse into the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.Check(user.PasswordHash, password) {
		l.Warn("login failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	accessToken, err := s.Codec.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.Codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	expiresAt := time.Now().Add(s.Codec.RefreshTTL())
	if err := s.Repo.RecordRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return nil, err
	}

	l.Info("user logged in", "user_id", user.ID)
	return &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// Refresh mints a new access token from a live refresh token. The refresh
// token itself is never rotated here; it stays valid until revoked or expired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.Codec.Decode(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Type != tokens.TypeRefresh {
		return "", ErrWrongTokenType
	}
	usable, err := s.Repo.RefreshTokenUsable(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if !usable {
		return "", ErrTokenRevoked
	}
	return s.Codec.IssueAccess(claims.Subject)
}

// Logout revokes the refresh token when one is supplied. It always succeeds:
// a missing, unknown or already-revoked token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

// ForgotPassword records a reset token when the email maps to a user.
// The caller gets the same answer either way; delivery of the token is an
// external concern.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	if _, err := s.Repo.FindUserByEmail(ctx, email); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil
		}
		return err
	}
	reset, err := s.Repo.IssuePasswordReset(ctx, email)
	if err != nil {
		return err
	}
	l.Info("password reset issued", "reset_id", reset.ID)
	return nil
}

// ResetPassword consumes the reset token and replaces the password hash in a
// single transaction.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	pwHash, err := hash.Password(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repo.New(tx)
		email, err := txRepo.ConsumePasswordReset(ctx, token)
		if err != nil {
			return err
		}
		user, err := txRepo.FindUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		return txRepo.UpdatePasswordHash(ctx, user.ID, pwHash)
	})
	if err != nil {
		return err
	}

	l.Info("password reset completed")
	return nil
}
