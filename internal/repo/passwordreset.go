package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/models"
)

// ResetTTL is fixed by design; reset links go stale after an hour.
const ResetTTL = time.Hour

var ErrResetTokenInvalid = errors.New("invalid or expired reset token")

// IssuePasswordReset creates a single-use reset token for the email.
// Whether the email maps to a user is the caller's concern.
func (r *Repo) IssuePasswordReset(ctx context.Context, email string) (*models.PasswordReset, error) {
	row := models.PasswordReset{
		Email:     email,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(ResetTTL),
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("issue password reset: %w", err)
	}
	return &row, nil
}

// ConsumePasswordReset marks the token used and returns the associated email.
// The check and the flip run in one transaction so a token can be consumed
// at most once under concurrent resets.
func (r *Repo) ConsumePasswordReset(ctx context.Context, token string) (string, error) {
	var email string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.PasswordReset
		err := tx.Where("token = ? AND used = ?", token, false).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetTokenInvalid
			}
			return fmt.Errorf("lookup reset token: %w", err)
		}
		if !time.Now().Before(row.ExpiresAt) {
			return ErrResetTokenInvalid
		}
		if err := tx.Model(&models.PasswordReset{}).
			Where("id = ?", row.ID).
			Update("used", true).Error; err != nil {
			return fmt.Errorf("mark reset token used: %w", err)
		}
		email = row.Email
		return nil
	})
	if err != nil {
		return "", err
	}
	return email, nil
}
