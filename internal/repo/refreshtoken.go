package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/models"
)

// RecordRefreshToken inserts a fresh, unrevoked ledger row for the token.
func (r *Repo) RecordRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	row := models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record refresh token: %w", err)
	}
	return nil
}

// RefreshTokenUsable reports whether the ledger still accepts the token:
// the row exists, is not revoked, and its stored expiry is in the future.
// The ledger expiry is checked here in addition to the expiry embedded in
// the token itself, so the row stays authoritative even if codec TTLs change.
func (r *Repo) RefreshTokenUsable(ctx context.Context, token string) (bool, error) {
	var row models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup refresh token: %w", err)
	}
	if row.Revoked {
		return false, nil
	}
	if !time.Now().Before(row.ExpiresAt) {
		return false, nil
	}
	return true, nil
}

// RevokeRefreshToken sets revoked=true for the matching row. Revoking an
// unknown or already-revoked token is a no-op, not an error.
func (r *Repo) RevokeRefreshToken(ctx context.Context, token string) error {
	result := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true)
	if result.Error != nil {
		return fmt.Errorf("revoke refresh token: %w", result.Error)
	}
	return nil
}
