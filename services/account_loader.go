package services

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"

	"gorm.io/gorm"
)

// getOrCreateAccount loads the ledger row for a user, lazily creating it with
// the configured default quota on first contact. First-time users self-heal
// instead of failing.
func getOrCreateAccount(ctx context.Context, accounts repositories.AccountRepository, userID uint) (models.StorageAccount, error) {
	account, err := accounts.GetByUserID(ctx, nil, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StorageAccount{}, newAppError(http.StatusInternalServerError, "failed to query storage account", err)
	}

	fresh := models.StorageAccount{
		UserID:         userID,
		QuotaBaseBytes: config.AppConfig.Accounting.DefaultQuotaBytes,
	}
	if err := accounts.EnsureExists(ctx, nil, &fresh); err != nil {
		return models.StorageAccount{}, newAppError(http.StatusInternalServerError, "failed to initialize storage account", err)
	}

	account, err = accounts.GetByUserID(ctx, nil, userID)
	if err != nil {
		return models.StorageAccount{}, newAppError(http.StatusInternalServerError, "failed to query storage account", err)
	}
	return account, nil
}

// usagePercent returns usage as a percentage of the effective quota, rounded
// to two decimals. Unlimited accounts always report zero.
func usagePercent(account *models.StorageAccount) float64 {
	if account.IsUnlimited() {
		return 0
	}
	effective := account.EffectiveQuotaBytes()
	if effective <= 0 {
		if account.TotalBytes() > 0 {
			return 100
		}
		return 0
	}
	return roundPercent(float64(account.TotalBytes()) / float64(effective) * 100)
}

func roundPercent(pct float64) float64 {
	return math.Round(pct*100) / 100
}

// availableBytes returns remaining headroom, the unlimited sentinel for
// uncapped accounts, and never a negative number.
func availableBytes(account *models.StorageAccount) int64 {
	if account.IsUnlimited() {
		return models.UnlimitedQuota
	}
	available := account.EffectiveQuotaBytes() - account.TotalBytes()
	if available < 0 {
		return 0
	}
	return available
}
