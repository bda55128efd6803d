package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"

	"gorm.io/gorm"
)

const (
	warningThresholdPercent  = 80
	criticalThresholdPercent = 95
	depletedThresholdPercent = 100
)

// alertTiers is ordered highest first; only the highest crossed tier fires.
var alertTiers = []struct {
	alertType string
	threshold int
}{
	{models.AlertTypeDepleted, depletedThresholdPercent},
	{models.AlertTypeCritical, criticalThresholdPercent},
	{models.AlertTypeWarning, warningThresholdPercent},
}

type AlertService interface {
	// CheckAndCreateAlerts evaluates the user's current usage and creates at
	// most one alert, for the highest tier crossed, unless the same alert
	// type already fired within the cooldown window.
	CheckAndCreateAlerts(ctx context.Context, userID uint) ([]models.StorageAlert, error)
	ListPendingAlerts(ctx context.Context, userID uint) ([]models.StorageAlert, error)
	MarkAlertSent(ctx context.Context, alertID uint) error
}

type alertService struct {
	accounts repositories.AccountRepository
	alerts   repositories.AlertRepository
	notifier Notifier
}

func NewAlertService(
	accounts repositories.AccountRepository,
	alerts repositories.AlertRepository,
	notifier Notifier,
) AlertService {
	return &alertService{accounts: accounts, alerts: alerts, notifier: notifier}
}

func (s *alertService) CheckAndCreateAlerts(ctx context.Context, userID uint) ([]models.StorageAlert, error) {
	account, err := getOrCreateAccount(ctx, s.accounts, userID)
	if err != nil {
		return nil, err
	}

	// Unlimited accounts can never run out of space.
	if account.IsUnlimited() {
		return nil, nil
	}

	pct := rawUsagePercent(&account)
	for _, tier := range alertTiers {
		if pct < float64(tier.threshold) {
			continue
		}

		alert, created, err := s.createIfNotDuplicated(ctx, &account, tier.alertType, tier.threshold)
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, nil
		}

		s.notifier.AlertCreated(ctx, alert)
		if err := s.MarkAlertSent(ctx, alert.ID); err != nil {
			return []models.StorageAlert{alert}, err
		}
		now := time.Now()
		alert.IsSent = true
		alert.SentAt = &now
		return []models.StorageAlert{alert}, nil
	}

	return nil, nil
}

// createIfNotDuplicated applies the cooldown dedup: the lookback is a plain
// query, so two concurrent checks can race and both insert. That is accepted
// as best-effort; alerting is advisory, not transactional.
func (s *alertService) createIfNotDuplicated(ctx context.Context, account *models.StorageAccount, alertType string, threshold int) (models.StorageAlert, bool, error) {
	cooldown := time.Duration(config.AppConfig.Accounting.AlertCooldownHours) * time.Hour
	since := time.Now().Add(-cooldown)

	_, err := s.alerts.LatestByUserAndType(ctx, nil, account.UserID, alertType, since)
	if err == nil {
		return models.StorageAlert{}, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StorageAlert{}, false, newAppError(http.StatusInternalServerError, "failed to check existing alerts", err)
	}

	alert := models.StorageAlert{
		UserID:              account.UserID,
		AlertType:           alertType,
		ThresholdPercentage: threshold,
		CurrentUsageBytes:   account.TotalBytes(),
		QuotaBytes:          account.EffectiveQuotaBytes(),
	}
	if err := s.alerts.Create(ctx, nil, &alert); err != nil {
		return models.StorageAlert{}, false, newAppError(http.StatusInternalServerError, "failed to create storage alert", err)
	}
	return alert, true, nil
}

func (s *alertService) ListPendingAlerts(ctx context.Context, userID uint) ([]models.StorageAlert, error) {
	alerts, err := s.alerts.ListUnsentByUser(ctx, nil, userID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list storage alerts", err)
	}
	return alerts, nil
}

func (s *alertService) MarkAlertSent(ctx context.Context, alertID uint) error {
	if err := s.alerts.MarkSent(ctx, nil, alertID, time.Now()); err != nil {
		return newAppError(http.StatusInternalServerError, "failed to mark alert sent", err)
	}
	return nil
}

// rawUsagePercent skips the display rounding; threshold comparisons use the
// exact ratio.
func rawUsagePercent(account *models.StorageAccount) float64 {
	effective := account.EffectiveQuotaBytes()
	if effective <= 0 {
		if account.TotalBytes() > 0 {
			return 100
		}
		return 0
	}
	return float64(account.TotalBytes()) / float64(effective) * 100
}
