package services

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"
)

type QuotaCheckOutput struct {
	Allowed           bool    `json:"allowed"`
	CurrentUsageBytes int64   `json:"current_usage_bytes"`
	QuotaBytes        int64   `json:"quota_bytes"`
	AvailableBytes    int64   `json:"available_bytes"`
	UsagePercentage   float64 `json:"usage_percentage"`
	Reason            string  `json:"reason,omitempty"`
}

type FileSizeValidation struct {
	Valid        bool   `json:"valid"`
	MaxSizeBytes int64  `json:"max_size_bytes"`
	Reason       string `json:"reason,omitempty"`
}

type QuotaService interface {
	// CheckQuota is advisory: it evaluates a prospective write against the
	// effective quota without reserving anything. Callers run it before the
	// content write and record usage afterwards.
	CheckQuota(ctx context.Context, userID uint, prospectiveBytes int64) (QuotaCheckOutput, error)
	ValidateFileSize(resourceType string, sizeBytes int64) FileSizeValidation
	GetEffectiveQuota(ctx context.Context, userID uint) (int64, error)
	HasUnlimitedStorage(ctx context.Context, userID uint) (bool, error)
	UpdateQuota(ctx context.Context, userID uint, newBaseBytes int64) error
	AddPurchased(ctx context.Context, userID uint, deltaBytes int64) error
}

type quotaService struct {
	accounts repositories.AccountRepository
	cache    repositories.UsageCache
	notifier Notifier
}

func NewQuotaService(
	accounts repositories.AccountRepository,
	cache repositories.UsageCache,
	notifier Notifier,
) QuotaService {
	return &quotaService{accounts: accounts, cache: cache, notifier: notifier}
}

func (s *quotaService) CheckQuota(ctx context.Context, userID uint, prospectiveBytes int64) (QuotaCheckOutput, error) {
	if prospectiveBytes < 0 {
		return QuotaCheckOutput{}, newValidationError("prospective bytes cannot be negative")
	}

	// Consistency-sensitive read: the check always bypasses the cache.
	account, err := getOrCreateAccount(ctx, s.accounts, userID)
	if err != nil {
		return QuotaCheckOutput{}, err
	}

	out := QuotaCheckOutput{
		CurrentUsageBytes: account.TotalBytes(),
		QuotaBytes:        account.EffectiveQuotaBytes(),
		AvailableBytes:    availableBytes(&account),
		UsagePercentage:   usagePercent(&account),
	}

	if account.IsUnlimited() {
		out.Allowed = true
		return out, nil
	}

	if account.TotalBytes()+prospectiveBytes > account.EffectiveQuotaBytes() {
		out.Allowed = false
		out.Reason = fmt.Sprintf(
			"adding %d bytes would exceed the storage quota (%d of %d bytes used)",
			prospectiveBytes, account.TotalBytes(), account.EffectiveQuotaBytes(),
		)
		return out, nil
	}

	out.Allowed = true
	return out, nil
}

func (s *quotaService) ValidateFileSize(resourceType string, sizeBytes int64) FileSizeValidation {
	maxSize, ok := maxSizeForType(resourceType)
	if !ok {
		return FileSizeValidation{Reason: "unknown resource type: " + resourceType}
	}
	if sizeBytes < 0 {
		return FileSizeValidation{MaxSizeBytes: maxSize, Reason: "size bytes cannot be negative"}
	}
	if sizeBytes > maxSize {
		return FileSizeValidation{
			MaxSizeBytes: maxSize,
			Reason: fmt.Sprintf("%s size %d exceeds the %d byte limit",
				resourceType, sizeBytes, maxSize),
		}
	}
	return FileSizeValidation{Valid: true, MaxSizeBytes: maxSize}
}

func (s *quotaService) GetEffectiveQuota(ctx context.Context, userID uint) (int64, error) {
	account, err := getOrCreateAccount(ctx, s.accounts, userID)
	if err != nil {
		return 0, err
	}
	return account.EffectiveQuotaBytes(), nil
}

func (s *quotaService) HasUnlimitedStorage(ctx context.Context, userID uint) (bool, error) {
	account, err := getOrCreateAccount(ctx, s.accounts, userID)
	if err != nil {
		return false, err
	}
	return account.IsUnlimited(), nil
}

func (s *quotaService) UpdateQuota(ctx context.Context, userID uint, newBaseBytes int64) error {
	if newBaseBytes < models.UnlimitedQuota {
		return newValidationError("quota bytes cannot be below the unlimited sentinel")
	}

	if _, err := getOrCreateAccount(ctx, s.accounts, userID); err != nil {
		return err
	}
	if err := s.accounts.UpdateQuotaBase(ctx, nil, userID, newBaseBytes); err != nil {
		return newAppError(http.StatusInternalServerError, "failed to update storage quota", err)
	}

	s.afterQuotaChange(ctx, userID)
	return nil
}

// AddPurchased is cumulative: the delta is added to any previously purchased
// storage, never overwriting it.
func (s *quotaService) AddPurchased(ctx context.Context, userID uint, deltaBytes int64) error {
	if deltaBytes <= 0 {
		return newValidationError("purchased bytes must be positive")
	}

	if _, err := getOrCreateAccount(ctx, s.accounts, userID); err != nil {
		return err
	}
	if err := s.accounts.AddPurchased(ctx, nil, userID, deltaBytes); err != nil {
		return newAppError(http.StatusInternalServerError, "failed to add purchased storage", err)
	}

	s.afterQuotaChange(ctx, userID)
	return nil
}

func (s *quotaService) afterQuotaChange(ctx context.Context, userID uint) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Printf("usage cache invalidation failed for user %d: %v", userID, err)
		}
	}

	effective := int64(0)
	if account, err := s.accounts.GetByUserID(ctx, nil, userID); err == nil {
		effective = account.EffectiveQuotaBytes()
	}
	s.notifier.QuotaChanged(ctx, userID, effective)
}

func maxSizeForType(resourceType string) (int64, bool) {
	cfg := config.AppConfig.Accounting
	switch resourceType {
	case models.ResourceTypeImage:
		return cfg.MaxImageBytes, true
	case models.ResourceTypeDocument:
		return cfg.MaxDocumentBytes, true
	case models.ResourceTypeArticle:
		return cfg.MaxArticleBytes, true
	}
	return 0, false
}
