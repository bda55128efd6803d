package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"
	"github.com/lh20005/geo-xi-tong-sub000/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsageOutput struct {
	UserID          uint    `json:"user_id"`
	ImageBytes      int64   `json:"image_bytes"`
	DocumentBytes   int64   `json:"document_bytes"`
	ArticleBytes    int64   `json:"article_bytes"`
	TotalBytes      int64   `json:"total_bytes"`
	ImageCount      int64   `json:"image_count"`
	DocumentCount   int64   `json:"document_count"`
	ArticleCount    int64   `json:"article_count"`
	QuotaBaseBytes  int64   `json:"quota_base_bytes"`
	PurchasedBytes  int64   `json:"purchased_bytes"`
	AvailableBytes  int64   `json:"available_bytes"`
	UsagePercentage float64 `json:"usage_percentage"`
}

type BreakdownEntry struct {
	SizeBytes  int64   `json:"size_bytes"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type BreakdownOutput struct {
	Images    BreakdownEntry `json:"images"`
	Documents BreakdownEntry `json:"documents"`
	Articles  BreakdownEntry `json:"articles"`
}

type RecordUsageInput struct {
	UserID       uint
	ResourceType string
	ResourceID   uint
	SizeBytes    int64
	Metadata     string
}

type TransactionListOutput struct {
	Transactions []models.StorageTransaction `json:"transactions"`
	Pagination   utils.PaginationData        `json:"pagination"`
}

// AlertChecker is the slice of the alert engine the recorder needs for its
// post-commit, best-effort check.
type AlertChecker interface {
	CheckAndCreateAlerts(ctx context.Context, userID uint) ([]models.StorageAlert, error)
}

type UsageService interface {
	GetUsage(ctx context.Context, userID uint) (UsageOutput, error)
	// GetUsageFresh bypasses the cache for callers that need the committed
	// state, e.g. right after a write.
	GetUsageFresh(ctx context.Context, userID uint) (UsageOutput, error)
	GetBreakdown(ctx context.Context, userID uint) (BreakdownOutput, error)
	RecordUsage(ctx context.Context, in RecordUsageInput) error
	RemoveUsage(ctx context.Context, in RecordUsageInput) error
	ListTransactions(ctx context.Context, userID uint, page int, pageSize int) (TransactionListOutput, error)
	InitializeAccount(ctx context.Context, userID uint, quotaBytes *int64) error
}

type usageService struct {
	txManager    TxManager
	accounts     repositories.AccountRepository
	transactions repositories.TransactionRepository
	cache        repositories.UsageCache
	alerts       AlertChecker
	notifier     Notifier
}

func NewUsageService(
	txManager TxManager,
	accounts repositories.AccountRepository,
	transactions repositories.TransactionRepository,
	cache repositories.UsageCache,
	alerts AlertChecker,
	notifier Notifier,
) UsageService {
	return &usageService{
		txManager:    txManager,
		accounts:     accounts,
		transactions: transactions,
		cache:        cache,
		alerts:       alerts,
		notifier:     notifier,
	}
}

func (s *usageService) GetUsage(ctx context.Context, userID uint) (UsageOutput, error) {
	if s.cache != nil {
		account, ok, err := s.cache.GetAccount(ctx, userID)
		if err != nil {
			log.Printf("usage cache read failed for user %d: %v", userID, err)
		} else if ok {
			return buildUsageOutput(&account), nil
		}
	}
	return s.loadUsage(ctx, userID)
}

func (s *usageService) GetUsageFresh(ctx context.Context, userID uint) (UsageOutput, error) {
	return s.loadUsage(ctx, userID)
}

func (s *usageService) loadUsage(ctx context.Context, userID uint) (UsageOutput, error) {
	account, err := getOrCreateAccount(ctx, s.accounts, userID)
	if err != nil {
		return UsageOutput{}, err
	}

	if s.cache != nil {
		ttl := time.Duration(config.AppConfig.Accounting.CacheTTLSeconds) * time.Second
		if err := s.cache.SetAccount(ctx, account, ttl); err != nil {
			log.Printf("usage cache write failed for user %d: %v", userID, err)
		}
	}
	return buildUsageOutput(&account), nil
}

func (s *usageService) GetBreakdown(ctx context.Context, userID uint) (BreakdownOutput, error) {
	usage, err := s.GetUsage(ctx, userID)
	if err != nil {
		return BreakdownOutput{}, err
	}

	total := usage.TotalBytes
	return BreakdownOutput{
		Images:    breakdownEntry(usage.ImageBytes, usage.ImageCount, total),
		Documents: breakdownEntry(usage.DocumentBytes, usage.DocumentCount, total),
		Articles:  breakdownEntry(usage.ArticleBytes, usage.ArticleCount, total),
	}, nil
}

func (s *usageService) RecordUsage(ctx context.Context, in RecordUsageInput) error {
	if err := s.applyUsage(ctx, in, models.OperationAdd); err != nil {
		return err
	}
	s.checkAlertsAsync(in.UserID)
	return nil
}

func (s *usageService) RemoveUsage(ctx context.Context, in RecordUsageInput) error {
	return s.applyUsage(ctx, in, models.OperationRemove)
}

// applyUsage performs the ledger mutation: validation first, then one
// database transaction covering the counter update and the log insert, then
// the post-commit side effects. Any transaction failure leaves neither half
// applied.
func (s *usageService) applyUsage(ctx context.Context, in RecordUsageInput, operation string) error {
	if !models.IsValidResourceType(in.ResourceType) {
		return newValidationError("unknown resource type: " + in.ResourceType)
	}
	if in.SizeBytes < 0 {
		return newValidationError("size bytes cannot be negative")
	}

	if _, err := getOrCreateAccount(ctx, s.accounts, in.UserID); err != nil {
		return err
	}

	deltaBytes := in.SizeBytes
	deltaCount := int64(1)
	if operation == models.OperationRemove {
		deltaBytes = -deltaBytes
		deltaCount = -1
	}

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.accounts.AddUsage(ctx, tx, in.UserID, in.ResourceType, deltaBytes, deltaCount); err != nil {
			return err
		}
		return s.transactions.Create(ctx, tx, &models.StorageTransaction{
			PublicID:     uuid.NewString(),
			UserID:       in.UserID,
			ResourceType: in.ResourceType,
			ResourceID:   in.ResourceID,
			Operation:    operation,
			SizeBytes:    in.SizeBytes,
			Metadata:     in.Metadata,
		})
	})
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to record storage usage", err)
	}

	s.afterMutation(ctx, in.UserID)
	return nil
}

// afterMutation runs strictly after commit. Cache and notification failures
// are logged and swallowed; they can never undo a committed write.
func (s *usageService) afterMutation(ctx context.Context, userID uint) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Printf("usage cache invalidation failed for user %d: %v", userID, err)
		}
	}
	s.notifier.UsageUpdated(ctx, userID)
}

func (s *usageService) checkAlertsAsync(userID uint) {
	if s.alerts == nil {
		return
	}
	go func() {
		if _, err := s.alerts.CheckAndCreateAlerts(context.Background(), userID); err != nil {
			log.Printf("storage alert check failed for user %d: %v", userID, err)
		}
	}()
}

func (s *usageService) ListTransactions(ctx context.Context, userID uint, page int, pageSize int) (TransactionListOutput, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > config.AppConfig.Pagination.MaxPageSize {
		pageSize = config.AppConfig.Pagination.DefaultPageSize
	}

	total, err := s.transactions.CountByUser(ctx, nil, userID)
	if err != nil {
		return TransactionListOutput{}, newAppError(http.StatusInternalServerError, "failed to count storage transactions", err)
	}

	records, err := s.transactions.ListByUser(ctx, nil, repositories.TransactionListInput{
		UserID: userID,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return TransactionListOutput{}, newAppError(http.StatusInternalServerError, "failed to list storage transactions", err)
	}

	return TransactionListOutput{
		Transactions: records,
		Pagination:   utils.NewPagination(page, pageSize, total),
	}, nil
}

func (s *usageService) InitializeAccount(ctx context.Context, userID uint, quotaBytes *int64) error {
	quota := config.AppConfig.Accounting.DefaultQuotaBytes
	if quotaBytes != nil {
		quota = *quotaBytes
	}
	if quota < models.UnlimitedQuota {
		return newValidationError("quota bytes cannot be below the unlimited sentinel")
	}

	account := models.StorageAccount{UserID: userID, QuotaBaseBytes: quota}
	if err := s.accounts.EnsureExists(ctx, nil, &account); err != nil {
		return newAppError(http.StatusInternalServerError, "failed to initialize storage account", err)
	}
	return nil
}

func buildUsageOutput(account *models.StorageAccount) UsageOutput {
	return UsageOutput{
		UserID:          account.UserID,
		ImageBytes:      account.ImageBytes,
		DocumentBytes:   account.DocumentBytes,
		ArticleBytes:    account.ArticleBytes,
		TotalBytes:      account.TotalBytes(),
		ImageCount:      account.ImageCount,
		DocumentCount:   account.DocumentCount,
		ArticleCount:    account.ArticleCount,
		QuotaBaseBytes:  account.QuotaBaseBytes,
		PurchasedBytes:  account.PurchasedBytes,
		AvailableBytes:  availableBytes(account),
		UsagePercentage: usagePercent(account),
	}
}

func breakdownEntry(sizeBytes int64, count int64, totalBytes int64) BreakdownEntry {
	entry := BreakdownEntry{SizeBytes: sizeBytes, Count: count}
	if totalBytes > 0 {
		entry.Percentage = roundPercent(float64(sizeBytes) / float64(totalBytes) * 100)
	}
	return entry
}
