package repositories

import (
	"context"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type AccountRepository interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (models.StorageAccount, error)
	// EnsureExists inserts the account if no row exists for its user yet and
	// is a no-op otherwise.
	EnsureExists(ctx context.Context, tx *gorm.DB, account *models.StorageAccount) error
	// AddUsage applies a signed byte/count delta to the counters of one
	// resource type as an atomic column update.
	AddUsage(ctx context.Context, tx *gorm.DB, userID uint, resourceType string, deltaBytes int64, deltaCount int64) error
	UpdateQuotaBase(ctx context.Context, tx *gorm.DB, userID uint, quotaBytes int64) error
	AddPurchased(ctx context.Context, tx *gorm.DB, userID uint, deltaBytes int64) error
	ListUserIDs(ctx context.Context, tx *gorm.DB) ([]uint, error)
}

type TransactionListInput struct {
	UserID uint
	Offset int
	Limit  int
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, record *models.StorageTransaction) error
	CountByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
	ListByUser(ctx context.Context, tx *gorm.DB, in TransactionListInput) ([]models.StorageTransaction, error)
}

type AlertRepository interface {
	Create(ctx context.Context, tx *gorm.DB, alert *models.StorageAlert) error
	LatestByUserAndType(ctx context.Context, tx *gorm.DB, userID uint, alertType string, since time.Time) (models.StorageAlert, error)
	ListUnsentByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.StorageAlert, error)
	MarkSent(ctx context.Context, tx *gorm.DB, alertID uint, sentAt time.Time) error
	DeleteCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type SnapshotRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, snapshot *models.StorageSnapshot) error
	ListByUserAndRange(ctx context.Context, tx *gorm.DB, userID uint, start time.Time, end time.Time) ([]models.StorageSnapshot, error)
	DeleteDatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type ResourceTally struct {
	SizeBytes int64
	Count     int64
}

// ResourceRepository reads the authoritative resource tables owned by the
// upload pipeline. The ledger only ever reads them, for reconciliation.
type ResourceRepository interface {
	SumByUser(ctx context.Context, tx *gorm.DB, userID uint) (map[string]ResourceTally, error)
}

// UsageCache is a read-through cache over ledger rows. It is never
// authoritative; callers treat every error as a cache miss.
type UsageCache interface {
	GetAccount(ctx context.Context, userID uint) (models.StorageAccount, bool, error)
	SetAccount(ctx context.Context, account models.StorageAccount, ttl time.Duration) error
	Invalidate(ctx context.Context, userID uint) error
}

type Container struct {
	TxManager    TxManager
	Accounts     AccountRepository
	Transactions TransactionRepository
	Alerts       AlertRepository
	Snapshots    SnapshotRepository
	Resources    ResourceRepository
	UsageCache   UsageCache
}
