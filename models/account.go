package models

import "time"

// UnlimitedQuota is the sentinel base quota for accounts without a storage cap.
const UnlimitedQuota int64 = -1

// StorageAccount is the authoritative per-user ledger row. The total is never
// stored; it is always derived by summing the per-type counters, so the row
// cannot disagree with itself.
type StorageAccount struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	ImageBytes     int64     `gorm:"not null;default:0" json:"image_bytes"`
	DocumentBytes  int64     `gorm:"not null;default:0" json:"document_bytes"`
	ArticleBytes   int64     `gorm:"not null;default:0" json:"article_bytes"`
	ImageCount     int64     `gorm:"not null;default:0" json:"image_count"`
	DocumentCount  int64     `gorm:"not null;default:0" json:"document_count"`
	ArticleCount   int64     `gorm:"not null;default:0" json:"article_count"`
	QuotaBaseBytes int64     `gorm:"not null;default:10737418240" json:"quota_base_bytes"`
	PurchasedBytes int64     `gorm:"not null;default:0" json:"purchased_bytes"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdatedAt  time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`
}

func (StorageAccount) TableName() string {
	return "storage_accounts"
}

func (a *StorageAccount) TotalBytes() int64 {
	return a.ImageBytes + a.DocumentBytes + a.ArticleBytes
}

func (a *StorageAccount) IsUnlimited() bool {
	return a.QuotaBaseBytes == UnlimitedQuota
}

// EffectiveQuotaBytes returns base plus purchased storage, or the unlimited
// sentinel when the base quota is unlimited.
func (a *StorageAccount) EffectiveQuotaBytes() int64 {
	if a.IsUnlimited() {
		return UnlimitedQuota
	}
	return a.QuotaBaseBytes + a.PurchasedBytes
}
