package models

import "time"

const (
	ResourceTypeImage    = "image"
	ResourceTypeDocument = "document"
	ResourceTypeArticle  = "article"

	OperationAdd    = "add"
	OperationRemove = "remove"
)

func IsValidResourceType(resourceType string) bool {
	switch resourceType {
	case ResourceTypeImage, ResourceTypeDocument, ResourceTypeArticle:
		return true
	}
	return false
}

// StorageTransaction is one immutable entry of the usage audit log. Rows are
// only ever inserted, in the same database transaction as the ledger update.
type StorageTransaction struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PublicID     string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	UserID       uint      `gorm:"not null;index:idx_tx_user_created" json:"user_id"`
	ResourceType string    `gorm:"type:varchar(10);not null" json:"resource_type"`
	ResourceID   uint      `gorm:"not null" json:"resource_id"`
	Operation    string    `gorm:"type:varchar(10);not null" json:"operation"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	Metadata     string    `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt    time.Time `gorm:"index:idx_tx_user_created;autoCreateTime" json:"created_at"`
}

func (StorageTransaction) TableName() string {
	return "storage_transactions"
}
