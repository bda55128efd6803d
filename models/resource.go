package models

import (
	"time"

	"gorm.io/gorm"
)

// ContentResource mirrors the resource rows maintained by the upload and
// publishing pipelines. The ledger never writes this table; the reconciler
// reads it as the source of truth when checking for drift.
type ContentResource struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	ResourceType string         `gorm:"type:varchar(10);not null;index" json:"resource_type"`
	SizeBytes    int64          `gorm:"not null" json:"size_bytes"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ContentResource) TableName() string {
	return "content_resources"
}
