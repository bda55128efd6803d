package models

import "time"

const (
	AlertTypeWarning  = "warning"
	AlertTypeCritical = "critical"
	AlertTypeDepleted = "depleted"
)

// StorageAlert records a threshold crossing. An alert moves from unsent to
// sent exactly once; a later crossing after the cooldown window produces a
// fresh row instead of reusing this one.
type StorageAlert struct {
	ID                  uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              uint       `gorm:"not null;index:idx_alert_user_type" json:"user_id"`
	AlertType           string     `gorm:"type:varchar(10);not null;index:idx_alert_user_type" json:"alert_type"`
	ThresholdPercentage int        `gorm:"not null" json:"threshold_percentage"`
	CurrentUsageBytes   int64      `gorm:"not null" json:"current_usage_bytes"`
	QuotaBytes          int64      `gorm:"not null" json:"quota_bytes"`
	IsSent              bool       `gorm:"default:false" json:"is_sent"`
	CreatedAt           time.Time  `gorm:"index;autoCreateTime" json:"created_at"`
	SentAt              *time.Time `json:"sent_at,omitempty"`
}

func (StorageAlert) TableName() string {
	return "storage_alerts"
}
