package models

import "time"

// StorageSnapshot is a daily point-in-time copy of the ledger, unique per
// (user, date). Re-snapshotting the same day overwrites the existing row.
type StorageSnapshot struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_snapshot_user_date" json:"user_id"`
	SnapshotDate  time.Time `gorm:"type:date;not null;uniqueIndex:idx_snapshot_user_date" json:"snapshot_date"`
	ImageBytes    int64     `gorm:"not null;default:0" json:"image_bytes"`
	DocumentBytes int64     `gorm:"not null;default:0" json:"document_bytes"`
	ArticleBytes  int64     `gorm:"not null;default:0" json:"article_bytes"`
	TotalBytes    int64     `gorm:"not null;default:0" json:"total_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StorageSnapshot) TableName() string {
	return "storage_snapshots"
}
