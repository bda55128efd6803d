package repositories

import (
	"context"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormSnapshotRepository struct {
	db *gorm.DB
}

func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

func (r *GormSnapshotRepository) Upsert(_ context.Context, tx *gorm.DB, snapshot *models.StorageSnapshot) error {
	return useTx(r.db, tx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"image_bytes", "document_bytes", "article_bytes", "total_bytes",
			}),
		}).
		Create(snapshot).Error
}

func (r *GormSnapshotRepository) ListByUserAndRange(_ context.Context, tx *gorm.DB, userID uint, start time.Time, end time.Time) ([]models.StorageSnapshot, error) {
	var snapshots []models.StorageSnapshot
	err := useTx(r.db, tx).
		Where("user_id = ? AND snapshot_date BETWEEN ? AND ?", userID, start, end).
		Order("snapshot_date ASC").
		Find(&snapshots).Error
	return snapshots, err
}

func (r *GormSnapshotRepository) DeleteDatedBefore(_ context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	result := useTx(r.db, tx).
		Where("snapshot_date < ?", cutoff).
		Delete(&models.StorageSnapshot{})
	return result.RowsAffected, result.Error
}
