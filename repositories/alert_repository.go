package repositories

import (
	"context"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"gorm.io/gorm"
)

type GormAlertRepository struct {
	db *gorm.DB
}

func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

func (r *GormAlertRepository) Create(_ context.Context, tx *gorm.DB, alert *models.StorageAlert) error {
	return useTx(r.db, tx).Create(alert).Error
}

func (r *GormAlertRepository) LatestByUserAndType(_ context.Context, tx *gorm.DB, userID uint, alertType string, since time.Time) (models.StorageAlert, error) {
	var alert models.StorageAlert
	err := useTx(r.db, tx).
		Where("user_id = ? AND alert_type = ? AND created_at > ?", userID, alertType, since).
		Order("created_at DESC").
		First(&alert).Error
	return alert, err
}

func (r *GormAlertRepository) ListUnsentByUser(_ context.Context, tx *gorm.DB, userID uint) ([]models.StorageAlert, error) {
	var alerts []models.StorageAlert
	err := useTx(r.db, tx).
		Where("user_id = ? AND is_sent = ?", userID, false).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (r *GormAlertRepository) MarkSent(_ context.Context, tx *gorm.DB, alertID uint, sentAt time.Time) error {
	return useTx(r.db, tx).Model(&models.StorageAlert{}).
		Where("id = ?", alertID).
		UpdateColumns(map[string]interface{}{
			"is_sent": true,
			"sent_at": sentAt,
		}).Error
}

func (r *GormAlertRepository) DeleteCreatedBefore(_ context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	result := useTx(r.db, tx).
		Where("created_at < ?", cutoff).
		Delete(&models.StorageAlert{})
	return result.RowsAffected, result.Error
}
