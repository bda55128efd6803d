package repositories

import (
	"context"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"gorm.io/gorm"
)

type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(_ context.Context, tx *gorm.DB, record *models.StorageTransaction) error {
	return useTx(r.db, tx).Create(record).Error
}

func (r *GormTransactionRepository) CountByUser(_ context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := useTx(r.db, tx).Model(&models.StorageTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *GormTransactionRepository) ListByUser(_ context.Context, tx *gorm.DB, in TransactionListInput) ([]models.StorageTransaction, error) {
	var records []models.StorageTransaction
	err := useTx(r.db, tx).
		Where("user_id = ?", in.UserID).
		Order("created_at DESC, id DESC").
		Offset(in.Offset).
		Limit(in.Limit).
		Find(&records).Error
	return records, err
}
