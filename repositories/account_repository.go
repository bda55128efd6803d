package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) GetByUserID(_ context.Context, tx *gorm.DB, userID uint) (models.StorageAccount, error) {
	var account models.StorageAccount
	err := useTx(r.db, tx).Where("user_id = ?", userID).First(&account).Error
	return account, err
}

func (r *GormAccountRepository) EnsureExists(_ context.Context, tx *gorm.DB, account *models.StorageAccount) error {
	return useTx(r.db, tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(account).Error
}

// counterColumns maps a resource type to its byte and count column names.
func counterColumns(resourceType string) (string, string, error) {
	switch resourceType {
	case models.ResourceTypeImage:
		return "image_bytes", "image_count", nil
	case models.ResourceTypeDocument:
		return "document_bytes", "document_count", nil
	case models.ResourceTypeArticle:
		return "article_bytes", "article_count", nil
	}
	return "", "", fmt.Errorf("unknown resource type: %s", resourceType)
}

func (r *GormAccountRepository) AddUsage(_ context.Context, tx *gorm.DB, userID uint, resourceType string, deltaBytes int64, deltaCount int64) error {
	byteCol, countCol, err := counterColumns(resourceType)
	if err != nil {
		return err
	}

	// Removals clamp at zero; an over-removal must never drive a counter
	// negative.
	result := useTx(r.db, tx).Model(&models.StorageAccount{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]interface{}{
			byteCol:           gorm.Expr("GREATEST("+byteCol+" + ?, 0)", deltaBytes),
			countCol:          gorm.Expr("GREATEST("+countCol+" + ?, 0)", deltaCount),
			"last_updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormAccountRepository) UpdateQuotaBase(_ context.Context, tx *gorm.DB, userID uint, quotaBytes int64) error {
	result := useTx(r.db, tx).Model(&models.StorageAccount{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"quota_base_bytes": quotaBytes,
			"last_updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormAccountRepository) AddPurchased(_ context.Context, tx *gorm.DB, userID uint, deltaBytes int64) error {
	result := useTx(r.db, tx).Model(&models.StorageAccount{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"purchased_bytes": gorm.Expr("purchased_bytes + ?", deltaBytes),
			"last_updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormAccountRepository) ListUserIDs(_ context.Context, tx *gorm.DB) ([]uint, error) {
	var ids []uint
	err := useTx(r.db, tx).Model(&models.StorageAccount{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
