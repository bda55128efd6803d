package repositories

import (
	"context"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"gorm.io/gorm"
)

type GormResourceRepository struct {
	db *gorm.DB
}

func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

func (r *GormResourceRepository) SumByUser(_ context.Context, tx *gorm.DB, userID uint) (map[string]ResourceTally, error) {
	var rows []struct {
		ResourceType string
		SizeBytes    int64
		Count        int64
	}

	err := useTx(r.db, tx).Model(&models.ContentResource{}).
		Select("resource_type, COALESCE(SUM(size_bytes), 0) AS size_bytes, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("resource_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	tallies := make(map[string]ResourceTally, len(rows))
	for _, row := range rows {
		tallies[row.ResourceType] = ResourceTally{SizeBytes: row.SizeBytes, Count: row.Count}
	}
	return tallies, nil
}
