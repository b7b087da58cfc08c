package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) WithTx(tx *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: tx}
}

func (r *PurchaseRepository) Create(record *model.PurchaseRecord) error {
	return r.db.Create(record).Error
}

func (r *PurchaseRepository) ListByUser(userID int64, page, pageSize int) ([]model.PurchaseRecord, int64, error) {
	var total int64
	if err := r.db.Model(&model.PurchaseRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.PurchaseRecord
	err := r.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	return records, total, err
}

func (r *PurchaseRepository) CountByUser(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.PurchaseRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
