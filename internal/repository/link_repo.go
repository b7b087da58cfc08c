package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
)

type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) WithTx(tx *gorm.DB) *LinkRepository {
	return &LinkRepository{db: tx}
}

func (r *LinkRepository) Create(link *model.SubscriptionLink) error {
	return r.db.Create(link).Error
}

func (r *LinkRepository) GetByToken(token string) (*model.SubscriptionLink, error) {
	var link model.SubscriptionLink
	err := r.db.Where("token = ?", token).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *LinkRepository) GetByUserID(userID int64) (*model.SubscriptionLink, error) {
	var link model.SubscriptionLink
	err := r.db.Where("user_id = ?", userID).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *LinkRepository) DeleteByUserID(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.SubscriptionLink{}).Error
}

const orphanLinkCondition = "user_id NOT IN (SELECT id FROM users)"

// CountOrphans 对应用户已不存在的链接数量
func (r *LinkRepository) CountOrphans() (int64, error) {
	var count int64
	err := r.db.Model(&model.SubscriptionLink{}).Where(orphanLinkCondition).Count(&count).Error
	return count, err
}

func (r *LinkRepository) DeleteOrphans() (int64, error) {
	result := r.db.Where(orphanLinkCondition).Delete(&model.SubscriptionLink{})
	return result.RowsAffected, result.Error
}
