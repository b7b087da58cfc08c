package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/spanel_go_server/internal/model"
)

type CodeRepository struct {
	db *gorm.DB
}

func NewCodeRepository(db *gorm.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

func (r *CodeRepository) WithTx(tx *gorm.DB) *CodeRepository {
	return &CodeRepository{db: tx}
}

// CreateBatch 批量插入，code 冲突的行被忽略，返回实际插入行数
func (r *CodeRepository) CreateBatch(codes []model.RedemptionCode) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(codes, 200)
	return result.RowsAffected, result.Error
}

func (r *CodeRepository) GetByCode(code string) (*model.RedemptionCode, error) {
	var rc model.RedemptionCode
	err := r.db.Where("code = ?", code).First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// MarkUsed 条件更新 is_used，只有一个调用方能成功
func (r *CodeRepository) MarkUsed(code string, userID int64, at time.Time) (bool, error) {
	result := r.db.Model(&model.RedemptionCode{}).
		Where("code = ? AND is_used = ?", code, false).
		Updates(map[string]interface{}{
			"is_used": true,
			"user_id": userID,
			"used_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountUsedSince 用户在 since 之后兑换成功的次数
func (r *CodeRepository) CountUsedSince(userID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.RedemptionCode{}).
		Where("user_id = ? AND used_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// List 分页查询，used 为 nil 时不过滤
func (r *CodeRepository) List(used *bool, page, pageSize int) ([]model.RedemptionCode, int64, error) {
	q := r.db.Model(&model.RedemptionCode{})
	if used != nil {
		q = q.Where("is_used = ?", *used)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var codes []model.RedemptionCode
	err := q.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&codes).Error
	return codes, total, err
}

// CountUsedBefore 使用时间早于 before 的充值码数量
func (r *CodeRepository) CountUsedBefore(before time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.RedemptionCode{}).
		Where("is_used = ? AND used_at < ?", true, before).
		Count(&count).Error
	return count, err
}

// DeleteUsedBefore 删除使用时间早于 before 的充值码
func (r *CodeRepository) DeleteUsedBefore(before time.Time) (int64, error) {
	result := r.db.Where("is_used = ? AND used_at < ?", true, before).
		Delete(&model.RedemptionCode{})
	return result.RowsAffected, result.Error
}
