package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/spanel_go_server/internal/model"
)

type TrafficRepository struct {
	db *gorm.DB
}

func NewTrafficRepository(db *gorm.DB) *TrafficRepository {
	return &TrafficRepository{db: db}
}

// UpsertSnapshots 写入当日快照，同一天重复执行时覆盖
func (r *TrafficRepository) UpsertSnapshots(logs []model.TrafficLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"u", "d"}),
	}).Create(&logs).Error
}

// ListByUserSince 按日期升序返回 sinceDate（含）之后的快照
func (r *TrafficRepository) ListByUserSince(userID int64, sinceDate string) ([]model.TrafficLog, error) {
	var logs []model.TrafficLog
	err := r.db.Where("user_id = ? AND log_date >= ?", userID, sinceDate).
		Order("log_date ASC").
		Find(&logs).Error
	return logs, err
}

func (r *TrafficRepository) CountBefore(date string) (int64, error) {
	var count int64
	err := r.db.Model(&model.TrafficLog{}).Where("log_date < ?", date).Count(&count).Error
	return count, err
}

func (r *TrafficRepository) DeleteBefore(date string) (int64, error) {
	result := r.db.Where("log_date < ?", date).Delete(&model.TrafficLog{})
	return result.RowsAffected, result.Error
}
