package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"zhifan_ops_v1/internal/model"
)

// ==================== OperationLogRepository 操作日志仓库 ====================

// OperationLogFilter 日志筛选条件
type OperationLogFilter struct {
	Action     string
	TargetType string
	ActorID    *int64
	Limit      int
}

// OperationLogRepository 操作日志仓库接口，日志只追加不修改
type OperationLogRepository interface {
	Append(ctx context.Context, entry *model.OperationLog) error
	List(ctx context.Context, filter OperationLogFilter) ([]model.OperationLog, error)
	HasActionToday(ctx context.Context, action string, actorID *int64) (bool, error)
}

type operationLogRepository struct {
	db *gorm.DB
}

// NewOperationLogRepository 创建操作日志仓库
func NewOperationLogRepository(db *gorm.DB) OperationLogRepository {
	return &operationLogRepository{db: db}
}

// Append 追加一条日志
func (r *operationLogRepository) Append(ctx context.Context, entry *model.OperationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List 按时间倒序列出日志
func (r *operationLogRepository) List(ctx context.Context, filter OperationLogFilter) ([]model.OperationLog, error) {
	q := r.db.WithContext(ctx).Model(&model.OperationLog{})
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		q = q.Where("target_type = ?", filter.TargetType)
	}
	if filter.ActorID != nil {
		q = q.Where("actor_user_id = ?", *filter.ActorID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var logs []model.OperationLog
	err := q.Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// HasActionToday 今天（本地时区零点起）是否已记录过该动作，
// 用作批量操作的幂等闸门。actorID 非空时只看该操作人
func (r *operationLogRepository) HasActionToday(ctx context.Context, action string, actorID *int64) (bool, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	q := r.db.WithContext(ctx).Model(&model.OperationLog{}).
		Where("action = ?", action).
		Where("created_at >= ?", dayStart)
	if actorID != nil {
		q = q.Where("actor_user_id = ?", *actorID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}
