package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"zhifan_ops_v1/internal/model"
)

// ==================== WorkspaceRecordRepository 工作区记录仓库（整块 JSON 布局） ====================

// WorkspaceRecordFilter 列表筛选：按字段子串 + 全文子串
type WorkspaceRecordFilter struct {
	Fields   map[string]string
	FreeText string
	Limit    int
}

// WorkspaceRecordRepository 按 workspace_key 分区的 JSON 记录仓库
type WorkspaceRecordRepository interface {
	List(ctx context.Context, workspaceKey string, filter WorkspaceRecordFilter) ([]model.WorkspaceRecord, error)
	ListForExport(ctx context.Context, workspaceKey string, limit int) ([]model.WorkspaceRecord, error)
	GetByID(ctx context.Context, workspaceKey string, id int64) (*model.WorkspaceRecord, error)
	Create(ctx context.Context, record *model.WorkspaceRecord) error
	Update(ctx context.Context, record *model.WorkspaceRecord) error
	Delete(ctx context.Context, workspaceKey string, id int64) error
}

type workspaceRecordRepository struct {
	db *gorm.DB
}

// NewWorkspaceRecordRepository 创建工作区记录仓库
func NewWorkspaceRecordRepository(db *gorm.DB) WorkspaceRecordRepository {
	return &workspaceRecordRepository{db: db}
}

// List 按 ID 倒序列出记录，字段筛选用 JSON 取值做子串匹配，
// 全文筛选直接对整个 data 文本做子串匹配
func (r *workspaceRecordRepository) List(ctx context.Context, workspaceKey string, filter WorkspaceRecordFilter) ([]model.WorkspaceRecord, error) {
	q := r.db.WithContext(ctx).Model(&model.WorkspaceRecord{}).
		Where("workspace_key = ?", workspaceKey)

	for field, value := range filter.Fields {
		if value == "" {
			continue
		}
		// postgres 与 sqlite 的 JSON 取值语法不同
		if r.db.Dialector.Name() == "postgres" {
			q = q.Where("data ->> ? LIKE ?", field, "%"+value+"%")
		} else {
			q = q.Where("json_extract(data, ?) LIKE ?", "$."+field, "%"+value+"%")
		}
	}
	if filter.FreeText != "" {
		q = q.Where("CAST(data AS TEXT) LIKE ?", "%"+filter.FreeText+"%")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	var records []model.WorkspaceRecord
	err := q.Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}

// ListForExport 导出用的大页列表，按 ID 正序
func (r *workspaceRecordRepository) ListForExport(ctx context.Context, workspaceKey string, limit int) ([]model.WorkspaceRecord, error) {
	if limit <= 0 {
		limit = 5000
	}
	var records []model.WorkspaceRecord
	err := r.db.WithContext(ctx).
		Where("workspace_key = ?", workspaceKey).
		Order("id ASC").Limit(limit).Find(&records).Error
	return records, err
}

// GetByID 根据 ID 获取工作区内的记录
func (r *workspaceRecordRepository) GetByID(ctx context.Context, workspaceKey string, id int64) (*model.WorkspaceRecord, error) {
	var record model.WorkspaceRecord
	err := r.db.WithContext(ctx).
		Where("workspace_key = ?", workspaceKey).
		First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create 创建记录
func (r *workspaceRecordRepository) Create(ctx context.Context, record *model.WorkspaceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Update 整体替换 data 文档
func (r *workspaceRecordRepository) Update(ctx context.Context, record *model.WorkspaceRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Delete 软删除
func (r *workspaceRecordRepository) Delete(ctx context.Context, workspaceKey string, id int64) error {
	return r.db.WithContext(ctx).
		Where("workspace_key = ?", workspaceKey).
		Delete(&model.WorkspaceRecord{}, id).Error
}
