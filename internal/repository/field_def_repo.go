package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zhifan_ops_v1/internal/model"
)

// ==================== FieldDefRepository 字段定义仓库 ====================

// FieldDefRepository 记录类型的字段定义，schema 链的第一级来源
type FieldDefRepository interface {
	ListByType(ctx context.Context, recordType string) ([]string, error)
	SaveIfAbsent(ctx context.Context, recordType string, fieldKeys []string) error
}

type fieldDefRepository struct {
	db *gorm.DB
}

// NewFieldDefRepository 创建字段定义仓库
func NewFieldDefRepository(db *gorm.DB) FieldDefRepository {
	return &fieldDefRepository{db: db}
}

// ListByType 按 sort_order 正序返回字段名，空 sort_order 排最后；
// 表不存在等 SQL 错误按无定义处理
func (r *fieldDefRepository) ListByType(ctx context.Context, recordType string) ([]string, error) {
	var defs []model.RecordFieldDef
	err := r.db.WithContext(ctx).
		Where("record_type = ?", recordType).
		Order("(sort_order IS NULL), sort_order, field_key").
		Find(&defs).Error
	if err != nil {
		return nil, nil
	}

	keys := make([]string, 0, len(defs))
	for _, d := range defs {
		keys = append(keys, d.FieldKey)
	}
	return keys, nil
}

// SaveIfAbsent 批量写入字段定义，已存在的 (record_type, field_key) 跳过，
// sort_order 按传入顺序从 1 开始
func (r *fieldDefRepository) SaveIfAbsent(ctx context.Context, recordType string, fieldKeys []string) error {
	if len(fieldKeys) == 0 {
		return nil
	}

	defs := make([]model.RecordFieldDef, 0, len(fieldKeys))
	for i, key := range fieldKeys {
		order := i + 1
		defs = append(defs, model.RecordFieldDef{
			RecordType: recordType,
			FieldKey:   key,
			SortOrder:  &order,
		})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defs).Error
}
