package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"zhifan_ops_v1/internal/model"
)

// ==================== CategoryRepository 类目仓库 ====================

// CategoryRepository 产品类目仓库接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	GetByName(ctx context.Context, name string) (*model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit int) ([]model.Category, error)
	HasTable(ctx context.Context) bool
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建类目仓库
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create 创建类目
func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// GetByID 根据 ID 获取类目
func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByName 根据名称获取类目（不含已软删除的）
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 保存类目
func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete 删除类目（软删除）
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Category{}, id).Error
}

// List 按名称正序列出类目
func (r *categoryRepository) List(ctx context.Context, limit int) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Limit(limit).Find(&categories).Error
	return categories, err
}

// HasTable 类目表是否已建
func (r *categoryRepository) HasTable(ctx context.Context) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(&model.Category{})
}
