package service

import (
	"context"
	"strconv"
	"strings"

	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

// ==================== CategoryService 产品类目服务 ====================

// CategoryInfo 对外暴露的类目信息
type CategoryInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryService 产品类目服务
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	audit        *AuditService
}

// NewCategoryService 创建类目服务
func NewCategoryService(categoryRepo repository.CategoryRepository, audit *AuditService) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, audit: audit}
}

// List 列出类目。类目表没建好时给出明确的迁移提示，
// 不能和普通数据库错误混在一起。
func (s *CategoryService) List(ctx context.Context) ([]CategoryInfo, error) {
	if !s.categoryRepo.HasTable(ctx) {
		return nil, ErrCategoryNotMigrated
	}

	categories, err := s.categoryRepo.List(ctx, 500)
	if err != nil {
		return nil, err
	}

	infos := make([]CategoryInfo, 0, len(categories))
	for _, c := range categories {
		infos = append(infos, CategoryInfo{ID: c.ID, Name: c.Name})
	}
	return infos, nil
}

// Create 创建类目
func (s *CategoryService) Create(ctx context.Context, name string) (*CategoryInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if !s.categoryRepo.HasTable(ctx) {
		return nil, ErrCategoryNotMigrated
	}

	existing, err := s.categoryRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	category := model.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		// 软删除的同名记录仍占着唯一索引
		if isDuplicateKeyError(err) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}

	err = s.audit.Log(ctx, "category.create", "category", strconv.FormatInt(category.ID, 10), map[string]interface{}{
		"name": category.Name,
	})
	if err != nil {
		return nil, err
	}

	return &CategoryInfo{ID: category.ID, Name: category.Name}, nil
}

// Rename 重命名类目
func (s *CategoryService) Rename(ctx context.Context, id int64, name string) (*CategoryInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	category.Name = name
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}

	err = s.audit.Log(ctx, "category.update", "category", strconv.FormatInt(id, 10), map[string]interface{}{
		"name": name,
	})
	if err != nil {
		return nil, err
	}

	return &CategoryInfo{ID: category.ID, Name: category.Name}, nil
}

// Delete 删除类目
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	return s.audit.Log(ctx, "category.delete", "category", strconv.FormatInt(id, 10), map[string]interface{}{
		"name": category.Name,
	})
}

// isDuplicateKeyError 唯一索引冲突（postgres 23505 / sqlite UNIQUE）
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "23505")
}
