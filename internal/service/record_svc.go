package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"zhifan_ops_v1/internal/derive"
	"zhifan_ops_v1/internal/repository"
)

// ==================== RecordService 纵表记录服务 ====================

// RecordService 纵表布局记录的 CRUD 与批量操作
type RecordService struct {
	stores map[string]repository.RecordStore
	schema *SchemaService
	audit  *AuditService
}

// NewRecordService 创建纵表记录服务
func NewRecordService(stores map[string]repository.RecordStore, schema *SchemaService, audit *AuditService) *RecordService {
	return &RecordService{stores: stores, schema: schema, audit: audit}
}

// Schema 记录类型的有序字段表
func (s *RecordService) Schema(ctx context.Context, recordType string) ([]string, error) {
	if _, ok := defaultSchemaSources[recordType]; !ok {
		return nil, ErrRecordNotFound
	}
	return s.schema.Resolve(ctx, recordType)
}

// List 筛选列出记录
func (s *RecordService) List(ctx context.Context, recordType string, filter repository.RecordFilter) ([]repository.Record, error) {
	store, ok := s.stores[recordType]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return store.List(ctx, filter)
}

// Create 创建记录：先跑联动推导，再按 schema 过滤落库
func (s *RecordService) Create(ctx context.Context, recordType string, data map[string]string) (int64, error) {
	store, ok := s.stores[recordType]
	if !ok {
		return 0, ErrRecordNotFound
	}

	fields, err := s.schema.Resolve(ctx, recordType)
	if err != nil {
		return 0, err
	}

	var allowed []string
	if len(fields) > 0 {
		data = derive.DeriveAll(derive.DefaultRules(), fields, data)
		allowed = fields
	}

	id, err := store.Create(ctx, data, allowed)
	if err != nil {
		return 0, err
	}

	err = s.audit.Log(ctx, recordType+".record_create", recordType, strconv.FormatInt(id, 10), nil)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update 更新记录：把补丁合并进现有字段后整体重推导再落库
func (s *RecordService) Update(ctx context.Context, recordType string, id int64, data map[string]string) error {
	store, ok := s.stores[recordType]
	if !ok {
		return ErrRecordNotFound
	}

	fields, err := s.schema.Resolve(ctx, recordType)
	if err != nil {
		return err
	}

	var allowed []string
	if len(fields) > 0 {
		existing, err := store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrRecordNotFound
		}

		merged := make(map[string]string, len(existing.Fields)+len(data))
		for k, v := range existing.Fields {
			merged[k] = v
		}
		for k, v := range data {
			merged[k] = v
		}
		data = derive.DeriveAll(derive.DefaultRules(), fields, merged)
		allowed = fields
	}

	if err := store.Update(ctx, id, data, allowed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	return s.audit.Log(ctx, recordType+".record_update", recordType, strconv.FormatInt(id, 10), nil)
}

// 单次批量新增最多保留的字段数
const maxKeepFields = 50

// BatchCopyYesterday 把昨天的记录整批复制为今天的新记录，
// 只保留指定字段。按操作日志做一天一次的协作式幂等闸门。
func (s *RecordService) BatchCopyYesterday(ctx context.Context, recordType string, keepFields []string) (int64, error) {
	store, ok := s.stores[recordType]
	if !ok {
		return 0, ErrRecordNotFound
	}

	if len(keepFields) == 0 || len(keepFields) > maxKeepFields {
		return 0, ErrInvalidInput
	}
	for _, f := range keepFields {
		if strings.TrimSpace(f) == "" {
			return 0, ErrInvalidInput
		}
	}

	fields, err := s.schema.Resolve(ctx, recordType)
	if err != nil {
		return 0, err
	}
	keep := intersectKeepFields(keepFields, fields)

	action := recordType + ".batch_copy_yesterday"
	ran, err := s.audit.HasRunToday(ctx, action, nil)
	if err != nil {
		return 0, err
	}
	if ran {
		return 0, ErrBatchAlreadyRan
	}

	copied, err := store.BatchCopyYesterday(ctx, keep)
	if err != nil {
		return 0, err
	}
	// 昨天没有记录时不落闸门，当天晚些时候还能再试
	if copied == 0 {
		return 0, nil
	}

	err = s.audit.Log(ctx, action, recordType, "", map[string]interface{}{
		"inserted": copied,
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// intersectKeepFields 去空白、去重，并剔除 schema 之外的字段
func intersectKeepFields(keepFields, schemaFields []string) []string {
	allowed := make(map[string]struct{}, len(schemaFields))
	for _, f := range schemaFields {
		allowed[f] = struct{}{}
	}

	seen := make(map[string]struct{}, len(keepFields))
	keep := make([]string, 0, len(keepFields))
	for _, f := range keepFields {
		f = strings.TrimSpace(f)
		if _, ok := allowed[f]; !ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keep = append(keep, f)
	}
	return keep
}
