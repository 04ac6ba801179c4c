package service

import (
	"context"
	"time"

	"zhifan_ops_v1/internal/repository"
	"zhifan_ops_v1/internal/workspace"
	"zhifan_ops_v1/pkg/utils"
)

// ==================== SchemaService 字段 schema 服务 ====================

// schemaSource 某记录类型的 schema 推断来源
type schemaSource struct {
	csvFile       string
	csvHeaderRows int
	fallback      []string
}

// 各记录类型的 CSV 来源与兜底字段表
var defaultSchemaSources = map[string]schemaSource{
	"purchase": {
		csvFile:       "SkyNest订货明细2025.csv",
		csvHeaderRows: 2,
		fallback:      workspace.SkynestPurchaseFields2025,
	},
	"sales_ops": {
		csvFile:       "至繁运营管理表_运营链接日常跟踪表_表格.csv",
		csvHeaderRows: 1,
		fallback:      workspace.ZhifanSalesOpsFields,
	},
	"inventory": {
		fallback: workspace.InventoryTurnoverFields,
	},
	"penalty_amount": {
		csvFile:       "temu导出的收入数据__支出-履约违规-1.csv",
		csvHeaderRows: 1,
		fallback:      workspace.TemuPenaltyAmountFields,
	},
	"warehouse_cost": {
		csvFile:       "fee_Detail_20251218103822435192__全部费用.csv",
		csvHeaderRows: 1,
		fallback:      workspace.WarehouseCostFields,
	},
}

// SchemaService 解析每种记录类型的有序字段表。
// 推断优先级：字段定义表 → 已有记录的字段名 → CSV 表头 → 兜底常量；
// 后三种来源的结果会回写进字段定义表。
type SchemaService struct {
	fieldDefRepo repository.FieldDefRepository
	stores       map[string]repository.RecordStore
	cache        *utils.TTLCache
	sources      map[string]schemaSource
}

// NewSchemaService 创建 schema 服务
func NewSchemaService(fieldDefRepo repository.FieldDefRepository, stores map[string]repository.RecordStore) *SchemaService {
	return &SchemaService{
		fieldDefRepo: fieldDefRepo,
		stores:       stores,
		cache:        utils.NewTTLCache(3*time.Second, nil),
		sources:      defaultSchemaSources,
	}
}

// SetCache 替换缓存（测试用）
func (s *SchemaService) SetCache(cache *utils.TTLCache) {
	s.cache = cache
}

// Resolve 解析记录类型的字段表
func (s *SchemaService) Resolve(ctx context.Context, recordType string) ([]string, error) {
	if cached, ok := s.cache.Get(recordType); ok {
		return cached, nil
	}

	// 1. 字段定义表
	keys, err := s.fieldDefRepo.ListByType(ctx, recordType)
	if err == nil && len(keys) > 0 {
		s.cache.Set(recordType, keys)
		return keys, nil
	}

	keys = s.inferFields(ctx, recordType)
	if len(keys) > 0 {
		// 回写便于后续人工调整顺序
		_ = s.fieldDefRepo.SaveIfAbsent(ctx, recordType, keys)
	}
	s.cache.Set(recordType, keys)
	return keys, nil
}

func (s *SchemaService) inferFields(ctx context.Context, recordType string) []string {
	// 2. 已有记录出现过的字段名
	if store, ok := s.stores[recordType]; ok {
		if keys, err := store.DistinctFieldKeys(ctx); err == nil && len(keys) > 0 {
			return keys
		}
	}

	source := s.sources[recordType]

	// 3. CSV 表头
	if source.csvFile != "" {
		if path := utils.FindDataFile(source.csvFile); path != "" {
			if keys, err := utils.ParseCSVHeader(path, source.csvHeaderRows); err == nil && len(keys) > 0 {
				return keys
			}
		}
	}

	// 4. 兜底常量
	return source.fallback
}
