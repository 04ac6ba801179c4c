package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zhifan_ops_v1/internal/model"
)

// ==================== RecordStore 纵表记录仓库 ====================

// 单条 SQL 里批量元组的上限，避免语句过大
const fieldChunkSize = 200

// Record 纵表记录的读取结果，Fields 为字段键值对
type Record struct {
	ID        int64             `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Fields    map[string]string `json:"fields"`
}

// RecordFilter 列表筛选：按字段子串 + 全文子串
type RecordFilter struct {
	Fields   map[string]string
	FreeText string
	Limit    int
}

// RecordStore 纵表布局的记录仓库：主表一行一条记录，
// 字段表每个非空值一行，空值以"无行"表达
type RecordStore interface {
	List(ctx context.Context, filter RecordFilter) ([]Record, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	Create(ctx context.Context, data map[string]string, allowedFields []string) (int64, error)
	Update(ctx context.Context, id int64, data map[string]string, allowedFields []string) error
	BatchCopyYesterday(ctx context.Context, keepFields []string) (int64, error)
	DistinctFieldKeys(ctx context.Context) ([]string, error)
}

type recordStore struct {
	db         *gorm.DB
	mainTable  string
	fieldTable string
}

// NewRecordStore 创建某一记录类型的纵表仓库，
// 表名为 <type>_records / <type>_record_fields
func NewRecordStore(db *gorm.DB, recordType string) RecordStore {
	return &recordStore{
		db:         db,
		mainTable:  recordType + "_records",
		fieldTable: recordType + "_record_fields",
	}
}

// List 按 ID 倒序列出记录。字段筛选和全文筛选都走字段表的
// EXISTS 相关子查询，全部条件同时满足才返回。
func (s *recordStore) List(ctx context.Context, filter RecordFilter) ([]Record, error) {
	q := s.db.WithContext(ctx).Table(s.mainTable)

	for field, value := range filter.Fields {
		if value == "" {
			continue
		}
		q = q.Where(
			"EXISTS (SELECT 1 FROM "+s.fieldTable+" f WHERE f.record_id = "+s.mainTable+".id AND f.field_key = ? AND f.field_value LIKE ?)",
			field, "%"+value+"%",
		)
	}
	if filter.FreeText != "" {
		q = q.Where(
			"EXISTS (SELECT 1 FROM "+s.fieldTable+" f WHERE f.record_id = "+s.mainTable+".id AND f.field_value LIKE ?)",
			"%"+filter.FreeText+"%",
		)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	var rows []model.RecordRow
	if err := q.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.attachFields(ctx, rows)
}

// GetByID 根据 ID 获取记录
func (s *recordStore) GetByID(ctx context.Context, id int64) (*Record, error) {
	var rows []model.RecordRow
	err := s.db.WithContext(ctx).Table(s.mainTable).
		Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records, err := s.attachFields(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// Create 创建记录。只保留 allowedFields 里的键（传 nil 表示不限制），
// 值去首尾空白，空值不落行。
func (s *recordStore) Create(ctx context.Context, data map[string]string, allowedFields []string) (int64, error) {
	values := cleanFieldValues(data, allowedFields)

	var id int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.RecordRow{}
		if err := tx.Table(s.mainTable).Create(&row).Error; err != nil {
			return err
		}
		id = row.ID
		return s.insertFields(tx, id, values)
	})
	return id, err
}

// Update 更新记录。只改动传入的键：非空值 upsert，空值删行，
// 主表时间戳与字段表改动在同一事务里。
// 记录不存在时返回 gorm.ErrRecordNotFound。
func (s *recordStore) Update(ctx context.Context, id int64, data map[string]string, allowedFields []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table(s.mainTable).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Table(s.mainTable).Where("id = ?", id).
			Update("updated_at", time.Now()).Error; err != nil {
			return err
		}

		allowed := fieldSet(allowedFields)
		var upserts []model.RecordField
		var deletes []string
		for key, raw := range data {
			if allowed != nil {
				if _, ok := allowed[key]; !ok {
					continue
				}
			}
			value := strings.TrimSpace(raw)
			if value == "" {
				deletes = append(deletes, key)
				continue
			}
			upserts = append(upserts, model.RecordField{
				RecordID:   id,
				FieldKey:   key,
				FieldValue: value,
			})
		}

		for _, chunk := range chunkFields(upserts) {
			err := tx.Table(s.fieldTable).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "record_id"}, {Name: "field_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"field_value"}),
			}).Create(&chunk).Error
			if err != nil {
				return err
			}
		}
		for _, chunk := range chunkKeys(deletes) {
			err := tx.Table(s.fieldTable).
				Where("record_id = ? AND field_key IN ?", id, chunk).
				Delete(&model.RecordField{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// BatchCopyYesterday 把昨天创建的每条记录复制为一条新记录，
// 只拷贝 keepFields 列出的字段值，返回新建条数。
// 幂等闸门由上层对照操作日志把关，这里只做复制。
func (s *recordStore) BatchCopyYesterday(ctx context.Context, keepFields []string) (int64, error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	var sources []model.RecordRow
	err := s.db.WithContext(ctx).Table(s.mainTable).
		Where("created_at >= ? AND created_at < ?", yesterdayStart, todayStart).
		Order("id ASC").Find(&sources).Error
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		return 0, nil
	}

	sourceIDs := make([]int64, len(sources))
	for i, row := range sources {
		sourceIDs[i] = row.ID
	}

	var copied int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		newRows := make([]model.RecordRow, len(sources))
		if err := tx.Table(s.mainTable).CreateInBatches(&newRows, fieldChunkSize).Error; err != nil {
			return err
		}

		// 源记录按 ID 正序与新记录一一对应
		newIDBySource := make(map[int64]int64, len(sources))
		for i := range sources {
			newIDBySource[sources[i].ID] = newRows[i].ID
		}

		// 没有保留字段就只生成空白记录
		var sourceFields []model.RecordField
		if len(keepFields) > 0 {
			err := tx.Table(s.fieldTable).
				Where("record_id IN ?", sourceIDs).
				Where("field_key IN ?", keepFields).
				Find(&sourceFields).Error
			if err != nil {
				return err
			}
		}

		copies := make([]model.RecordField, 0, len(sourceFields))
		for _, f := range sourceFields {
			copies = append(copies, model.RecordField{
				RecordID:   newIDBySource[f.RecordID],
				FieldKey:   f.FieldKey,
				FieldValue: f.FieldValue,
			})
		}
		for _, chunk := range chunkFields(copies) {
			if err := tx.Table(s.fieldTable).Create(&chunk).Error; err != nil {
				return err
			}
		}

		copied = int64(len(newRows))
		return nil
	})
	return copied, err
}

// DistinctFieldKeys 字段表里出现过的字段名，按首次出现顺序返回。
// 供 schema 推断兜底使用，SQL 出错按无数据处理。
func (s *recordStore) DistinctFieldKeys(ctx context.Context) ([]string, error) {
	type keyRow struct {
		FieldKey string
	}
	var rows []keyRow
	err := s.db.WithContext(ctx).Table(s.fieldTable).
		Select("field_key, MIN(id) AS first_id").
		Group("field_key").
		Order("first_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, nil
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.FieldKey)
	}
	return keys, nil
}

// attachFields 为一页主表行装配字段键值对
func (s *recordStore) attachFields(ctx context.Context, rows []model.RecordRow) ([]Record, error) {
	records := make([]Record, len(rows))
	if len(rows) == 0 {
		return records, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		records[i] = Record{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			Fields:    map[string]string{},
		}
	}

	var fields []model.RecordField
	err := s.db.WithContext(ctx).Table(s.fieldTable).
		Where("record_id IN ?", ids).Find(&fields).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]map[string]string, len(rows))
	for i := range records {
		byID[records[i].ID] = records[i].Fields
	}
	for _, f := range fields {
		if m, ok := byID[f.RecordID]; ok {
			m[f.FieldKey] = f.FieldValue
		}
	}
	return records, nil
}

func (s *recordStore) insertFields(tx *gorm.DB, id int64, values map[string]string) error {
	rows := make([]model.RecordField, 0, len(values))
	for key, value := range values {
		rows = append(rows, model.RecordField{
			RecordID:   id,
			FieldKey:   key,
			FieldValue: value,
		})
	}
	for _, chunk := range chunkFields(rows) {
		if err := tx.Table(s.fieldTable).Create(&chunk).Error; err != nil {
			return err
		}
	}
	return nil
}

// cleanFieldValues 限定字段集合、去空白、丢弃空值
func cleanFieldValues(data map[string]string, allowedFields []string) map[string]string {
	allowed := fieldSet(allowedFields)
	out := make(map[string]string, len(data))
	for key, raw := range data {
		if allowed != nil {
			if _, ok := allowed[key]; !ok {
				continue
			}
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func fieldSet(fields []string) map[string]struct{} {
	if fields == nil {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func chunkFields(rows []model.RecordField) [][]model.RecordField {
	var chunks [][]model.RecordField
	for len(rows) > 0 {
		n := len(rows)
		if n > fieldChunkSize {
			n = fieldChunkSize
		}
		chunks = append(chunks, rows[:n])
		rows = rows[n:]
	}
	return chunks
}

func chunkKeys(keys []string) [][]string {
	var chunks [][]string
	for len(keys) > 0 {
		n := len(keys)
		if n > fieldChunkSize {
			n = fieldChunkSize
		}
		chunks = append(chunks, keys[:n])
		keys = keys[n:]
	}
	return chunks
}
