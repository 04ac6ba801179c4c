package model

import (
	"time"

	"gorm.io/datatypes"
)

// WorkspaceRecord Blob 布局：每条记录一个 JSON 文档，按 workspace_key 分区
type WorkspaceRecord struct {
	BaseModel
	WorkspaceKey string         `gorm:"size:64;not null;index" json:"workspace_key"`
	Data         datatypes.JSON `json:"data"`
}

func (WorkspaceRecord) TableName() string {
	return "workspace_records"
}

// RecordRow Normalized 布局的主表行，字段值全部在旁表。
// 实际表名由各记录类型决定（purchase_records 等），建表和查询时
// 通过 db.Table(...) 指定，不做软删除。
type RecordRow struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordField Normalized 布局的旁表行，(record_id, field_key) 唯一。
// 空白值不落库：无行即为空。
type RecordField struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	RecordID   int64  `gorm:"column:record_id;not null;uniqueIndex:uk_record_field"`
	FieldKey   string `gorm:"size:191;not null;uniqueIndex:uk_record_field"`
	FieldValue string `gorm:"type:text"`
}

// RecordFieldDef 字段定义缓存表：某记录类型第一次从非权威来源
// （CSV / 既有数据）解析出字段列表后落库，之后以它为准
type RecordFieldDef struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	RecordType string `gorm:"size:64;not null;uniqueIndex:uk_type_field"`
	FieldKey   string `gorm:"size:191;not null;uniqueIndex:uk_type_field"`
	SortOrder  *int
	CreatedAt  time.Time
}

func (RecordFieldDef) TableName() string {
	return "record_field_defs"
}
