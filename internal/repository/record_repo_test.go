package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zhifan_ops_v1/internal/model"
)

func setupRecordTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.Table("purchase_records").AutoMigrate(&model.RecordRow{}); err != nil {
		t.Fatalf("主表迁移失败: %v", err)
	}
	if err := db.Table("purchase_record_fields").AutoMigrate(&model.RecordField{}); err != nil {
		t.Fatalf("字段表迁移失败: %v", err)
	}

	return db
}

func TestRecordStoreCreateSkipsEmptyValues(t *testing.T) {
	db := setupRecordTestDB(t)
	store := NewRecordStore(db, "purchase")
	ctx := context.Background()

	id, err := store.Create(ctx, map[string]string{
		"产品名称": "木质相框",
		"SKU":  "  A-001  ",
		"备注":   "   ",
		"无关字段": "x",
	}, []string{"产品名称", "SKU", "备注"})
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("读取记录失败: %v", err)
	}
	if got == nil {
		t.Fatal("记录应存在")
	}
	if got.Fields["产品名称"] != "木质相框" {
		t.Errorf("产品名称 = %q", got.Fields["产品名称"])
	}
	if got.Fields["SKU"] != "A-001" {
		t.Errorf("值应去首尾空白: %q", got.Fields["SKU"])
	}
	if _, ok := got.Fields["备注"]; ok {
		t.Error("空值不应落行")
	}
	if _, ok := got.Fields["无关字段"]; ok {
		t.Error("字段表外的键应被丢弃")
	}
}

func TestRecordStoreUpdate(t *testing.T) {
	db := setupRecordTestDB(t)
	store := NewRecordStore(db, "purchase")
	ctx := context.Background()

	id, err := store.Create(ctx, map[string]string{
		"产品名称": "木质相框",
		"状态":   "进行中",
	}, nil)
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	// 非空值 upsert，空值删行，未提及的键不动
	err = store.Update(ctx, id, map[string]string{
		"产品名称": "金属相框",
		"状态":   "",
	}, nil)
	if err != nil {
		t.Fatalf("更新记录失败: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("读取记录失败: %v", err)
	}
	if got.Fields["产品名称"] != "金属相框" {
		t.Errorf("更新后的产品名称 = %q", got.Fields["产品名称"])
	}
	if _, ok := got.Fields["状态"]; ok {
		t.Error("置空的字段应被删行")
	}
}

func TestRecordStoreUpdateNotFound(t *testing.T) {
	db := setupRecordTestDB(t)
	store := NewRecordStore(db, "purchase")

	err := store.Update(context.Background(), 9999, map[string]string{"产品名称": "x"}, nil)
	if err != gorm.ErrRecordNotFound {
		t.Errorf("不存在的记录应返回 ErrRecordNotFound, 实际: %v", err)
	}
}

func TestRecordStoreListFilters(t *testing.T) {
	db := setupRecordTestDB(t)
	store := NewRecordStore(db, "purchase")
	ctx := context.Background()

	if _, err := store.Create(ctx, map[string]string{"产品名称": "木质相框", "店铺": "A店"}, nil); err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}
	if _, err := store.Create(ctx, map[string]string{"产品名称": "金属摆件", "店铺": "B店"}, nil); err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	// 按字段子串
	records, err := store.List(ctx, RecordFilter{Fields: map[string]string{"产品名称": "相框"}})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 1 || records[0].Fields["店铺"] != "A店" {
		t.Errorf("字段筛选结果错误: %+v", records)
	}

	// 全文子串命中任意字段
	records, err = store.List(ctx, RecordFilter{FreeText: "B店"})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 1 || records[0].Fields["产品名称"] != "金属摆件" {
		t.Errorf("全文筛选结果错误: %+v", records)
	}

	// 多条件同时满足
	records, err = store.List(ctx, RecordFilter{
		Fields:   map[string]string{"产品名称": "相框"},
		FreeText: "B店",
	})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("互斥条件不应有结果: %+v", records)
	}

	// 无条件按 ID 倒序
	records, err = store.List(ctx, RecordFilter{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 2 || records[0].ID < records[1].ID {
		t.Errorf("应按 ID 倒序: %+v", records)
	}
}

func TestRecordStoreBatchCopyYesterday(t *testing.T) {
	db := setupRecordTestDB(t)
	store := NewRecordStore(db, "purchase")
	ctx := context.Background()

	id1, err := store.Create(ctx, map[string]string{"产品名称": "相框", "状态": "进行中", "备注": "老备注"}, nil)
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}
	id2, err := store.Create(ctx, map[string]string{"产品名称": "摆件"}, nil)
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	// 把两条源记录的创建时间拨回昨天
	yesterday := time.Now().AddDate(0, 0, -1)
	err = db.Table("purchase_records").
		Where("id IN ?", []int64{id1, id2}).
		Update("created_at", yesterday).Error
	if err != nil {
		t.Fatalf("回拨创建时间失败: %v", err)
	}

	copied, err := store.BatchCopyYesterday(ctx, []string{"产品名称", "状态"})
	if err != nil {
		t.Fatalf("批量复制失败: %v", err)
	}
	if copied != 2 {
		t.Fatalf("应复制 2 条, 实际 %d", copied)
	}

	records, err := store.List(ctx, RecordFilter{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("应共有 4 条记录, 实际 %d", len(records))
	}

	// 新记录只带保留字段
	byName := map[string]Record{}
	for _, r := range records {
		if r.ID != id1 && r.ID != id2 {
			byName[r.Fields["产品名称"]] = r
		}
	}
	copy1, ok := byName["相框"]
	if !ok {
		t.Fatal("缺少相框的副本")
	}
	if copy1.Fields["状态"] != "进行中" {
		t.Errorf("保留字段未复制: %+v", copy1.Fields)
	}
	if _, ok := copy1.Fields["备注"]; ok {
		t.Error("未列入保留字段的值不应复制")
	}
	if _, ok := byName["摆件"]; !ok {
		t.Error("缺少摆件的副本")
	}

	// 今天创建的副本不会被再次当成源
	copied, err = store.BatchCopyYesterday(ctx, []string{"产品名称"})
	if err != nil {
		t.Fatalf("批量复制失败: %v", err)
	}
	if copied != 2 {
		t.Errorf("昨天仍是同样两条源记录, 实际复制 %d", copied)
	}
}

func TestRecordStoreDistinctFieldKeys(t *testing.T) {
	db := setupRecordTestDB(t)
	store := NewRecordStore(db, "purchase")
	ctx := context.Background()

	if _, err := store.Create(ctx, map[string]string{"产品名称": "相框"}, []string{"产品名称"}); err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}
	if _, err := store.Create(ctx, map[string]string{"产品名称": "摆件", "店铺": "A店"}, nil); err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	keys, err := store.DistinctFieldKeys(ctx)
	if err != nil {
		t.Fatalf("读取字段名失败: %v", err)
	}
	if len(keys) != 2 || keys[0] != "产品名称" || keys[1] != "店铺" {
		t.Errorf("字段名应按首次出现顺序去重: %v", keys)
	}
}

func TestRecordStoreBatchCopyEmptyKeepList(t *testing.T) {
	db := setupRecordTestDB(t)
	store := NewRecordStore(db, "purchase")
	ctx := context.Background()

	id, err := store.Create(ctx, map[string]string{"产品名称": "样品", "成本总计": "36"}, nil)
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}
	err = db.Table("purchase_records").
		Where("id = ?", id).
		Update("created_at", time.Now().AddDate(0, 0, -1)).Error
	if err != nil {
		t.Fatalf("回拨创建时间失败: %v", err)
	}

	// 保留字段为空时只生成空白记录，不能整行照搬
	copied, err := store.BatchCopyYesterday(ctx, nil)
	if err != nil {
		t.Fatalf("批量复制失败: %v", err)
	}
	if copied != 1 {
		t.Fatalf("应复制 1 条, 实际 %d", copied)
	}

	records, err := store.List(ctx, RecordFilter{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	for _, r := range records {
		if r.ID == id {
			continue
		}
		if len(r.Fields) != 0 {
			t.Errorf("空保留列表的副本不应带字段: %+v", r.Fields)
		}
	}
}
