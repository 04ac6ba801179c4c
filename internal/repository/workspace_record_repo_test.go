package repository

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zhifan_ops_v1/internal/model"
)

func setupWorkspaceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.WorkspaceRecord{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func mustJSON(t *testing.T, data map[string]string) datatypes.JSON {
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	return datatypes.JSON(raw)
}

func TestWorkspaceRecordListByField(t *testing.T) {
	db := setupWorkspaceTestDB(t)
	repo := NewWorkspaceRecordRepository(db)
	ctx := context.Background()

	records := []model.WorkspaceRecord{
		{WorkspaceKey: "ops.purchase", Data: mustJSON(t, map[string]string{"产品名称": "木质相框", "状态": "进行中"})},
		{WorkspaceKey: "ops.purchase", Data: mustJSON(t, map[string]string{"产品名称": "金属摆件", "状态": "已完成"})},
		{WorkspaceKey: "finance.profit", Data: mustJSON(t, map[string]string{"产品名称": "木质相框"})},
	}
	for i := range records {
		if err := repo.Create(ctx, &records[i]); err != nil {
			t.Fatalf("创建记录失败: %v", err)
		}
	}

	// 字段子串匹配 + 工作区隔离
	got, err := repo.List(ctx, "ops.purchase", WorkspaceRecordFilter{
		Fields: map[string]string{"产品名称": "相框"},
	})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(got) != 1 || got[0].ID != records[0].ID {
		t.Errorf("字段筛选结果错误: %+v", got)
	}

	// 全文子串
	got, err = repo.List(ctx, "ops.purchase", WorkspaceRecordFilter{FreeText: "已完成"})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(got) != 1 || got[0].ID != records[1].ID {
		t.Errorf("全文筛选结果错误: %+v", got)
	}

	// 无条件按 ID 倒序
	got, err = repo.List(ctx, "ops.purchase", WorkspaceRecordFilter{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(got) != 2 || got[0].ID != records[1].ID {
		t.Errorf("应按 ID 倒序: %+v", got)
	}
}

func TestWorkspaceRecordGetUpdateDelete(t *testing.T) {
	db := setupWorkspaceTestDB(t)
	repo := NewWorkspaceRecordRepository(db)
	ctx := context.Background()

	record := model.WorkspaceRecord{
		WorkspaceKey: "ops.purchase",
		Data:         mustJSON(t, map[string]string{"产品名称": "相框"}),
	}
	if err := repo.Create(ctx, &record); err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	// 工作区不匹配时读不到
	got, err := repo.GetByID(ctx, "finance.profit", record.ID)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if got != nil {
		t.Error("跨工作区不应读到记录")
	}

	got, err = repo.GetByID(ctx, "ops.purchase", record.ID)
	if err != nil || got == nil {
		t.Fatalf("读取失败: %v %v", got, err)
	}

	got.Data = mustJSON(t, map[string]string{"产品名称": "金属摆件"})
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("更新失败: %v", err)
	}

	again, err := repo.GetByID(ctx, "ops.purchase", record.ID)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	var data map[string]string
	if err := json.Unmarshal(again.Data, &data); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if data["产品名称"] != "金属摆件" {
		t.Errorf("更新后的数据错误: %v", data)
	}

	// 软删除后列表与读取都不可见
	if err := repo.Delete(ctx, "ops.purchase", record.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	gone, err := repo.GetByID(ctx, "ops.purchase", record.ID)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if gone != nil {
		t.Error("软删除后不应读到记录")
	}
}
