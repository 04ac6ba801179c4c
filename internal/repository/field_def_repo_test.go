package repository

import (
	"context"
	"reflect"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zhifan_ops_v1/internal/model"
)

func setupFieldDefTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.RecordFieldDef{}, &model.OperationLog{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func TestFieldDefSaveAndList(t *testing.T) {
	db := setupFieldDefTestDB(t)
	repo := NewFieldDefRepository(db)
	ctx := context.Background()

	err := repo.SaveIfAbsent(ctx, "purchase", []string{"产品名称", "SKU", "状态"})
	if err != nil {
		t.Fatalf("写入字段定义失败: %v", err)
	}

	// 再次写入不同顺序不覆盖已有的 sort_order
	err = repo.SaveIfAbsent(ctx, "purchase", []string{"状态", "产品名称", "新字段"})
	if err != nil {
		t.Fatalf("二次写入失败: %v", err)
	}

	keys, err := repo.ListByType(ctx, "purchase")
	if err != nil {
		t.Fatalf("读取字段定义失败: %v", err)
	}
	// 首次写入的顺序保留，新字段排在它自己的插入位置
	want := []string{"产品名称", "SKU", "新字段", "状态"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("字段顺序 %v, 期望 %v", keys, want)
	}

	other, err := repo.ListByType(ctx, "sales_ops")
	if err != nil {
		t.Fatalf("读取字段定义失败: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("其他类型不应有定义: %v", other)
	}
}

func TestOperationLogAppendAndList(t *testing.T) {
	db := setupFieldDefTestDB(t)
	repo := NewOperationLogRepository(db)
	ctx := context.Background()

	actor := int64(7)
	entries := []model.OperationLog{
		{ActorUserID: &actor, Action: "user.create", TargetType: "user", TargetID: "1"},
		{ActorUserID: &actor, Action: "user.update", TargetType: "user", TargetID: "1"},
		{Action: "category.create", TargetType: "category", TargetID: "3"},
	}
	for i := range entries {
		if err := repo.Append(ctx, &entries[i]); err != nil {
			t.Fatalf("追加日志失败: %v", err)
		}
	}

	logs, err := repo.List(ctx, OperationLogFilter{Action: "user.create"})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(logs) != 1 || logs[0].TargetID != "1" {
		t.Errorf("按动作筛选结果错误: %+v", logs)
	}

	logs, err = repo.List(ctx, OperationLogFilter{ActorID: &actor})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("按操作者筛选应有 2 条: %+v", logs)
	}

	logs, err = repo.List(ctx, OperationLogFilter{Limit: 2})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(logs) != 2 || logs[0].ID < logs[1].ID {
		t.Errorf("应按 ID 倒序分页: %+v", logs)
	}
}

func TestOperationLogHasActionToday(t *testing.T) {
	db := setupFieldDefTestDB(t)
	repo := NewOperationLogRepository(db)
	ctx := context.Background()

	ok, err := repo.HasActionToday(ctx, "inventory.batch_copy_yesterday", nil)
	if err != nil {
		t.Fatalf("检查失败: %v", err)
	}
	if ok {
		t.Error("无日志时不应命中")
	}

	entry := model.OperationLog{Action: "inventory.batch_copy_yesterday", TargetType: "inventory"}
	if err := repo.Append(ctx, &entry); err != nil {
		t.Fatalf("追加日志失败: %v", err)
	}

	ok, err = repo.HasActionToday(ctx, "inventory.batch_copy_yesterday", nil)
	if err != nil {
		t.Fatalf("检查失败: %v", err)
	}
	if !ok {
		t.Error("今天已记录应命中")
	}

	// 按操作人过滤时只看本人的日志
	actor := int64(7)
	ok, err = repo.HasActionToday(ctx, "inventory.batch_copy_yesterday", &actor)
	if err != nil {
		t.Fatalf("检查失败: %v", err)
	}
	if ok {
		t.Error("别人的日志不应命中")
	}
	mine := model.OperationLog{Action: "inventory.batch_copy_yesterday", TargetType: "inventory", ActorUserID: &actor}
	if err := repo.Append(ctx, &mine); err != nil {
		t.Fatalf("追加日志失败: %v", err)
	}
	ok, err = repo.HasActionToday(ctx, "inventory.batch_copy_yesterday", &actor)
	if err != nil {
		t.Fatalf("检查失败: %v", err)
	}
	if !ok {
		t.Error("本人的日志应命中")
	}
	if err := db.Delete(&model.OperationLog{}, mine.ID).Error; err != nil {
		t.Fatalf("清理日志失败: %v", err)
	}

	// 昨天的日志不算数
	err = db.Model(&model.OperationLog{}).
		Where("id = ?", entry.ID).
		Update("created_at", time.Now().AddDate(0, 0, -1)).Error
	if err != nil {
		t.Fatalf("回拨时间失败: %v", err)
	}
	ok, err = repo.HasActionToday(ctx, "inventory.batch_copy_yesterday", nil)
	if err != nil {
		t.Fatalf("检查失败: %v", err)
	}
	if ok {
		t.Error("昨天的日志不应命中")
	}
}
