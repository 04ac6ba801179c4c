package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

func setupRecordSvc(t *testing.T) (*RecordService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.RecordFieldDef{}, &model.OperationLog{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	for _, typ := range []string{"purchase", "inventory"} {
		if err := db.Table(typ + "_records").AutoMigrate(&model.RecordRow{}); err != nil {
			t.Fatalf("主表迁移失败: %v", err)
		}
		if err := db.Table(typ + "_record_fields").AutoMigrate(&model.RecordField{}); err != nil {
			t.Fatalf("字段表迁移失败: %v", err)
		}
	}

	stores := map[string]repository.RecordStore{
		"purchase":  repository.NewRecordStore(db, "purchase"),
		"inventory": repository.NewRecordStore(db, "inventory"),
	}
	schema := NewSchemaService(repository.NewFieldDefRepository(db), stores)
	audit := NewAuditService(repository.NewOperationLogRepository(db), repository.NewUserRepository(db))
	return NewRecordService(stores, schema, audit), db
}

func TestRecordCreateRunsDerivation(t *testing.T) {
	svc, _ := setupRecordSvc(t)
	ctx := context.Background()

	// purchase 的兜底字段表带着联动规则字段
	id, err := svc.Create(ctx, "purchase", map[string]string{
		"成本总计": "36",
	})
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	records, err := svc.List(ctx, "purchase", repository.RecordFilter{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 1 || records[0].ID != id {
		t.Fatalf("记录列表错误: %+v", records)
	}
	if records[0].Fields["人民币报价"] != "43.2" {
		t.Errorf("落库前应跑联动推导: %q", records[0].Fields["人民币报价"])
	}
	if records[0].Fields["temu报价"] != "100" {
		t.Errorf("链式推导错误: %q", records[0].Fields["temu报价"])
	}
}

func TestRecordUpdateRederives(t *testing.T) {
	svc, _ := setupRecordSvc(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "purchase", map[string]string{"成本总计": "36"})
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	if err := svc.Update(ctx, "purchase", id, map[string]string{"成本总计": "50"}); err != nil {
		t.Fatalf("更新记录失败: %v", err)
	}

	record, err := svc.List(ctx, "purchase", repository.RecordFilter{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if record[0].Fields["人民币报价"] != "60" {
		t.Errorf("更新后应重新推导: %q", record[0].Fields["人民币报价"])
	}
}

func TestRecordUpdateNotFound(t *testing.T) {
	svc, _ := setupRecordSvc(t)

	err := svc.Update(context.Background(), "purchase", 12345, map[string]string{"成本总计": "1"})
	if err != ErrRecordNotFound {
		t.Errorf("不存在的记录应返回 ErrRecordNotFound, 实际: %v", err)
	}
}

func TestBatchCopyYesterdayGate(t *testing.T) {
	svc, db := setupRecordSvc(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "inventory", map[string]string{
		"店铺名称": "A店",
		"产品名称": "相框",
	})
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	err = db.Table("inventory_records").
		Where("id = ?", id).
		Update("created_at", time.Now().AddDate(0, 0, -1)).Error
	if err != nil {
		t.Fatalf("回拨创建时间失败: %v", err)
	}

	copied, err := svc.BatchCopyYesterday(ctx, "inventory", []string{"店铺名称"})
	if err != nil {
		t.Fatalf("批量复制失败: %v", err)
	}
	if copied != 1 {
		t.Fatalf("应复制 1 条, 实际 %d", copied)
	}

	// 同一天第二次执行被闸门拦下
	_, err = svc.BatchCopyYesterday(ctx, "inventory", []string{"店铺名称"})
	if err != ErrBatchAlreadyRan {
		t.Errorf("当天重复执行应被拒绝, 实际: %v", err)
	}

	// 其他记录类型的闸门互不影响
	if _, err := svc.BatchCopyYesterday(ctx, "purchase", []string{"产品名称"}); err != nil {
		t.Errorf("purchase 的闸门不应被 inventory 占用: %v", err)
	}
}

func TestBatchCopyKeepFieldsValidation(t *testing.T) {
	svc, _ := setupRecordSvc(t)
	ctx := context.Background()

	// 保留字段必须显式给出
	if _, err := svc.BatchCopyYesterday(ctx, "purchase", nil); err != ErrInvalidInput {
		t.Errorf("空保留列表应拒绝, 实际: %v", err)
	}
	if _, err := svc.BatchCopyYesterday(ctx, "purchase", []string{}); err != ErrInvalidInput {
		t.Errorf("空保留列表应拒绝, 实际: %v", err)
	}
	if _, err := svc.BatchCopyYesterday(ctx, "purchase", []string{"  "}); err != ErrInvalidInput {
		t.Errorf("空白字段名应拒绝, 实际: %v", err)
	}

	tooMany := make([]string, 51)
	for i := range tooMany {
		tooMany[i] = "字段"
	}
	if _, err := svc.BatchCopyYesterday(ctx, "purchase", tooMany); err != ErrInvalidInput {
		t.Errorf("超长保留列表应拒绝, 实际: %v", err)
	}
}

func TestBatchCopyKeepFieldsIntersectSchema(t *testing.T) {
	svc, db := setupRecordSvc(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "inventory", map[string]string{
		"店铺名称": "A店",
		"产品名称": "相框",
	})
	if err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}
	err = db.Table("inventory_records").
		Where("id = ?", id).
		Update("created_at", time.Now().AddDate(0, 0, -1)).Error
	if err != nil {
		t.Fatalf("回拨创建时间失败: %v", err)
	}

	// schema 之外的字段名直接剔除，不参与复制
	copied, err := svc.BatchCopyYesterday(ctx, "inventory", []string{"店铺名称", "不存在的字段"})
	if err != nil {
		t.Fatalf("批量复制失败: %v", err)
	}
	if copied != 1 {
		t.Fatalf("应复制 1 条, 实际 %d", copied)
	}

	records, err := svc.List(ctx, "inventory", repository.RecordFilter{})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	for _, r := range records {
		if r.ID == id {
			continue
		}
		if r.Fields["店铺名称"] != "A店" {
			t.Errorf("保留字段未复制: %+v", r.Fields)
		}
		if _, ok := r.Fields["产品名称"]; ok {
			t.Errorf("未列入保留字段的值不应复制: %+v", r.Fields)
		}
	}
}

func TestBatchCopyNoSourcesKeepsGateOpen(t *testing.T) {
	svc, _ := setupRecordSvc(t)
	ctx := context.Background()

	// 昨天没有记录：返回 0 且不落闸门
	copied, err := svc.BatchCopyYesterday(ctx, "purchase", []string{"产品名称"})
	if err != nil {
		t.Fatalf("批量复制失败: %v", err)
	}
	if copied != 0 {
		t.Fatalf("没有源记录时应复制 0 条, 实际 %d", copied)
	}

	if _, err := svc.BatchCopyYesterday(ctx, "purchase", []string{"产品名称"}); err != nil {
		t.Errorf("空跑不应消耗当天的闸门: %v", err)
	}

	ran, err := svc.audit.HasRunToday(ctx, "purchase.batch_copy_yesterday", nil)
	if err != nil {
		t.Fatalf("查询闸门失败: %v", err)
	}
	if ran {
		t.Error("空跑不应写入操作日志")
	}
}

func TestRecordUnknownType(t *testing.T) {
	svc, _ := setupRecordSvc(t)

	if _, err := svc.Create(context.Background(), "nope", map[string]string{}); err != ErrRecordNotFound {
		t.Errorf("未知记录类型应返回 ErrRecordNotFound, 实际: %v", err)
	}
	if _, err := svc.Schema(context.Background(), "nope"); err != ErrRecordNotFound {
		t.Errorf("未知记录类型的 schema 应返回 ErrRecordNotFound, 实际: %v", err)
	}
}
