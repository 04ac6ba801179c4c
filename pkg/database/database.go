package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zhifan_ops_v1/internal/model"
)

// NormalizedRecordTables 纵表布局的记录类型，每种类型一对
// <type>_records / <type>_record_fields 表
var NormalizedRecordTables = []string{
	"purchase",
	"inventory",
	"sales_ops",
	"penalty_amount",
}

// InitDB 初始化数据库连接
// dsn: 数据库连接字符串
// models: 需要自动建表/迁移的结构体指针
func InitDB(dsn string, models ...interface{}) *gorm.DB {
	// 配置 GORM 的日志模式，开发环境下打印所有 SQL，方便调试
	dbLogger := logger.Default.LogMode(logger.Info)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})

	if err != nil {
		log.Fatalf("数据库连接失败 (Database Connection Failed): %v", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层 SQL DB 失败: %v", err)
	}

	// 设置空闲连接池中连接的最大数量
	sqlDB.SetMaxIdleConns(10)
	// 设置打开数据库连接的最大数量
	sqlDB.SetMaxOpenConns(100)
	// 设置了连接可复用的最大时间
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("数据库连接成功 (Database Connected Successfully)")

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatalf("自动建表出错： %v", err)
		}
	}

	if err := MigrateRecordTables(db); err != nil {
		log.Fatalf("记录纵表迁移出错： %v", err)
	}

	return db
}

// MigrateRecordTables 为每种纵表记录类型建主表和字段表。
// 字段表统一使用 record_id 列，方便仓储层共享一套查询。
func MigrateRecordTables(db *gorm.DB) error {
	for _, typ := range NormalizedRecordTables {
		if err := db.Table(typ + "_records").AutoMigrate(&model.RecordRow{}); err != nil {
			return err
		}
		if err := db.Table(typ + "_record_fields").AutoMigrate(&model.RecordField{}); err != nil {
			return err
		}
	}
	return nil
}
