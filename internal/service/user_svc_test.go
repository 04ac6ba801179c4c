package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

func setupUserSvc(t *testing.T) (*UserService, *AuditService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Role{}, &model.OperationLog{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	audit := NewAuditService(repository.NewOperationLogRepository(db), userRepo)
	return NewUserService(userRepo, roleRepo, audit), audit, db
}

func TestUserCreatePermissionScopes(t *testing.T) {
	svc, _, _ := setupUserSvc(t)
	ctx := context.Background()

	// 超级管理员可以创建任何级别
	info, err := svc.Create(ctx, string(model.PermissionSuperAdmin), CreateUserInput{
		Username: "boss", Password: "secret123", PermissionLevel: "super_admin",
	})
	if err != nil {
		t.Fatalf("创建超级管理员失败: %v", err)
	}
	if info.PermissionLevel != "super_admin" {
		t.Errorf("权限级别错误: %s", info.PermissionLevel)
	}

	// admin 只能创建使用者账号
	_, err = svc.Create(ctx, string(model.PermissionAdmin), CreateUserInput{
		Username: "a1", Password: "x", PermissionLevel: "admin",
	})
	if err != ErrAdminCreateScope {
		t.Errorf("admin 创建 admin 应被拒绝, 实际: %v", err)
	}
	_, err = svc.Create(ctx, string(model.PermissionAdmin), CreateUserInput{
		Username: "a2", Password: "x", PermissionLevel: "super_admin",
	})
	if err != ErrAdminGrantSuper {
		t.Errorf("admin 授予超级管理员应被拒绝, 实际: %v", err)
	}
	_, err = svc.Create(ctx, string(model.PermissionAdmin), CreateUserInput{
		Username: "worker", Password: "x",
	})
	if err != nil {
		t.Errorf("admin 创建使用者账号应成功: %v", err)
	}

	// 用户名冲突
	_, err = svc.Create(ctx, string(model.PermissionSuperAdmin), CreateUserInput{
		Username: "boss", Password: "y",
	})
	if err != ErrUsernameExists {
		t.Errorf("重复用户名应被拒绝, 实际: %v", err)
	}
}

func TestUserUpdateKeepsLastSuperAdmin(t *testing.T) {
	svc, _, _ := setupUserSvc(t)
	ctx := context.Background()

	boss, err := svc.Create(ctx, string(model.PermissionSuperAdmin), CreateUserInput{
		Username: "boss", Password: "secret123", PermissionLevel: "super_admin",
	})
	if err != nil {
		t.Fatalf("创建超级管理员失败: %v", err)
	}

	// 唯一超级管理员不能降级
	demote := "user"
	_, err = svc.Update(ctx, string(model.PermissionSuperAdmin), boss.ID, UpdateUserInput{
		PermissionLevel: &demote,
	})
	if err != ErrLastSuperAdmin {
		t.Errorf("降级最后一个超级管理员应被拒绝, 实际: %v", err)
	}

	// 也不能停用
	disabled := true
	_, err = svc.Update(ctx, string(model.PermissionSuperAdmin), boss.ID, UpdateUserInput{
		IsDisabled: &disabled,
	})
	if err != ErrLastSuperAdmin {
		t.Errorf("停用最后一个超级管理员应被拒绝, 实际: %v", err)
	}

	// 加一个超级管理员后就可以降级了
	_, err = svc.Create(ctx, string(model.PermissionSuperAdmin), CreateUserInput{
		Username: "boss2", Password: "secret123", PermissionLevel: "super_admin",
	})
	if err != nil {
		t.Fatalf("创建第二个超级管理员失败: %v", err)
	}
	info, err := svc.Update(ctx, string(model.PermissionSuperAdmin), boss.ID, UpdateUserInput{
		PermissionLevel: &demote,
	})
	if err != nil {
		t.Fatalf("降级失败: %v", err)
	}
	if info.PermissionLevel != "user" {
		t.Errorf("降级后的级别错误: %s", info.PermissionLevel)
	}
}

func TestUserUpdateAdminScope(t *testing.T) {
	svc, _, _ := setupUserSvc(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, string(model.PermissionSuperAdmin), CreateUserInput{
		Username: "mgr", Password: "x", PermissionLevel: "admin",
	})
	if err != nil {
		t.Fatalf("创建管理员失败: %v", err)
	}
	worker, err := svc.Create(ctx, string(model.PermissionSuperAdmin), CreateUserInput{
		Username: "worker", Password: "x",
	})
	if err != nil {
		t.Fatalf("创建使用者失败: %v", err)
	}

	// admin 不能改管理员账号
	name := "新名字"
	_, err = svc.Update(ctx, string(model.PermissionAdmin), admin.ID, UpdateUserInput{
		DisplayName: &name,
	})
	if err != ErrAdminModifyScope {
		t.Errorf("admin 修改管理员应被拒绝, 实际: %v", err)
	}

	// admin 可以改使用者账号
	info, err := svc.Update(ctx, string(model.PermissionAdmin), worker.ID, UpdateUserInput{
		DisplayName: &name,
	})
	if err != nil {
		t.Fatalf("admin 修改使用者失败: %v", err)
	}
	if info.DisplayName != "新名字" {
		t.Errorf("显示名未更新: %s", info.DisplayName)
	}

	// admin 不能把使用者提成超级管理员
	super := "super_admin"
	_, err = svc.Update(ctx, string(model.PermissionAdmin), worker.ID, UpdateUserInput{
		PermissionLevel: &super,
	})
	if err != ErrAdminGrantSuper {
		t.Errorf("admin 提权应被拒绝, 实际: %v", err)
	}
}

func TestUserMutationsAreAudited(t *testing.T) {
	svc, audit, _ := setupUserSvc(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, string(model.PermissionSuperAdmin), CreateUserInput{
		Username: "boss", Password: "x",
	}); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	logs, err := audit.List(ctx, repository.OperationLogFilter{Action: "user.create"})
	if err != nil {
		t.Fatalf("读取日志失败: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("创建用户应写一条日志, 实际 %d", len(logs))
	}
}
