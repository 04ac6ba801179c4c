package service

import "errors"

// 服务层哨兵错误，控制器按错误映射 HTTP 状态码
var (
	ErrInvalidCredentials  = errors.New("用户名或密码错误")
	ErrUserDisabled        = errors.New("用户已禁用")
	ErrInvalidToken        = errors.New("Token 无效")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrUsernameExists      = errors.New("用户名已存在")
	ErrRoleNotFound        = errors.New("角色不存在")
	ErrRoleExists          = errors.New("角色已存在")
	ErrRoleInUse           = errors.New("角色下仍有用户")
	ErrCategoryExists      = errors.New("类目已存在")
	ErrCategoryNotFound    = errors.New("类目不存在")
	ErrCategoryNotMigrated = errors.New("数据库未迁移：缺少 categories 表")

	ErrAdminCreateScope = errors.New("管理员只能创建使用者账号")
	ErrAdminModifyScope = errors.New("管理员不能修改该用户")
	ErrAdminGrantSuper  = errors.New("管理员不能设置超级管理员")
	ErrLastSuperAdmin   = errors.New("必须保留至少一个超级管理员")

	ErrRecordNotFound    = errors.New("不存在")
	ErrWorkspaceNotFound = errors.New("不存在")
	ErrBatchAlreadyRan   = errors.New("今日已执行过批量新增")

	ErrInvalidInput = errors.New("参数错误")
)
