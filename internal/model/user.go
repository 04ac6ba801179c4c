package model

import "time"

// 权限级别: super_admin (超管), admin (管理员), user (使用者)
type PermissionLevel string

const (
	PermissionSuperAdmin PermissionLevel = "super_admin"
	PermissionAdmin      PermissionLevel = "admin"
	PermissionUser       PermissionLevel = "user"
)

// User 系统用户
type User struct {
	BaseModel
	Username     string `gorm:"size:64;not null;index"`
	DisplayName  string `gorm:"size:64"`
	PasswordHash string `gorm:"size:255;not null"`

	PermissionLevel PermissionLevel `gorm:"size:20;default:'user'"`

	// 弱引用角色，角色被软删后引用悬空
	RoleID *int64 `gorm:"index"`

	IsDisabled bool `gorm:"default:false"`
	DisabledAt *time.Time
}

func (User) TableName() string {
	return "users"
}
