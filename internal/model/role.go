package model

import "gorm.io/datatypes"

// Role 角色，menu_keys 为允许访问的菜单 key 列表（JSON 数组）
type Role struct {
	BaseModel
	Name        string         `gorm:"size:64;not null"`
	Description string         `gorm:"size:255"`
	MenuKeys    datatypes.JSON `gorm:"column:menu_keys"`
}

func (Role) TableName() string {
	return "roles"
}

// Category 类目，仅供工作区表单的"所属类目"下拉使用
type Category struct {
	BaseModel
	Name string `gorm:"size:128;not null;uniqueIndex"`
}

func (Category) TableName() string {
	return "categories"
}
