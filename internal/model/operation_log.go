package model

import (
	"time"

	"gorm.io/datatypes"
)

// OperationLog 操作日志，只追加，不修改不删除
type OperationLog struct {
	ID          int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ActorUserID *int64 `gorm:"index" json:"actor_user_id"`
	Action      string `gorm:"size:64;not null;index" json:"action"`
	TargetType  string `gorm:"size:64" json:"target_type"`
	TargetID    string `gorm:"size:64" json:"target_id"`

	Detail datatypes.JSON `json:"detail"`

	IP        string    `gorm:"size:64" json:"ip"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (OperationLog) TableName() string {
	return "operation_logs"
}
