package models

import (
	"github.com/google/uuid"
	"time"
)

// User 用户模型
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Username     string     `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Password     string     `json:"-" gorm:"size:255;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:128"`
	Phone        string     `json:"phone" gorm:"size:32"`
	Role         string     `json:"role" gorm:"size:32;default:user"`  // admin, manager, user
	Status       int        `json:"status" gorm:"default:1"`  // 0: disabled, 1: enabled
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// BusinessGroup 业务组
type BusinessGroup struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Name        string     `json:"name" gorm:"size:128;not null"`
	Description string     `json:"description" gorm:"size:512"`
	ParentID    *uuid.UUID `json:"parent_id" gorm:"type:uuid"`
	ManagerID   *uuid.UUID `json:"manager_id" gorm:"type:uuid"`
	Status      int        `json:"status" gorm:"default:1"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AlertTemplate 告警模板
type AlertTemplate struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Name        string     `json:"name" gorm:"size:128;not null"`
	Description string     `json:"description" gorm:"size:512"`
	Content     string     `json:"content" gorm:"type:text;not null"`  // 模板内容
	Variables   string     `json:"variables" gorm:"type:jsonb"`  // 模板变量定义
	Type        string     `json:"type" gorm:"size:32;default:markdown"`  // markdown, text, html
	GroupID     *uuid.UUID `json:"group_id" gorm:"type:uuid"`
	Status      int        `json:"status" gorm:"default:1"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OperationLog 操作日志
type OperationLog struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid"`
	Action     string     `json:"action" gorm:"size:64"`
	Resource   string     `json:"resource" gorm:"size:128"`
	ResourceID string     `json:"resource_id" gorm:"size:128"`
	Detail     string     `json:"detail" gorm:"type:text"`
	IP        string     `json:"ip" gorm:"size:64"`
	CreatedAt  time.Time  `json:"created_at"`
}
