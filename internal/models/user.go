// Package models 定义数据模型
package models

import (
	"time"
)

// User 用户模型，仅保存预订通知所需的联系方式与角色
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     *string   `gorm:"type:varchar(128);uniqueIndex" json:"email,omitempty"`
	Phone     *string   `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	Nickname  string    `gorm:"type:varchar(50);not null;default:''" json:"nickname"`
	Role      string    `gorm:"type:varchar(16);not null;default:'user';index" json:"role"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserRole 用户角色
const (
	UserRoleUser  = "user"  // 普通用户
	UserRoleAdmin = "admin" // 管理员
)

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
