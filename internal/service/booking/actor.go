// Package booking 预订可用性校验、状态流转与超时清理
package booking

import (
	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
)

// Role 操作者角色
type Role string

// 操作者角色取值
const (
	RoleUser   Role = Role(jwt.RoleUser)
	RoleAdmin  Role = Role(jwt.RoleAdmin)
	RoleSystem Role = "system"
)

// Actor 发起操作的主体，由令牌解析得到，系统任务使用 SystemActor
type Actor struct {
	UserID int64
	Role   Role
}

// NewActor 根据令牌中的用户和角色构造操作者，未知角色按普通用户处理
func NewActor(userID int64, role string) Actor {
	if Role(role) == RoleAdmin {
		return Actor{UserID: userID, Role: RoleAdmin}
	}
	return Actor{UserID: userID, Role: RoleUser}
}

// SystemActor 系统操作者，用于支付回调
func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsSystem 是否为系统
func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// Owns 是否为预订所有者
func (a Actor) Owns(userID int64) bool {
	return !a.IsSystem() && a.UserID > 0 && a.UserID == userID
}
