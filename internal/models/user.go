package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role 用户角色
type Role string

const (
	RoleVisitor   Role = "VISITOR"
	RoleExhibitor Role = "EXHIBITOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleVisitor, RoleExhibitor, RoleAdmin:
		return true
	}
	return false
}

// User 用户基础信息表
type User struct {
	BaseModel
	Email       string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Nickname    string     `gorm:"size:100;not null" json:"nickname"`
	Role        Role       `gorm:"size:20;not null;default:'VISITOR'" json:"role"`
	Status      string     `gorm:"size:20;default:'active'" json:"status"` // active, banned
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP string     `gorm:"size:50" json:"-"`

	Auth UserAuth `gorm:"foreignKey:UserID" json:"-"`
}

// UserAuth 用户认证信息表
type UserAuth struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Password      string     `gorm:"size:255;not null" json:"-"`
	LoginAttempts int        `gorm:"default:0" json:"login_attempts"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName 指定User表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 创建前的钩子
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Nickname == "" {
		u.Nickname = strings.SplitN(u.Email, "@", 2)[0]
	}
	if u.Role == "" {
		u.Role = RoleVisitor
	}
	if u.Status == "" {
		u.Status = "active"
	}
	return nil
}

// CanLogin 检查用户是否可以登录
func (u *User) CanLogin() bool {
	return u.Status == "active"
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateLoginInfo 更新登录信息
func (u *User) UpdateLoginInfo(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
}
