package models

import "time"

// BoothStatus 展位状态
type BoothStatus string

const (
	BoothDraft     BoothStatus = "DRAFT"
	BoothSubmitted BoothStatus = "SUBMITTED"
	BoothApproved  BoothStatus = "APPROVED"
	BoothRejected  BoothStatus = "REJECTED"
	BoothArchived  BoothStatus = "ARCHIVED"
)

// Valid 是否为已知状态
func (s BoothStatus) Valid() bool {
	switch s {
	case BoothDraft, BoothSubmitted, BoothApproved, BoothRejected, BoothArchived:
		return true
	}
	return false
}

// Booth 展位表，DeletedAt 非空的展位视为不存在
type Booth struct {
	BaseModel
	HallID       uint        `gorm:"index;not null" json:"hall_id"`
	OwnerUserID  uint        `gorm:"index;not null" json:"owner_user_id"`
	Status       BoothStatus `gorm:"size:20;not null;default:'DRAFT'" json:"status"`
	Title        string      `gorm:"size:255;not null" json:"title"`
	Summary      string      `gorm:"size:500" json:"summary"`
	Description  string      `gorm:"type:text" json:"description"`
	Category     string      `gorm:"size:100" json:"category"`
	ThumbnailURL string      `gorm:"size:500" json:"thumbnail_url"`
	SubmittedAt  *time.Time  `json:"submitted_at,omitempty"`
	ApprovedAt   *time.Time  `json:"approved_at,omitempty"`
	ApprovedBy   *uint       `json:"approved_by,omitempty"`
	RejectReason string      `gorm:"type:text" json:"reject_reason,omitempty"`

	// 未登录访客能否提问和留言
	AllowGuestQuestions bool `gorm:"not null;default:false" json:"allow_guest_questions"`
	AllowGuestGuestbook bool `gorm:"not null;default:false" json:"allow_guest_guestbook"`
}

// TableName 指定Booth表名
func (Booth) TableName() string {
	return "booths"
}

// IsPublic 审核通过的展位对所有人可见
func (b *Booth) IsPublic() bool {
	return b.Status == BoothApproved
}

// MemberRole 展位成员角色
type MemberRole string

const (
	MemberOwner  MemberRole = "OWNER"
	MemberEditor MemberRole = "EDITOR"
	MemberViewer MemberRole = "VIEWER"
)

// Valid 是否为已知角色
func (r MemberRole) Valid() bool {
	switch r {
	case MemberOwner, MemberEditor, MemberViewer:
		return true
	}
	return false
}

// BoothMember 展位成员表
type BoothMember struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	BoothID   uint       `gorm:"uniqueIndex:idx_booth_member;not null" json:"booth_id"`
	UserID    uint       `gorm:"uniqueIndex:idx_booth_member;not null" json:"user_id"`
	Role      MemberRole `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName 指定BoothMember表名
func (BoothMember) TableName() string {
	return "booth_members"
}
