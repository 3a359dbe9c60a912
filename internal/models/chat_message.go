package models

import "time"

// ChatMessageType 聊天消息类型
type ChatMessageType string

const (
	ChatTypeChat  ChatMessageType = "CHAT"
	ChatTypeJoin  ChatMessageType = "JOIN"
	ChatTypeLeave ChatMessageType = "LEAVE"
)

// ChatMessage 展位聊天记录表（只追加）
type ChatMessage struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BoothID   uint            `gorm:"index;not null" json:"booth_id"`
	UserID    *uint           `gorm:"index" json:"user_id,omitempty"`
	Username  string          `gorm:"size:100;not null" json:"username"`
	Message   string          `gorm:"type:text;not null" json:"message"`
	Type      ChatMessageType `gorm:"size:20;not null;default:'CHAT'" json:"type"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// TableName 指定ChatMessage表名
func (ChatMessage) TableName() string {
	return "chat_messages"
}
