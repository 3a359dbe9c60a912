package models

import "time"

// ContentStatus 访客内容的可见状态
type ContentStatus string

const (
	ContentVisible ContentStatus = "VISIBLE"
	ContentHidden  ContentStatus = "HIDDEN"
)

// Question 展位提问表
type Question struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	BoothID        uint          `gorm:"index:idx_questions_booth_status;not null" json:"booth_id"`
	UserID         *uint         `gorm:"index" json:"user_id,omitempty"`
	GuestSessionID string        `gorm:"size:255" json:"guest_session_id,omitempty"`
	Content        string        `gorm:"type:text;not null" json:"content"`
	Status         ContentStatus `gorm:"index:idx_questions_booth_status;size:20;not null;default:'VISIBLE'" json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// TableName 指定Question表名
func (Question) TableName() string {
	return "questions"
}

// GuestbookEntry 展位留言簿表
type GuestbookEntry struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	BoothID        uint          `gorm:"index:idx_guestbook_booth_status;not null" json:"booth_id"`
	UserID         *uint         `gorm:"index" json:"user_id,omitempty"`
	GuestSessionID string        `gorm:"size:255" json:"guest_session_id,omitempty"`
	Message        string        `gorm:"type:text;not null" json:"message"`
	Status         ContentStatus `gorm:"index:idx_guestbook_booth_status;size:20;not null;default:'VISIBLE'" json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// TableName 指定GuestbookEntry表名
func (GuestbookEntry) TableName() string {
	return "guestbook_entries"
}
