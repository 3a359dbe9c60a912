package models

import "time"

// ExhibitionStatus 展会状态
type ExhibitionStatus string

const (
	ExhibitionDraft     ExhibitionStatus = "DRAFT"
	ExhibitionPublished ExhibitionStatus = "PUBLISHED"
	ExhibitionArchived  ExhibitionStatus = "ARCHIVED"
)

// Valid 是否为已知状态
func (s ExhibitionStatus) Valid() bool {
	switch s {
	case ExhibitionDraft, ExhibitionPublished, ExhibitionArchived:
		return true
	}
	return false
}

// Exhibition 展会表，一个展会包含多个展厅
type Exhibition struct {
	BaseModel
	Slug        string           `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Status      ExhibitionStatus `gorm:"size:20;not null;default:'DRAFT'" json:"status"`
	StartAt     *time.Time       `json:"start_at,omitempty"`
	EndAt       *time.Time       `json:"end_at,omitempty"`
}

// TableName 指定Exhibition表名
func (Exhibition) TableName() string {
	return "exhibitions"
}
