package models

// LayoutType 展厅布局类型
type LayoutType string

const (
	LayoutGrid LayoutType = "GRID"
	LayoutFree LayoutType = "FREE"
)

// Hall 展厅表
type Hall struct {
	BaseModel
	ExhibitionID uint       `gorm:"index;not null;default:0" json:"exhibition_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	LayoutType   LayoutType `gorm:"size:20;not null;default:'GRID'" json:"layout_type"`
	Width        int        `gorm:"default:0" json:"width"`
	Height       int        `gorm:"default:0" json:"height"`
}

// TableName 指定Hall表名
func (Hall) TableName() string {
	return "halls"
}
