package repository

import (
	"context"

	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/gorm"
)

// ChatMessageRepository 展位聊天记录仓储接口
type ChatMessageRepository interface {
	BaseRepository
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByBooth(ctx context.Context, boothID uint, pagination *Pagination) ([]*models.ChatMessage, error)
}

type chatMessageRepo struct {
	*BaseRepo
}

// NewChatMessageRepository 创建聊天记录仓储
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 保存聊天消息，created_at 由数据库层生成
func (r *chatMessageRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByBooth 分页查询展位聊天记录（最新在前）
func (r *chatMessageRepo) ListByBooth(ctx context.Context, boothID uint, pagination *Pagination) ([]*models.ChatMessage, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("booth_id = ?", boothID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	pagination.Total = total

	var messages []*models.ChatMessage
	err := query.
		Scopes(Paginate(pagination)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	return messages, err
}
