package repository

import (
	"context"

	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/gorm"
)

// QuestionRow 提问记录连同提问者昵称
type QuestionRow struct {
	models.Question
	UserNickname string
}

// GuestbookRow 留言记录连同留言者昵称
type GuestbookRow struct {
	models.GuestbookEntry
	UserNickname string
}

// QuestionRepository 展位提问仓储接口
type QuestionRepository interface {
	BaseRepository
	Create(ctx context.Context, question *models.Question) error
	ListVisible(ctx context.Context, boothID uint, pagination *Pagination) ([]*QuestionRow, error)
}

// GuestbookRepository 展位留言簿仓储接口
type GuestbookRepository interface {
	BaseRepository
	Create(ctx context.Context, entry *models.GuestbookEntry) error
	ListVisible(ctx context.Context, boothID uint, pagination *Pagination) ([]*GuestbookRow, error)
}

type questionRepo struct {
	*BaseRepo
}

// NewQuestionRepository 创建提问仓储
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepo{BaseRepo: NewBaseRepo(db)}
}

func (r *questionRepo) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

// ListVisible 分页查询展位的可见提问（最新在前）
func (r *questionRepo) ListVisible(ctx context.Context, boothID uint, pagination *Pagination) ([]*QuestionRow, error) {
	var rows []*QuestionRow
	err := listVisible(r.db.WithContext(ctx), "questions", boothID, pagination, &rows)
	return rows, err
}

type guestbookRepo struct {
	*BaseRepo
}

// NewGuestbookRepository 创建留言簿仓储
func NewGuestbookRepository(db *gorm.DB) GuestbookRepository {
	return &guestbookRepo{BaseRepo: NewBaseRepo(db)}
}

func (r *guestbookRepo) Create(ctx context.Context, entry *models.GuestbookEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListVisible 分页查询展位的可见留言（最新在前）
func (r *guestbookRepo) ListVisible(ctx context.Context, boothID uint, pagination *Pagination) ([]*GuestbookRow, error) {
	var rows []*GuestbookRow
	err := listVisible(r.db.WithContext(ctx), "guestbook_entries", boothID, pagination, &rows)
	return rows, err
}

// listVisible 按展位查询可见内容并附带作者昵称，游客记录的昵称为空
func listVisible(db *gorm.DB, table string, boothID uint, pagination *Pagination, dest any) error {
	query := db.
		Table(table+" AS t").
		Where("t.booth_id = ? AND t.status = ?", boothID, models.ContentVisible).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}
	pagination.Total = total

	return query.
		Select("t.*, COALESCE(u.nickname, '') AS user_nickname").
		Joins("LEFT JOIN users AS u ON u.id = t.user_id").
		Scopes(Paginate(pagination)).
		Order("t.created_at DESC").
		Order("t.id DESC").
		Scan(dest).Error
}
