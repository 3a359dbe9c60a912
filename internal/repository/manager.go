package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 仓储实例（懒加载）
	userOnce sync.Once
	user     UserRepository

	userAuthOnce sync.Once
	userAuth     UserAuthRepository

	hallOnce sync.Once
	hall     HallRepository

	boothOnce sync.Once
	booth     BoothRepository

	chatOnce sync.Once
	chat     ChatMessageRepository

	exhibitionOnce sync.Once
	exhibition     ExhibitionRepository

	questionOnce sync.Once
	question     QuestionRepository

	guestbookOnce sync.Once
	guestbook     GuestbookRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// User 用户仓储
func (m *Manager) User() UserRepository {
	m.userOnce.Do(func() {
		m.user = NewUserRepository(m.db)
	})
	return m.user
}

// UserAuth 用户认证仓储
func (m *Manager) UserAuth() UserAuthRepository {
	m.userAuthOnce.Do(func() {
		m.userAuth = NewUserAuthRepository(m.db)
	})
	return m.userAuth
}

// Hall 展厅仓储
func (m *Manager) Hall() HallRepository {
	m.hallOnce.Do(func() {
		m.hall = NewHallRepository(m.db)
	})
	return m.hall
}

// Booth 展位仓储
func (m *Manager) Booth() BoothRepository {
	m.boothOnce.Do(func() {
		m.booth = NewBoothRepository(m.db)
	})
	return m.booth
}

// ChatMessage 聊天记录仓储
func (m *Manager) ChatMessage() ChatMessageRepository {
	m.chatOnce.Do(func() {
		m.chat = NewChatMessageRepository(m.db)
	})
	return m.chat
}

// Exhibition 展会仓储
func (m *Manager) Exhibition() ExhibitionRepository {
	m.exhibitionOnce.Do(func() {
		m.exhibition = NewExhibitionRepository(m.db)
	})
	return m.exhibition
}

// Question 展位提问仓储
func (m *Manager) Question() QuestionRepository {
	m.questionOnce.Do(func() {
		m.question = NewQuestionRepository(m.db)
	})
	return m.question
}

// Guestbook 展位留言簿仓储
func (m *Manager) Guestbook() GuestbookRepository {
	m.guestbookOnce.Do(func() {
		m.guestbook = NewGuestbookRepository(m.db)
	})
	return m.guestbook
}

// WithTransaction 在事务中执行，回调拿到绑定事务的管理器
func (m *Manager) WithTransaction(ctx context.Context, fn func(txm *Manager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewManager(tx))
	})
}
