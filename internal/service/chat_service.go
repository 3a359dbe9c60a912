package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wfunc/expo-garden/internal/broker"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/logger"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/repository"
	"go.uber.org/zap"
)

// chatService 展位与展厅聊天中继
type chatService struct {
	store     repository.ChatMessageRepository
	owners    OwnerLookup
	publisher broker.Publisher
	cfg       *Config
	log       *zap.Logger
	now       func() time.Time
}

// NewChatService 创建聊天服务
func NewChatService(store repository.ChatMessageRepository, owners OwnerLookup, publisher broker.Publisher, cfg *Config, log *zap.Logger) ChatService {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &chatService{
		store:     store,
		owners:    owners,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Send 保存消息后给展位所有者发提醒
func (s *chatService) Send(ctx context.Context, boothID int64, msg InboundChat) (*ChatMessageDTO, error) {
	body, err := s.body(msg.Message)
	if err != nil {
		return nil, err
	}
	username := s.displayName(msg.Username)

	// 先确认所有者，展位不存在时不落库
	ownerID, err := s.owners.OwnerOf(ctx, boothID)
	if err != nil {
		return nil, err
	}

	record := &models.ChatMessage{
		BoothID:  uint(boothID),
		UserID:   toUintPtr(msg.UserID),
		Username: username,
		Message:  body,
		Type:     models.ChatTypeChat,
	}
	if err := s.store.Create(ctx, record); err != nil {
		s.log.Error("保存聊天消息失败", zap.Int64("booth_id", boothID), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "保存聊天消息失败")
	}
	saved := toChatDTO(record)

	notification := ChatNotification{
		BoothID:        boothID,
		MessageID:      saved.ID,
		Username:       saved.Username,
		MessagePreview: truncateRunes(saved.Message, s.cfg.PreviewLength),
		Timestamp:      saved.Timestamp,
	}
	if err := s.publisher.Publish(ctx, broker.OwnerTopic(ownerID), notification); err != nil {
		s.log.Warn("所有者提醒发送失败",
			zap.Int64("booth_id", boothID),
			zap.Int64("owner_id", ownerID),
			zap.Error(err),
		)
	}

	logger.LogChatMessage("booth", boothID, username, utf8.RuneCountInString(body))
	return saved, nil
}

// Join 入场提示
func (s *chatService) Join(_ context.Context, boothID int64, msg InboundChat) *ChatMessageDTO {
	username := s.displayName(msg.Username)
	s.log.Debug("用户进入展位聊天", zap.Int64("booth_id", boothID), zap.String("username", username))
	return &ChatMessageDTO{
		ID:        uuid.NewString(),
		BoothID:   boothID,
		UserID:    msg.UserID,
		Username:  username,
		Message:   username + "님이 입장하셨습니다.",
		Timestamp: s.now(),
		Type:      models.ChatTypeJoin,
	}
}

// SendHall 展厅聊天
func (s *chatService) SendHall(_ context.Context, hallID int64, msg InboundHallChat) (*HallChatMessage, error) {
	if hallID <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "无效的展厅ID: %d", hallID)
	}
	body, err := s.body(msg.Message)
	if err != nil {
		return nil, err
	}
	nickname := s.displayName(msg.Nickname)

	logger.LogChatMessage("hall", hallID, nickname, utf8.RuneCountInString(body))
	return &HallChatMessage{
		HallID:    hallID,
		UserID:    msg.UserID,
		Nickname:  nickname,
		Message:   body,
		Timestamp: s.now(),
		Type:      models.ChatTypeChat,
	}, nil
}

// Messages 分页聊天记录，page 从0开始
func (s *chatService) Messages(ctx context.Context, boothID int64, page, size int) (*ChatPage, error) {
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	pagination := repository.PageFromZero(page, size)

	records, err := s.store.ListByBooth(ctx, uint(boothID), pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	content := make([]*ChatMessageDTO, 0, len(records))
	for _, r := range records {
		content = append(content, toChatDTO(r))
	}

	return &ChatPage{
		Content:       content,
		TotalElements: pagination.Total,
		TotalPages:    pagination.TotalPages(),
		Size:          pagination.PageSize,
		Number:        pagination.Number(),
	}, nil
}

func (s *chatService) body(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", apperrors.New(apperrors.ErrEmptyMessage)
	}
	if s.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(body) > s.cfg.MaxMessageLength {
		return "", apperrors.Newf(apperrors.ErrInvalidParam, "消息长度超过%d", s.cfg.MaxMessageLength)
	}
	return body, nil
}

func (s *chatService) displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.cfg.GuestName
	}
	return name
}

func toChatDTO(m *models.ChatMessage) *ChatMessageDTO {
	var userID *int64
	if m.UserID != nil {
		id := int64(*m.UserID)
		userID = &id
	}
	return &ChatMessageDTO{
		ID:        strconv.FormatUint(uint64(m.ID), 10),
		BoothID:   int64(m.BoothID),
		UserID:    userID,
		Username:  m.Username,
		Message:   m.Message,
		Timestamp: m.CreatedAt,
		Type:      m.Type,
	}
}

func toUintPtr(id *int64) *uint {
	if id == nil || *id <= 0 {
		return nil
	}
	v := uint(*id)
	return &v
}

// truncateRunes 按字符截断
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
