package service

import (
	"context"
	"strings"
	"unicode/utf8"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultQuestionPageSize  = 20
	defaultGuestbookPageSize = 50
)

// interactionService 展位提问与留言簿实现
type interactionService struct {
	repos  *repository.Manager
	access BoothService
	cfg    *Config
	log    *zap.Logger
}

// NewInteractionService 创建互动服务，访问权限沿用展位服务的判断
func NewInteractionService(repos *repository.Manager, access BoothService, cfg *Config, log *zap.Logger) InteractionService {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &interactionService{repos: repos, access: access, cfg: cfg, log: log}
}

// Questions 可见提问分页（最新在前）
func (s *interactionService) Questions(ctx context.Context, boothID uint, viewer *Principal, page, size int) (*Page[*QuestionDTO], error) {
	if _, err := s.booth(ctx, boothID, viewer); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = defaultQuestionPageSize
	}
	pagination := repository.PageFromZero(page, size)

	rows, err := s.repos.Question().ListVisible(ctx, boothID, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	content := make([]*QuestionDTO, 0, len(rows))
	for _, row := range rows {
		content = append(content, s.toQuestionDTO(&row.Question, row.UserNickname))
	}
	return newPage(content, pagination), nil
}

// Ask 提问；游客提问需要展位开启 AllowGuestQuestions
func (s *interactionService) Ask(ctx context.Context, boothID uint, viewer *Principal, req *CreateQuestionRequest) (*QuestionDTO, error) {
	booth, err := s.booth(ctx, boothID, viewer)
	if err != nil {
		return nil, err
	}
	if viewer == nil && !booth.AllowGuestQuestions {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "该展位不接受游客提问")
	}
	content, err := s.text(req.Content)
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		BoothID: boothID,
		Content: content,
		Status:  models.ContentVisible,
	}
	userID, guestSession, nickname := s.author(viewer, req.GuestSessionID)
	question.UserID = userID
	question.GuestSessionID = guestSession

	if err := s.repos.Question().Create(ctx, question); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	s.log.Info("展位收到提问", zap.Uint("booth_id", boothID), zap.Uint("question_id", question.ID))
	return s.toQuestionDTO(question, nickname), nil
}

// Guestbook 可见留言分页（最新在前）
func (s *interactionService) Guestbook(ctx context.Context, boothID uint, viewer *Principal, page, size int) (*Page[*GuestbookDTO], error) {
	if _, err := s.booth(ctx, boothID, viewer); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = defaultGuestbookPageSize
	}
	pagination := repository.PageFromZero(page, size)

	rows, err := s.repos.Guestbook().ListVisible(ctx, boothID, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	content := make([]*GuestbookDTO, 0, len(rows))
	for _, row := range rows {
		content = append(content, s.toGuestbookDTO(&row.GuestbookEntry, row.UserNickname))
	}
	return newPage(content, pagination), nil
}

// Sign 签写留言簿；游客留言需要展位开启 AllowGuestGuestbook
func (s *interactionService) Sign(ctx context.Context, boothID uint, viewer *Principal, req *CreateGuestbookRequest) (*GuestbookDTO, error) {
	booth, err := s.booth(ctx, boothID, viewer)
	if err != nil {
		return nil, err
	}
	if viewer == nil && !booth.AllowGuestGuestbook {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "该展位不接受游客留言")
	}
	message, err := s.text(req.Message)
	if err != nil {
		return nil, err
	}

	entry := &models.GuestbookEntry{
		BoothID: boothID,
		Message: message,
		Status:  models.ContentVisible,
	}
	userID, guestSession, nickname := s.author(viewer, req.GuestSessionID)
	entry.UserID = userID
	entry.GuestSessionID = guestSession

	if err := s.repos.Guestbook().Create(ctx, entry); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	s.log.Info("展位收到留言", zap.Uint("booth_id", boothID), zap.Uint("entry_id", entry.ID))
	return s.toGuestbookDTO(entry, nickname), nil
}

// booth 查找展位并校验访问权限，无权访问返回 ErrPermissionDenied
func (s *interactionService) booth(ctx context.Context, boothID uint, viewer *Principal) (*models.Booth, error) {
	booth, err := s.repos.Booth().FindByID(ctx, boothID)
	if err != nil {
		return nil, err
	}
	ok, err := s.access.CanAccessBooth(ctx, boothID, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrPermissionDenied, "booth_id=%d", boothID)
	}
	return booth, nil
}

func (s *interactionService) text(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", apperrors.New(apperrors.ErrEmptyMessage)
	}
	if s.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(text) > s.cfg.MaxMessageLength {
		return "", apperrors.Newf(apperrors.ErrInvalidParam, "内容长度超过%d", s.cfg.MaxMessageLength)
	}
	return text, nil
}

// author 登录用户记录用户ID，游客只记录会话标识
func (s *interactionService) author(viewer *Principal, guestSession string) (*uint, string, string) {
	if viewer != nil {
		id := viewer.UserID
		return &id, "", viewer.Nickname
	}
	return nil, strings.TrimSpace(guestSession), ""
}

func (s *interactionService) nickname(name string) string {
	if name == "" {
		return s.cfg.GuestName
	}
	return name
}

func (s *interactionService) toQuestionDTO(q *models.Question, nickname string) *QuestionDTO {
	return &QuestionDTO{
		ID:             q.ID,
		BoothID:        q.BoothID,
		UserID:         q.UserID,
		UserNickname:   s.nickname(nickname),
		GuestSessionID: q.GuestSessionID,
		Content:        q.Content,
		Status:         q.Status,
		CreatedAt:      q.CreatedAt,
	}
}

func (s *interactionService) toGuestbookDTO(e *models.GuestbookEntry, nickname string) *GuestbookDTO {
	return &GuestbookDTO{
		ID:             e.ID,
		BoothID:        e.BoothID,
		UserID:         e.UserID,
		UserNickname:   s.nickname(nickname),
		GuestSessionID: e.GuestSessionID,
		Message:        e.Message,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
	}
}

func newPage[T any](content []T, pagination *repository.Pagination) *Page[T] {
	return &Page[T]{
		Content:       content,
		TotalElements: pagination.Total,
		TotalPages:    pagination.TotalPages(),
		Size:          pagination.PageSize,
		Number:        pagination.Number(),
	}
}
