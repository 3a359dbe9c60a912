package service

import (
	"context"
	"strings"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/repository"
	"go.uber.org/zap"
)

const defaultExhibitionPageSize = 20

type exhibitionService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewExhibitionService 创建展会服务
func NewExhibitionService(repos *repository.Manager, log *zap.Logger) ExhibitionService {
	return &exhibitionService{repos: repos, log: log}
}

// Create 创建展会，slug 全局唯一
func (s *exhibitionService) Create(ctx context.Context, req *CreateExhibitionRequest) (*ExhibitionDTO, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	title := strings.TrimSpace(req.Title)
	if slug == "" || title == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "展会标识和标题不能为空")
	}
	status := req.Status
	if status == "" {
		status = models.ExhibitionDraft
	}
	if !status.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "未知的展会状态: %s", status)
	}
	if req.StartAt != nil && req.EndAt != nil && req.EndAt.Before(*req.StartAt) {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "结束时间早于开始时间")
	}

	taken, err := s.repos.Exhibition().ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if taken {
		return nil, apperrors.Newf(apperrors.ErrAlreadyExists, "slug=%s", slug)
	}

	exhibition := &models.Exhibition{
		Slug:        slug,
		Title:       title,
		Description: req.Description,
		Status:      status,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	if err := s.repos.Exhibition().Create(ctx, exhibition); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	s.log.Info("展会已创建", zap.Uint("exhibition_id", exhibition.ID), zap.String("slug", slug))
	return s.toDTO(ctx, exhibition)
}

// List 展会分页列表，page 从0开始
func (s *exhibitionService) List(ctx context.Context, status models.ExhibitionStatus, page, size int) (*Page[*ExhibitionDTO], error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "未知的展会状态: %s", status)
	}
	if size <= 0 {
		size = defaultExhibitionPageSize
	}
	pagination := repository.PageFromZero(page, size)

	exhibitions, err := s.repos.Exhibition().List(ctx, status, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	content := make([]*ExhibitionDTO, 0, len(exhibitions))
	for _, e := range exhibitions {
		dto, err := s.toDTO(ctx, e)
		if err != nil {
			return nil, err
		}
		content = append(content, dto)
	}
	return newPage(content, pagination), nil
}

// Get 展会详情
func (s *exhibitionService) Get(ctx context.Context, id uint) (*ExhibitionDTO, error) {
	exhibition, err := s.repos.Exhibition().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, exhibition)
}

// Halls 展会下的展厅
func (s *exhibitionService) Halls(ctx context.Context, id uint) ([]*models.Hall, error) {
	if _, err := s.repos.Exhibition().FindByID(ctx, id); err != nil {
		return nil, err
	}
	halls, err := s.repos.Hall().ListByExhibition(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return halls, nil
}

func (s *exhibitionService) toDTO(ctx context.Context, e *models.Exhibition) (*ExhibitionDTO, error) {
	halls, err := s.repos.Hall().ListByExhibition(ctx, e.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	booths, err := s.repos.Exhibition().CountApprovedBooths(ctx, e.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &ExhibitionDTO{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		Description: e.Description,
		Status:      e.Status,
		StartAt:     e.StartAt,
		EndAt:       e.EndAt,
		HallCount:   len(halls),
		BoothCount:  booths,
		CreatedAt:   e.CreatedAt,
	}, nil
}
