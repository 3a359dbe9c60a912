package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/gorm"
)

// HallRepository 展厅仓储接口
type HallRepository interface {
	BaseRepository
	Create(ctx context.Context, hall *models.Hall) error
	FindByID(ctx context.Context, id uint) (*models.Hall, error)
	List(ctx context.Context) ([]*models.Hall, error)
	ListByExhibition(ctx context.Context, exhibitionID uint) ([]*models.Hall, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type hallRepo struct {
	*BaseRepo
}

// NewHallRepository 创建展厅仓储
func NewHallRepository(db *gorm.DB) HallRepository {
	return &hallRepo{BaseRepo: NewBaseRepo(db)}
}

func (r *hallRepo) Create(ctx context.Context, hall *models.Hall) error {
	return r.db.WithContext(ctx).Create(hall).Error
}

func (r *hallRepo) FindByID(ctx context.Context, id uint) (*models.Hall, error) {
	var hall models.Hall
	if err := r.db.WithContext(ctx).First(&hall, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrHallNotFound, "hall_id=%d", id)
		}
		return nil, err
	}
	return &hall, nil
}

func (r *hallRepo) List(ctx context.Context) ([]*models.Hall, error) {
	var halls []*models.Hall
	err := r.db.WithContext(ctx).Order("id ASC").Find(&halls).Error
	return halls, err
}

func (r *hallRepo) ListByExhibition(ctx context.Context, exhibitionID uint) ([]*models.Hall, error) {
	var halls []*models.Hall
	err := r.db.WithContext(ctx).
		Where("exhibition_id = ?", exhibitionID).
		Order("id ASC").
		Find(&halls).Error
	return halls, err
}

func (r *hallRepo) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Hall{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
