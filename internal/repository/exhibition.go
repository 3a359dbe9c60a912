package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/gorm"
)

// ExhibitionRepository 展会仓储接口
type ExhibitionRepository interface {
	BaseRepository
	Create(ctx context.Context, exhibition *models.Exhibition) error
	FindByID(ctx context.Context, id uint) (*models.Exhibition, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, status models.ExhibitionStatus, pagination *Pagination) ([]*models.Exhibition, error)
	CountApprovedBooths(ctx context.Context, exhibitionID uint) (int64, error)
}

type exhibitionRepo struct {
	*BaseRepo
}

// NewExhibitionRepository 创建展会仓储
func NewExhibitionRepository(db *gorm.DB) ExhibitionRepository {
	return &exhibitionRepo{BaseRepo: NewBaseRepo(db)}
}

func (r *exhibitionRepo) Create(ctx context.Context, exhibition *models.Exhibition) error {
	return r.db.WithContext(ctx).Create(exhibition).Error
}

func (r *exhibitionRepo) FindByID(ctx context.Context, id uint) (*models.Exhibition, error) {
	var exhibition models.Exhibition
	if err := r.db.WithContext(ctx).First(&exhibition, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrExhibitionNotFound, "exhibition_id=%d", id)
		}
		return nil, err
	}
	return &exhibition, nil
}

func (r *exhibitionRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Exhibition{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// List 分页查询展会（最新在前），status 为空时不过滤
func (r *exhibitionRepo) List(ctx context.Context, status models.ExhibitionStatus, pagination *Pagination) ([]*models.Exhibition, error) {
	query := r.db.WithContext(ctx).Model(&models.Exhibition{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	pagination.Total = total

	var exhibitions []*models.Exhibition
	err := query.
		Scopes(Paginate(pagination)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&exhibitions).Error
	return exhibitions, err
}

// CountApprovedBooths 展会下所有展厅中已通过的展位数
func (r *exhibitionRepo) CountApprovedBooths(ctx context.Context, exhibitionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booth{}).
		Joins("JOIN halls ON halls.id = booths.hall_id AND halls.deleted_at IS NULL").
		Where("halls.exhibition_id = ? AND booths.status = ?", exhibitionID, models.BoothApproved).
		Count(&count).Error
	return count, err
}
