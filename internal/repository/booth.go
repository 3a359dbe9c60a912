package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/gorm"
)

// BoothRepository 展位仓储接口
//
// 所有查询自动排除已软删除的展位。
type BoothRepository interface {
	BaseRepository
	Create(ctx context.Context, booth *models.Booth) error
	FindByID(ctx context.Context, id uint) (*models.Booth, error)
	FindOwnerID(ctx context.Context, id uint) (uint, error)
	ListByHall(ctx context.Context, hallID uint, status models.BoothStatus) ([]*models.Booth, error)
	UpdateStatus(ctx context.Context, id uint, status models.BoothStatus, actorID uint, reason string) error
	Delete(ctx context.Context, id uint) error
	AddMember(ctx context.Context, member *models.BoothMember) error
	IsMember(ctx context.Context, boothID, userID uint) (bool, error)
	FindMember(ctx context.Context, boothID, userID uint) (*models.BoothMember, error)
	ListMembers(ctx context.Context, boothID uint) ([]*MemberRow, error)
	ListMemberships(ctx context.Context, userID uint) ([]*MemberRow, error)
	UpdateMemberRole(ctx context.Context, boothID, userID uint, role models.MemberRole) error
	RemoveMember(ctx context.Context, boothID, userID uint) error
}

// MemberRow 成员记录连同用户资料和展位标题
type MemberRow struct {
	models.BoothMember
	Nickname   string
	Email      string
	BoothTitle string
}

type boothRepo struct {
	*BaseRepo
}

// NewBoothRepository 创建展位仓储
func NewBoothRepository(db *gorm.DB) BoothRepository {
	return &boothRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 创建展位并登记所有者为成员
func (r *boothRepo) Create(ctx context.Context, booth *models.Booth) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booth).Error; err != nil {
			return err
		}
		return tx.Create(&models.BoothMember{
			BoothID: booth.ID,
			UserID:  booth.OwnerUserID,
			Role:    models.MemberOwner,
		}).Error
	})
}

// FindByID 查找未删除的展位
func (r *boothRepo) FindByID(ctx context.Context, id uint) (*models.Booth, error) {
	var booth models.Booth
	if err := r.db.WithContext(ctx).First(&booth, id).Error; err != nil {
		return nil, boothNotFound(err, id)
	}
	return &booth, nil
}

// FindOwnerID 只查询所有者ID
func (r *boothRepo) FindOwnerID(ctx context.Context, id uint) (uint, error) {
	var booth models.Booth
	err := r.db.WithContext(ctx).
		Select("id", "owner_user_id").
		First(&booth, id).Error
	if err != nil {
		return 0, boothNotFound(err, id)
	}
	return booth.OwnerUserID, nil
}

// ListByHall 展厅内展位列表，status 为空时不过滤
func (r *boothRepo) ListByHall(ctx context.Context, hallID uint, status models.BoothStatus) ([]*models.Booth, error) {
	var booths []*models.Booth
	query := r.db.WithContext(ctx).Where("hall_id = ?", hallID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("id ASC").Find(&booths).Error
	return booths, err
}

// UpdateStatus 更新审核状态
func (r *boothRepo) UpdateStatus(ctx context.Context, id uint, status models.BoothStatus, actorID uint, reason string) error {
	updates := map[string]interface{}{"status": status}
	now := time.Now()
	switch status {
	case models.BoothSubmitted:
		updates["submitted_at"] = now
	case models.BoothApproved:
		updates["approved_at"] = now
		updates["approved_by"] = actorID
	case models.BoothRejected:
		updates["reject_reason"] = reason
	}

	result := r.db.WithContext(ctx).
		Model(&models.Booth{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.Newf(apperrors.ErrBoothNotFound, "booth_id=%d", id)
	}
	return nil
}

// Delete 软删除展位
func (r *boothRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Booth{}, id).Error
}

// AddMember 添加展位成员
func (r *boothRepo) AddMember(ctx context.Context, member *models.BoothMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// IsMember 用户是否为展位成员
func (r *boothRepo) IsMember(ctx context.Context, boothID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BoothMember{}).
		Where("booth_id = ? AND user_id = ?", boothID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindMember 查找成员记录
func (r *boothRepo) FindMember(ctx context.Context, boothID, userID uint) (*models.BoothMember, error) {
	var member models.BoothMember
	err := r.db.WithContext(ctx).
		Where("booth_id = ? AND user_id = ?", boothID, userID).
		First(&member).Error
	if err != nil {
		return nil, memberNotFound(err, boothID, userID)
	}
	return &member, nil
}

// ListMembers 展位成员列表（按加入顺序）
func (r *boothRepo) ListMembers(ctx context.Context, boothID uint) ([]*MemberRow, error) {
	var rows []*MemberRow
	err := r.memberRows(ctx).
		Where("m.booth_id = ?", boothID).
		Order("m.id ASC").
		Scan(&rows).Error
	return rows, err
}

// ListMemberships 用户加入的所有未删除展位
func (r *boothRepo) ListMemberships(ctx context.Context, userID uint) ([]*MemberRow, error) {
	var rows []*MemberRow
	err := r.memberRows(ctx).
		Where("m.user_id = ?", userID).
		Order("m.id ASC").
		Scan(&rows).Error
	return rows, err
}

// UpdateMemberRole 修改成员角色
func (r *boothRepo) UpdateMemberRole(ctx context.Context, boothID, userID uint, role models.MemberRole) error {
	result := r.db.WithContext(ctx).
		Model(&models.BoothMember{}).
		Where("booth_id = ? AND user_id = ?", boothID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return memberNotFound(gorm.ErrRecordNotFound, boothID, userID)
	}
	return nil
}

// RemoveMember 移除成员
func (r *boothRepo) RemoveMember(ctx context.Context, boothID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("booth_id = ? AND user_id = ?", boothID, userID).
		Delete(&models.BoothMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return memberNotFound(gorm.ErrRecordNotFound, boothID, userID)
	}
	return nil
}

func (r *boothRepo) memberRows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("booth_members AS m").
		Select("m.id, m.booth_id, m.user_id, m.role, m.created_at, " +
			"COALESCE(u.nickname, '') AS nickname, COALESCE(u.email, '') AS email, b.title AS booth_title").
		Joins("JOIN booths AS b ON b.id = m.booth_id AND b.deleted_at IS NULL").
		Joins("LEFT JOIN users AS u ON u.id = m.user_id")
}

func memberNotFound(err error, boothID, userID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Newf(apperrors.ErrNotFound, "booth_id=%d user_id=%d", boothID, userID)
	}
	return err
}

func boothNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Newf(apperrors.ErrBoothNotFound, "booth_id=%d", id)
	}
	return err
}
