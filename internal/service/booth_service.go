package service

import (
	"context"
	"strings"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/repository"
	"go.uber.org/zap"
)

// boothService 展厅与展位服务实现
type boothService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewBoothService 创建展位服务
func NewBoothService(repos *repository.Manager, log *zap.Logger) BoothService {
	return &boothService{repos: repos, log: log}
}

// CreateHall 创建展厅
func (s *boothService) CreateHall(ctx context.Context, req *CreateHallRequest) (*models.Hall, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "展厅名称不能为空")
	}
	layout := req.LayoutType
	if layout == "" {
		layout = models.LayoutGrid
	}

	if req.ExhibitionID != 0 {
		if _, err := s.repos.Exhibition().FindByID(ctx, req.ExhibitionID); err != nil {
			return nil, err
		}
	}

	hall := &models.Hall{
		ExhibitionID: req.ExhibitionID,
		Name:         name,
		LayoutType:   layout,
		Width:        req.Width,
		Height:       req.Height,
	}
	if err := s.repos.Hall().Create(ctx, hall); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	s.log.Info("展厅已创建", zap.Uint("hall_id", hall.ID), zap.String("name", hall.Name))
	return hall, nil
}

// ListHalls 展厅列表
func (s *boothService) ListHalls(ctx context.Context) ([]*models.Hall, error) {
	halls, err := s.repos.Hall().List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return halls, nil
}

// GetHall 展厅详情
func (s *boothService) GetHall(ctx context.Context, hallID uint) (*models.Hall, error) {
	return s.repos.Hall().FindByID(ctx, hallID)
}

// Create 创建展位，当前用户成为所有者
func (s *boothService) Create(ctx context.Context, owner *Principal, req *CreateBoothRequest) (*models.Booth, error) {
	if owner == nil {
		return nil, apperrors.New(apperrors.ErrAuthentication)
	}
	if owner.Role != models.RoleExhibitor && owner.Role != models.RoleAdmin {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "只有参展商可以创建展位")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "展位标题不能为空")
	}

	exists, err := s.repos.Hall().Exists(ctx, req.HallID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if !exists {
		return nil, apperrors.Newf(apperrors.ErrHallNotFound, "hall_id=%d", req.HallID)
	}

	booth := &models.Booth{
		HallID:       req.HallID,
		OwnerUserID:  owner.UserID,
		Status:       models.BoothDraft,
		Title:        title,
		Summary:      req.Summary,
		Description:  req.Description,
		Category:     req.Category,
		ThumbnailURL: req.ThumbnailURL,

		AllowGuestQuestions: req.AllowGuestQuestions,
		AllowGuestGuestbook: req.AllowGuestGuestbook,
	}
	if err := s.repos.Booth().Create(ctx, booth); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}

	s.log.Info("展位已创建",
		zap.Uint("booth_id", booth.ID),
		zap.Uint("hall_id", booth.HallID),
		zap.Uint("owner_id", booth.OwnerUserID),
	)
	return booth, nil
}

// Get 展位详情，无权访问时按不存在处理
func (s *boothService) Get(ctx context.Context, boothID uint, viewer *Principal) (*models.Booth, error) {
	booth, err := s.repos.Booth().FindByID(ctx, boothID)
	if err != nil {
		return nil, err
	}
	ok, err := s.canAccess(ctx, booth, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrBoothNotFound, "booth_id=%d", boothID)
	}
	return booth, nil
}

// ListByHall 展厅内展位列表，管理员可见全部，其余用户只见已通过的和自己的
func (s *boothService) ListByHall(ctx context.Context, hallID uint, viewer *Principal) ([]*models.Booth, error) {
	if _, err := s.repos.Hall().FindByID(ctx, hallID); err != nil {
		return nil, err
	}

	var status models.BoothStatus
	if viewer == nil {
		status = models.BoothApproved
	}
	booths, err := s.repos.Booth().ListByHall(ctx, hallID, status)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if viewer == nil || viewer.IsAdmin() {
		return booths, nil
	}

	visible := booths[:0]
	for _, b := range booths {
		if b.IsPublic() || b.OwnerUserID == viewer.UserID {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// UpdateStatus 变更审核状态
//
// 所有者只能提交或归档自己的展位，通过和驳回仅限管理员。
func (s *boothService) UpdateStatus(ctx context.Context, actor *Principal, boothID uint, req *UpdateBoothStatusRequest) (*models.Booth, error) {
	if actor == nil {
		return nil, apperrors.New(apperrors.ErrAuthentication)
	}
	if !req.Status.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "未知的展位状态: %s", req.Status)
	}

	booth, err := s.repos.Booth().FindByID(ctx, boothID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if booth.OwnerUserID != actor.UserID {
			return nil, apperrors.New(apperrors.ErrPermissionDenied, "不是展位所有者")
		}
		if req.Status != models.BoothSubmitted && req.Status != models.BoothArchived {
			return nil, apperrors.New(apperrors.ErrPermissionDenied, "只有管理员可以审核展位")
		}
	}
	if req.Status == models.BoothRejected && strings.TrimSpace(req.Reason) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "驳回时必须填写原因")
	}

	if err := s.repos.Booth().UpdateStatus(ctx, boothID, req.Status, actor.UserID, req.Reason); err != nil {
		return nil, err
	}

	s.log.Info("展位状态已变更",
		zap.Uint("booth_id", boothID),
		zap.String("from", string(booth.Status)),
		zap.String("to", string(req.Status)),
		zap.Uint("actor_id", actor.UserID),
	)
	return s.repos.Booth().FindByID(ctx, boothID)
}

// CanAccessBooth 判断访问权限
func (s *boothService) CanAccessBooth(ctx context.Context, boothID uint, viewer *Principal) (bool, error) {
	booth, err := s.repos.Booth().FindByID(ctx, boothID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return s.canAccess(ctx, booth, viewer)
}

// OwnerOf 展位所有者ID
func (s *boothService) OwnerOf(ctx context.Context, boothID int64) (int64, error) {
	if boothID <= 0 {
		return 0, apperrors.Newf(apperrors.ErrBoothNotFound, "booth_id=%d", boothID)
	}
	owner, err := s.repos.Booth().FindOwnerID(ctx, uint(boothID))
	if err != nil {
		return 0, err
	}
	return int64(owner), nil
}

// Members 展位成员列表
func (s *boothService) Members(ctx context.Context, boothID uint, viewer *Principal) ([]*BoothMemberDTO, error) {
	booth, err := s.repos.Booth().FindByID(ctx, boothID)
	if err != nil {
		return nil, err
	}
	ok, err := s.canAccess(ctx, booth, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrPermissionDenied, "booth_id=%d", boothID)
	}

	rows, err := s.repos.Booth().ListMembers(ctx, boothID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return toMemberDTOs(rows), nil
}

// AddMember 添加成员，同一用户在一个展位只能有一条成员记录
func (s *boothService) AddMember(ctx context.Context, actor *Principal, boothID uint, req *AddMemberRequest) (*BoothMemberDTO, error) {
	if _, err := s.requireManager(ctx, actor, boothID); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "未知的成员角色: %s", req.Role)
	}
	if _, err := s.repos.User().FindByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	exists, err := s.repos.Booth().IsMember(ctx, boothID, req.UserID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if exists {
		return nil, apperrors.Newf(apperrors.ErrAlreadyExists, "用户%d已是展位成员", req.UserID)
	}

	member := &models.BoothMember{BoothID: boothID, UserID: req.UserID, Role: req.Role}
	if err := s.repos.Booth().AddMember(ctx, member); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}

	s.log.Info("展位成员已添加",
		zap.Uint("booth_id", boothID),
		zap.Uint("user_id", req.UserID),
		zap.String("role", string(req.Role)),
		zap.Uint("actor_id", actor.UserID),
	)
	return s.member(ctx, boothID, req.UserID)
}

// UpdateMemberRole 修改成员角色，展位所有者本人的角色固定为 OWNER
func (s *boothService) UpdateMemberRole(ctx context.Context, actor *Principal, boothID, userID uint, req *UpdateMemberRoleRequest) (*BoothMemberDTO, error) {
	booth, err := s.requireManager(ctx, actor, boothID)
	if err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "未知的成员角色: %s", req.Role)
	}
	if userID == booth.OwnerUserID && req.Role != models.MemberOwner {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "不能修改展位所有者的角色")
	}

	if err := s.repos.Booth().UpdateMemberRole(ctx, boothID, userID, req.Role); err != nil {
		return nil, err
	}
	s.log.Info("展位成员角色已变更",
		zap.Uint("booth_id", boothID),
		zap.Uint("user_id", userID),
		zap.String("role", string(req.Role)),
	)
	return s.member(ctx, boothID, userID)
}

// RemoveMember 移除成员，展位所有者不能被移除
func (s *boothService) RemoveMember(ctx context.Context, actor *Principal, boothID, userID uint) error {
	booth, err := s.requireManager(ctx, actor, boothID)
	if err != nil {
		return err
	}
	if userID == booth.OwnerUserID {
		return apperrors.New(apperrors.ErrInvalidParam, "不能移除展位所有者")
	}
	if err := s.repos.Booth().RemoveMember(ctx, boothID, userID); err != nil {
		return err
	}
	s.log.Info("展位成员已移除", zap.Uint("booth_id", boothID), zap.Uint("user_id", userID))
	return nil
}

// MyMemberships 当前用户的成员身份
func (s *boothService) MyMemberships(ctx context.Context, user *Principal) ([]*BoothMemberDTO, error) {
	if user == nil {
		return nil, apperrors.New(apperrors.ErrAuthentication)
	}
	rows, err := s.repos.Booth().ListMemberships(ctx, user.UserID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return toMemberDTOs(rows), nil
}

// requireManager 校验成员管理权限并返回展位
func (s *boothService) requireManager(ctx context.Context, actor *Principal, boothID uint) (*models.Booth, error) {
	if actor == nil {
		return nil, apperrors.New(apperrors.ErrAuthentication)
	}
	booth, err := s.repos.Booth().FindByID(ctx, boothID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || booth.OwnerUserID == actor.UserID {
		return booth, nil
	}

	member, err := s.repos.Booth().FindMember(ctx, boothID, actor.UserID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if member == nil || member.Role != models.MemberOwner {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "没有管理展位成员的权限")
	}
	return booth, nil
}

func (s *boothService) member(ctx context.Context, boothID, userID uint) (*BoothMemberDTO, error) {
	rows, err := s.repos.Booth().ListMembers(ctx, boothID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	for _, row := range rows {
		if row.UserID == userID {
			return toMemberDTO(row), nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrNotFound, "booth_id=%d user_id=%d", boothID, userID)
}

func toMemberDTOs(rows []*repository.MemberRow) []*BoothMemberDTO {
	out := make([]*BoothMemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMemberDTO(row))
	}
	return out
}

func toMemberDTO(row *repository.MemberRow) *BoothMemberDTO {
	return &BoothMemberDTO{
		ID:           row.ID,
		BoothID:      row.BoothID,
		BoothTitle:   row.BoothTitle,
		UserID:       row.UserID,
		UserNickname: row.Nickname,
		UserEmail:    row.Email,
		Role:         row.Role,
		CreatedAt:    row.CreatedAt,
	}
}

func (s *boothService) canAccess(ctx context.Context, booth *models.Booth, viewer *Principal) (bool, error) {
	if booth.IsPublic() {
		return true, nil
	}
	if viewer == nil {
		return false, nil
	}
	if viewer.IsAdmin() || booth.OwnerUserID == viewer.UserID {
		return true, nil
	}
	member, err := s.repos.Booth().IsMember(ctx, booth.ID, viewer.UserID)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return member, nil
}
