package service

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/repository"
	"github.com/wfunc/expo-garden/internal/utils"
	"go.uber.org/zap"
)

// TokenTypeBearer 令牌类型
const TokenTypeBearer = "Bearer"

func errInvalidCredentials() error {
	return apperrors.New(apperrors.ErrAuthentication, "邮箱或密码错误")
}

// authService 认证服务实现
type authService struct {
	repos  *repository.Manager
	tokens *utils.TokenIssuer
	cfg    *Config
	log    *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(repos *repository.Manager, tokens *utils.TokenIssuer, cfg *Config, log *zap.Logger) AuthService {
	return &authService{
		repos:  repos,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

// Signup 用户注册
func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := s.validateSignup(req); err != nil {
		return nil, err
	}

	exists, err := s.repos.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if exists {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "邮箱已被使用")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "密码加密失败")
	}

	role := req.Role
	if role == "" {
		role = models.RoleVisitor
	}
	user := &models.User{
		Email:    req.Email,
		Nickname: strings.TrimSpace(req.Nickname),
		Role:     role,
	}

	err = s.repos.WithTransaction(ctx, func(txm *repository.Manager) error {
		if err := txm.User().Create(ctx, user); err != nil {
			return err
		}
		return txm.UserAuth().Create(ctx, &models.UserAuth{
			UserID:   user.ID,
			Password: hashed,
		})
	})
	if err != nil {
		s.log.Error("创建用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrTransaction, "创建用户失败")
	}

	s.log.Info("用户注册成功",
		zap.Uint("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return s.issue(user)
}

// Login 用户登录
func (s *authService) Login(ctx context.Context, req *LoginRequest, clientIP string) (*AuthResponse, error) {
	user, err := s.repos.User().FindByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, errInvalidCredentials()
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if !user.CanLogin() {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "账号已被封禁")
	}

	auth, err := s.repos.UserAuth().FindByUserID(ctx, user.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, errInvalidCredentials()
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if auth.LockedUntil != nil && auth.LockedUntil.After(time.Now()) {
		return nil, apperrors.Newf(apperrors.ErrAuthentication, "账号已锁定至 %s", auth.LockedUntil.Format(time.RFC3339))
	}

	ok, err := utils.VerifyPassword(req.Password, auth.Password)
	if err != nil {
		s.log.Error("密码校验异常", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, errInvalidCredentials()
	}
	if !ok {
		if err := s.repos.UserAuth().RecordFailedAttempt(ctx, user.ID, s.cfg.LoginLockAfter, s.cfg.LoginLockFor); err != nil {
			s.log.Warn("记录登录失败次数失败", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return nil, errInvalidCredentials()
	}

	if err := s.repos.UserAuth().ResetAttempts(ctx, user.ID); err != nil {
		s.log.Warn("重置登录失败次数失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	if err := s.repos.User().UpdateLastLogin(ctx, user.ID, clientIP); err != nil {
		s.log.Warn("更新登录信息失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.UpdateLoginInfo(clientIP)

	s.log.Info("用户登录成功", zap.Uint("user_id", user.ID), zap.String("ip", clientIP))
	return s.issue(user)
}

// Me 当前用户资料
func (s *authService) Me(ctx context.Context, userID uint) (*UserProfile, error) {
	user, err := s.repos.User().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

// Authenticate 校验访问令牌
func (s *authService) Authenticate(token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Nickname: claims.Nickname,
		Role:     models.Role(claims.Role),
	}, nil
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Nickname, string(user.Role))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "签发令牌失败")
	}
	return &AuthResponse{
		User:        toProfile(user),
		AccessToken: token,
		ExpiresAt:   expiresAt,
		TokenType:   TokenTypeBearer,
	}, nil
}

func (s *authService) validateSignup(req *SignupRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apperrors.New(apperrors.ErrInvalidParam, "邮箱格式不正确")
	}
	if len(req.Password) < utils.MinPasswordLength {
		return apperrors.Newf(apperrors.ErrInvalidParam, "密码长度至少%d位", utils.MinPasswordLength)
	}
	// 管理员不能自助注册
	if req.Role != "" && req.Role != models.RoleVisitor && req.Role != models.RoleExhibitor {
		return apperrors.Newf(apperrors.ErrInvalidParam, "不支持的角色: %s", req.Role)
	}
	return nil
}

func toProfile(user *models.User) *UserProfile {
	return &UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		Nickname:    user.Nickname,
		Role:        user.Role,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
