package service

import (
	"time"

	"github.com/wfunc/expo-garden/internal/broker"
	"github.com/wfunc/expo-garden/internal/config"
	"github.com/wfunc/expo-garden/internal/repository"
	"github.com/wfunc/expo-garden/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret         string
	JWTIssuer         string
	AccessTokenExpiry time.Duration

	// 连续登录失败达到次数后锁定
	LoginLockAfter int
	LoginLockFor   time.Duration

	GuestName        string
	PreviewLength    int
	MaxMessageLength int
	DefaultPageSize  int
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:         "change-me-in-production",
		JWTIssuer:         "expo-garden",
		AccessTokenExpiry: 24 * time.Hour,
		LoginLockAfter:    5,
		LoginLockFor:      15 * time.Minute,
		GuestName:         "게스트",
		PreviewLength:     100,
		MaxMessageLength:  2000,
		DefaultPageSize:   50,
	}
}

// ConfigFrom 从全局配置生成服务配置
func ConfigFrom(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.JWTSecret = cfg.Security.JWT.Secret
	if cfg.Security.JWT.Issuer != "" {
		c.JWTIssuer = cfg.Security.JWT.Issuer
	}
	if expiry := cfg.Security.JWT.AccessTokenExpiry(); expiry > 0 {
		c.AccessTokenExpiry = expiry
	}
	if cfg.Chat.GuestName != "" {
		c.GuestName = cfg.Chat.GuestName
	}
	if cfg.Chat.PreviewLength > 0 {
		c.PreviewLength = cfg.Chat.PreviewLength
	}
	if cfg.Chat.MaxMessageLength > 0 {
		c.MaxMessageLength = cfg.Chat.MaxMessageLength
	}
	if cfg.Chat.DefaultPageSize > 0 {
		c.DefaultPageSize = cfg.Chat.DefaultPageSize
	}
	return c
}

// Services 服务集合
type Services struct {
	Auth        AuthService
	Booth       BoothService
	Exhibition  ExhibitionService
	Interaction InteractionService
	Chat        ChatService
	Tokens      *utils.TokenIssuer
	Repos       *repository.Manager
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, cfg *Config, publisher broker.Publisher, log *zap.Logger) *Services {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	repos := repository.NewManager(db)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenExpiry)

	boothService := NewBoothService(repos, log.Named("booth"))

	return &Services{
		Auth:        NewAuthService(repos, tokens, cfg, log.Named("auth")),
		Booth:       boothService,
		Exhibition:  NewExhibitionService(repos, log.Named("exhibition")),
		Interaction: NewInteractionService(repos, boothService, cfg, log.Named("interaction")),
		Chat:        NewChatService(repos.ChatMessage(), boothService, publisher, cfg, log.Named("chat")),
		Tokens:      tokens,
		Repos:       repos,
	}
}
