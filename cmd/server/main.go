package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/wfunc/expo-garden/internal/api"
	"github.com/wfunc/expo-garden/internal/broker"
	"github.com/wfunc/expo-garden/internal/config"
	"github.com/wfunc/expo-garden/internal/database"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/logger"
	"github.com/wfunc/expo-garden/internal/presence"
	"github.com/wfunc/expo-garden/internal/service"
	ws "github.com/wfunc/expo-garden/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	broker   *broker.Broker
	protocol *presence.Protocol
	hub      *ws.Hub
	http     *http.Server
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		envFile     = flag.String("env", ".env", "环境变量文件")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// .env 只补充尚未设置的环境变量
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("加载环境变量文件失败: %v\n", err)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	setupSystem(&cfg.System)

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
	}
}

// Start 初始化组件并开始监听
func (s *Server) Start() error {
	s.logger.Info("正在启动展会服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initDatabase(); err != nil {
		return err
	}

	gin.SetMode(ginMode(s.cfg.Server.Mode))

	s.broker = broker.NewBroker(logger.WithModule("broker"))
	s.protocol = presence.NewProtocol(
		presence.NewRegistry(),
		s.broker,
		logger.WithModule("presence"),
		presenceOptions(s.cfg.Presence),
	)

	services := service.NewServices(database.GetDB(), service.ConfigFrom(s.cfg), s.broker, logger.WithModule("service"))

	wsLogger := logger.WithModule("websocket")
	s.hub = ws.NewHub(s.broker, s.protocol, ws.NewRouter(s.protocol, services.Chat, s.broker, wsLogger), wsLogger)
	go s.hub.Run()

	router := api.NewRouter(api.Dependencies{
		DB:       database.GetDB(),
		Services: services,
		Protocol: s.protocol,
		Hub:      s.hub,
		Config:   s.cfg,
		Logger:   logger.WithModule("api"),
	})

	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP服务异常退出", zap.Error(err))
		}
	}()

	config.Watch(s.reloadConfig)

	s.logger.Info("服务器启动成功",
		zap.String("http", s.cfg.Server.Addr()),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭，Hub 在 HTTP 服务之后停止
func (s *Server) Shutdown() error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var shutdownErr error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			shutdownErr = apperrors.Wrap(err, apperrors.ErrTimeout, "HTTP服务关闭超时")
		}
	}

	if s.hub != nil {
		s.hub.Stop()
		select {
		case <-s.hub.Done():
		case <-ctx.Done():
			s.logger.Warn("WebSocket Hub关闭超时")
		}
	}

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}
	return shutdownErr
}

// reloadConfig 热更新可在运行时调整的配置项
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Log.Level != s.cfg.Log.Level {
		logger.SetLevel(newCfg.Log.Level)
	}
	s.cfg = newCfg
	s.logger.Info("配置重新加载完成", zap.String("log_level", logger.Level()))
}

// ginMode 服务运行模式映射为 gin 模式
func ginMode(mode string) string {
	switch mode {
	case "production", "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// presenceOptions 在线协议参数，未配置的项使用默认值
func presenceOptions(cfg config.PresenceConfig) presence.Options {
	opts := presence.DefaultOptions()
	if cfg.MaxCharacterIndex > 0 {
		opts.MaxCharacterIndex = cfg.MaxCharacterIndex
	}
	if cfg.MaxNicknameLength > 0 {
		opts.MaxNicknameLength = cfg.MaxNicknameLength
	}
	return opts
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("展会实时服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
