package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/expo-garden/internal/config"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/middleware"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/presence"
	"github.com/wfunc/expo-garden/internal/service"
	ws "github.com/wfunc/expo-garden/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies 路由依赖
type Dependencies struct {
	DB       *gorm.DB
	Services *service.Services
	Protocol *presence.Protocol
	Hub      *ws.Hub
	Config   *config.Config
	Logger   *zap.Logger
}

// Router API路由器
type Router struct {
	engine           *gin.Engine
	db               *gorm.DB
	hub              *ws.Hub
	protocol         *presence.Protocol
	cfg              *config.Config
	authHandler      *AuthHandler
	boothHandler     *BoothHandler
	memberHandler    *MemberHandler
	interaction      *InteractionHandler
	exhibitions      *ExhibitionHandler
	presenceHandler  *PresenceHandler
	websocketHandler *WebSocketHandler
	authMiddleware   *middleware.AuthMiddleware
	log              *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(deps Dependencies) *Router {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	router := &Router{
		engine:           engine,
		db:               deps.DB,
		hub:              deps.Hub,
		protocol:         deps.Protocol,
		cfg:              cfg,
		authHandler:      NewAuthHandler(deps.Services.Auth),
		boothHandler:     NewBoothHandler(deps.Services.Booth, deps.Services.Chat),
		memberHandler:    NewMemberHandler(deps.Services.Booth),
		interaction:      NewInteractionHandler(deps.Services.Interaction),
		exhibitions:      NewExhibitionHandler(deps.Services.Exhibition),
		presenceHandler:  NewPresenceHandler(deps.Protocol),
		websocketHandler: NewWebSocketHandler(deps.Hub, cfg.WebSocket, log),
		authMiddleware:   middleware.NewAuthMiddleware(deps.Services.Auth),
		log:              log,
	}

	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	v1 := r.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", r.authHandler.Signup)
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/me", r.authMiddleware.RequireAuth(), r.authHandler.Me)
		}

		v1.GET("/my/memberships", r.authMiddleware.RequireAuth(), r.memberHandler.Mine)

		exhibitions := v1.Group("/exhibitions")
		{
			exhibitions.GET("", r.exhibitions.List)
			exhibitions.POST("", r.authMiddleware.RequireRole(models.RoleAdmin), r.exhibitions.Create)
			exhibitions.GET("/:id", r.exhibitions.Get)
			exhibitions.GET("/:id/halls", r.exhibitions.Halls)
		}

		halls := v1.Group("/halls")
		halls.Use(r.authMiddleware.OptionalAuth())
		{
			halls.GET("", r.boothHandler.ListHalls)
			halls.POST("", r.authMiddleware.RequireRole(models.RoleAdmin), r.boothHandler.CreateHall)
			halls.GET("/:id", r.boothHandler.GetHall)
			halls.GET("/:id/booths", r.boothHandler.ListHallBooths)
			halls.GET("/:id/presence", r.presenceHandler.HallPresence)
		}

		booths := v1.Group("/booths")
		booths.Use(r.authMiddleware.OptionalAuth())
		{
			booths.POST("", r.authMiddleware.RequireAuth(), r.boothHandler.CreateBooth)
			booths.GET("/:id", r.boothHandler.GetBooth)
			booths.PUT("/:id/status", r.authMiddleware.RequireAuth(), r.boothHandler.UpdateBoothStatus)
			booths.GET("/:id/chat/messages", r.boothHandler.ChatMessages)

			booths.GET("/:id/questions", r.interaction.Questions)
			booths.POST("/:id/questions", r.interaction.Ask)
			booths.GET("/:id/guestbook", r.interaction.Guestbook)
			booths.POST("/:id/guestbook", r.interaction.Sign)

			booths.GET("/:id/members", r.memberHandler.List)
			booths.POST("/:id/members", r.authMiddleware.RequireAuth(), r.memberHandler.Add)
			booths.PUT("/:id/members/:userId", r.authMiddleware.RequireAuth(), r.memberHandler.UpdateRole)
			booths.DELETE("/:id/members/:userId", r.authMiddleware.RequireAuth(), r.memberHandler.Remove)
		}
	}

	wsPath := r.cfg.WebSocket.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.engine.GET(wsPath, r.authMiddleware.OptionalAuth(), r.websocketHandler.Connect)

	r.engine.NoRoute(func(c *gin.Context) {
		respondError(c, apperrors.Newf(apperrors.ErrNotFound, "%s %s", c.Request.Method, c.Request.URL.Path))
	})
}

// healthCheck 健康检查
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (r *Router) healthCheck(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	dbStatus := "ok"

	if err := r.pingDB(c.Request.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		dbStatus = err.Error()
	}

	body := gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().Unix(),
	}
	if r.hub != nil {
		body["connections"] = r.hub.ClientCount()
	}
	if r.protocol != nil {
		body["halls"] = r.protocol.Registry().HallCount()
	}
	c.JSON(code, body)
}

func (r *Router) pingDB(ctx context.Context) error {
	if r.db == nil {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库未初始化")
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
