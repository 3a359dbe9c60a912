package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/expo-garden/internal/config"
	"github.com/wfunc/expo-garden/internal/middleware"
	ws "github.com/wfunc/expo-garden/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub       *ws.Hub
	upgrader  websocket.Upgrader
	clientCfg ws.ClientConfig
	logger    *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	readSize, writeSize := cfg.ReadBufferSize, cfg.WriteBufferSize
	if readSize <= 0 {
		readSize = 1024
	}
	if writeSize <= 0 {
		writeSize = 1024
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    readSize,
			WriteBufferSize:   writeSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin:       originChecker(cfg.AllowedOrigins),
		},
		clientCfg: ws.ClientConfigFrom(cfg),
		logger:    logger,
	}
}

// originChecker 空列表或包含 "*" 时放行所有来源
func originChecker(allowed []string) func(r *http.Request) bool {
	hosts := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			hosts[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
		}
	}
	if len(hosts) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := hosts[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// Connect 建立实时连接，令牌可选，无令牌时以游客身份接入
// @Summary WebSocket 连接
// @Tags Realtime
// @Param token query string false "访问令牌"
// @Success 101
// @Router /ws [get]
func (h *WebSocketHandler) Connect(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket升级失败",
			zap.String("ip", c.ClientIP()),
			zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, principal, h.clientCfg)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.hub.Context())

	var userID uint
	if principal != nil {
		userID = principal.UserID
	}
	h.logger.Debug("WebSocket连接建立",
		zap.String("session_id", client.ID()),
		zap.Uint("user_id", userID),
		zap.String("ip", c.ClientIP()))
}
