package websocket

import (
	"context"
	"sync"

	"github.com/wfunc/expo-garden/internal/broker"
	"github.com/wfunc/expo-garden/internal/presence"
	"go.uber.org/zap"
)

// Hub WebSocket连接管理中心
//
// 连接注销时取消其全部订阅，并通过在线协议广播断线 LEAVE。
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	broker   *broker.Broker
	protocol *presence.Protocol
	router   *Router

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(b *broker.Broker, protocol *presence.Protocol, router *Router, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broker:     b,
		protocol:   protocol,
		router:     router,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 运行Hub，Stop 后关闭所有连接并返回
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			h.clientsMu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.clientsMu.RUnlock()

			for _, c := range clients {
				h.unregisterClient(c)
			}
			h.logger.Info("WebSocket Hub已停止", zap.Int("closed", len(clients)))
			return
		}
	}
}

// Stop 停止Hub
func (h *Hub) Stop() {
	h.cancel()
}

// Done Hub退出后关闭
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Context Hub生命周期上下文，连接上的帧处理使用它
func (h *Hub) Context() context.Context {
	return h.ctx
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		client.closeSend()
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// registerClient 注册客户端并发送 connected 帧
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.id] = client
	h.clientsMu.Unlock()

	var userID uint
	if client.principal != nil {
		userID = client.principal.UserID
	}
	h.logger.Info("WebSocket客户端连接",
		zap.String("session_id", client.id),
		zap.Uint("user_id", userID),
	)

	client.sendFrame(&ServerFrame{Type: FrameConnected, SessionID: client.id})
}

// unregisterClient 注销客户端：先退订，再广播断线
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[client.id]
	if ok {
		delete(h.clients, client.id)
	}
	h.clientsMu.Unlock()
	if !ok {
		return
	}

	client.closeSend()
	unsubscribed := h.broker.UnsubscribeAll(client.id)
	left := h.protocol.Disconnect(context.WithoutCancel(h.ctx), client.id)

	h.logger.Info("WebSocket客户端断开",
		zap.String("session_id", client.id),
		zap.Int("unsubscribed", unsubscribed),
		zap.Int("halls_left", left),
	)
}

// ClientCount 在线连接数
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Client 按会话ID查找连接
func (h *Hub) Client(sessionID string) (*Client, bool) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	c, ok := h.clients[sessionID]
	return c, ok
}
