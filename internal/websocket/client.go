package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/expo-garden/internal/broker"
	"github.com/wfunc/expo-garden/internal/config"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/logger"
	"github.com/wfunc/expo-garden/internal/service"
	"go.uber.org/zap"
)

// ClientConfig 连接参数
type ClientConfig struct {
	MaxMessageSize int64
	SendBufferSize int
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultClientConfig 默认连接参数
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxMessageSize: 64 * 1024,
		SendBufferSize: 256,
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// ClientConfigFrom 从全局配置生成连接参数
func ClientConfigFrom(cfg config.WebSocketConfig) ClientConfig {
	c := DefaultClientConfig()
	if cfg.MaxMessageSize > 0 {
		c.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.SendBufferSize > 0 {
		c.SendBufferSize = cfg.SendBufferSize
	}
	if cfg.PongTimeout > 0 {
		c.PongTimeout = cfg.PongTimeout
	}
	// ping 周期必须小于 pong 超时
	if cfg.PingInterval > 0 && cfg.PingInterval < c.PongTimeout {
		c.PingInterval = cfg.PingInterval
	} else {
		c.PingInterval = c.PongTimeout * 9 / 10
	}
	if cfg.WriteTimeout > 0 {
		c.WriteTimeout = cfg.WriteTimeout
	}
	return c
}

// Client 一个WebSocket连接，同时是一个会话和一个订阅者
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	principal *service.Principal
	cfg       ClientConfig
	logger    *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建客户端，principal 为 nil 表示游客
func NewClient(hub *Hub, conn *websocket.Conn, principal *service.Principal, cfg ClientConfig) *Client {
	id := uuid.NewString()
	return &Client{
		id:        id,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, cfg.SendBufferSize),
		principal: principal,
		cfg:       cfg,
		logger:    hub.logger.With(zap.String("session_id", id)),
	}
}

// ID 会话ID
func (c *Client) ID() string {
	return c.id
}

// SubscriberID 实现 broker.Subscriber
func (c *Client) SubscriberID() string {
	return c.id
}

// Principal 已认证用户，游客为 nil
func (c *Client) Principal() *service.Principal {
	return c.principal
}

// UserID 已认证用户ID，游客为 nil
func (c *Client) UserID() *int64 {
	if c.principal == nil {
		return nil
	}
	id := int64(c.principal.UserID)
	return &id
}

// Deliver 实现 broker.Subscriber，缓冲区满时丢弃
func (c *Client) Deliver(topic broker.Topic, payload []byte) error {
	data, err := encodeFrame(messageFrame(topic.String(), payload))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return apperrors.New(apperrors.ErrWebSocketClosed)
	}
	select {
	case c.send <- data:
		return nil
	default:
		return apperrors.New(apperrors.ErrWebSocketSend, "发送缓冲区已满")
	}
}

// closeSend 关闭发送通道，WritePump 随之退出
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendFrame(frame *ServerFrame) {
	data, err := encodeFrame(frame)
	if err != nil {
		c.logger.Error("编码帧失败", zap.String("type", frame.Type), zap.Error(err))
		return
	}
	if err := c.enqueue(data); err != nil {
		c.logger.Warn("发送帧失败", zap.String("type", frame.Type), zap.Error(err))
		return
	}
	logger.LogWebSocketMessage("send", frame.Type, frame.Destination)
}

func (c *Client) sendError(err error) {
	c.sendFrame(errorFrame(err))
}

// ReadPump 读取消息，返回时注销客户端
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket读取错误", zap.Error(err))
			}
			return
		}
		c.handleMessage(ctx, message)
	}
}

// WritePump 写入消息并定时发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				// Hub关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理一帧，失败时回送 error 帧，连接保持
func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	frame, err := DecodeFrame(raw)
	if err != nil {
		c.logger.Debug("无效的客户端帧", zap.Error(err))
		c.sendError(err)
		return
	}
	logger.LogWebSocketMessage("receive", frame.Type, frame.Destination)

	switch frame.Type {
	case FramePing:
		c.sendFrame(&ServerFrame{Type: FramePong})
		return

	case FrameSubscribe:
		err = c.subscribe(frame.Destination)

	case FrameUnsubscribe:
		var topic broker.Topic
		if topic, err = broker.ParseTopic(frame.Destination); err == nil {
			c.hub.broker.Unsubscribe(topic, c.id)
		}

	case FrameSend:
		err = c.hub.router.Dispatch(ctx, c, frame.Destination, frame.Data)
	}

	if err != nil {
		c.logger.Debug("帧处理失败",
			zap.String("type", frame.Type),
			zap.String("destination", frame.Destination),
			zap.Error(err),
		)
		c.sendError(err)
		return
	}
	if frame.Receipt != "" {
		c.sendFrame(&ServerFrame{Type: FrameReceipt, Receipt: frame.Receipt, Destination: frame.Destination})
	}
}

// subscribe 订阅主题；所有者主题只允许本人订阅
func (c *Client) subscribe(destination string) error {
	topic, err := broker.ParseTopic(destination)
	if err != nil {
		return err
	}
	if topic.IsOwner() {
		if c.principal == nil || topic != broker.OwnerTopic(int64(c.principal.UserID)) {
			return apperrors.Newf(apperrors.ErrPermissionDenied, "不能订阅 %s", destination)
		}
	}
	c.hub.broker.Subscribe(topic, c)
	return nil
}
