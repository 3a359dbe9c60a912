package websocket

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wfunc/expo-garden/internal/broker"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/presence"
	"github.com/wfunc/expo-garden/internal/service"
	"go.uber.org/zap"
)

const appPrefix = "/app/"

// 应用目的地
const (
	RoutePlayerJoin     = "player.join"
	RoutePlayerPosition = "player.position"
	RoutePlayerLeave    = "player.leave"
	RouteChatBooth      = "chat.booth"
	RouteChatJoin       = "chat.join"
	RouteChatHall       = "chat.hall"
)

// Destination 解析后的发送目的地
type Destination struct {
	Route string
	ID    int64
}

// ParseDestination 解析 /app/{route}.{id}
func ParseDestination(raw string) (Destination, error) {
	if !strings.HasPrefix(raw, appPrefix) {
		return Destination{}, apperrors.Newf(apperrors.ErrUnknownRoute, "destination=%s", raw)
	}
	rest := strings.TrimPrefix(raw, appPrefix)
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return Destination{}, apperrors.Newf(apperrors.ErrUnknownRoute, "destination=%s", raw)
	}

	route := rest[:dot]
	switch route {
	case RoutePlayerJoin, RoutePlayerPosition, RoutePlayerLeave, RouteChatBooth, RouteChatJoin, RouteChatHall:
	default:
		return Destination{}, apperrors.Newf(apperrors.ErrUnknownRoute, "destination=%s", raw)
	}

	id, err := strconv.ParseInt(rest[dot+1:], 10, 64)
	if err != nil || id <= 0 {
		return Destination{}, apperrors.Newf(apperrors.ErrInvalidFrame, "目的地ID无效: %s", raw)
	}
	return Destination{Route: route, ID: id}, nil
}

// Router 把 send 帧分发到在线协议和聊天服务
type Router struct {
	protocol  *presence.Protocol
	chat      service.ChatService
	publisher broker.Publisher
	logger    *zap.Logger
}

// NewRouter 创建目的地路由
func NewRouter(protocol *presence.Protocol, chat service.ChatService, publisher broker.Publisher, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		protocol:  protocol,
		chat:      chat,
		publisher: publisher,
		logger:    logger,
	}
}

// Dispatch 处理一帧；错误只影响当前帧
func (r *Router) Dispatch(ctx context.Context, sender *Client, destination string, data json.RawMessage) error {
	dest, err := ParseDestination(destination)
	if err != nil {
		return err
	}

	switch dest.Route {
	case RoutePlayerJoin, RoutePlayerPosition, RoutePlayerLeave:
		var frame presence.InboundFrame
		if err := decodeData(data, &frame); err != nil {
			return err
		}
		r.identify(sender, &frame.UserID, &frame.Nickname)
		return r.dispatchPresence(ctx, dest, sender.ID(), frame)

	case RouteChatBooth:
		var msg service.InboundChat
		if err := decodeData(data, &msg); err != nil {
			return err
		}
		r.identify(sender, &msg.UserID, &msg.Username)
		saved, err := r.chat.Send(ctx, dest.ID, msg)
		if err != nil {
			return err
		}
		r.broadcast(ctx, broker.BoothTopic(dest.ID), saved)

	case RouteChatJoin:
		var msg service.InboundChat
		if err := decodeData(data, &msg); err != nil {
			return err
		}
		r.identify(sender, &msg.UserID, &msg.Username)
		r.broadcast(ctx, broker.BoothTopic(dest.ID), r.chat.Join(ctx, dest.ID, msg))

	case RouteChatHall:
		var msg service.InboundHallChat
		if err := decodeData(data, &msg); err != nil {
			return err
		}
		r.identify(sender, &msg.UserID, &msg.Nickname)
		out, err := r.chat.SendHall(ctx, dest.ID, msg)
		if err != nil {
			return err
		}
		r.broadcast(ctx, broker.HallChatTopic(dest.ID), out)
	}
	return nil
}

func (r *Router) dispatchPresence(ctx context.Context, dest Destination, sessionID string, frame presence.InboundFrame) error {
	var err error
	switch dest.Route {
	case RoutePlayerJoin:
		_, err = r.protocol.Join(ctx, dest.ID, sessionID, frame)
	case RoutePlayerPosition:
		_, err = r.protocol.Update(ctx, dest.ID, sessionID, frame)
	case RoutePlayerLeave:
		_, err = r.protocol.Leave(ctx, dest.ID, sessionID, frame)
	}
	return err
}

// identify 已认证连接以令牌中的用户为准，名字留空时用昵称补全
func (r *Router) identify(sender *Client, userID **int64, name *string) {
	uid := sender.UserID()
	if uid == nil {
		return
	}
	*userID = uid
	if strings.TrimSpace(*name) == "" {
		*name = sender.principal.Nickname
	}
}

func (r *Router) broadcast(ctx context.Context, topic broker.Topic, payload any) {
	if err := r.publisher.Publish(ctx, topic, payload); err != nil {
		r.logger.Error("聊天广播失败", zap.String("topic", topic.String()), zap.Error(err))
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return apperrors.New(apperrors.ErrInvalidFrame, "缺少消息体")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidFrame)
	}
	return nil
}
