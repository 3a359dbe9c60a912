package presence

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wfunc/expo-garden/internal/broker"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/logger"
	"go.uber.org/zap"
)

// Options 协议参数
type Options struct {
	MaxCharacterIndex int
	MaxNicknameLength int
}

// DefaultOptions 默认协议参数
func DefaultOptions() Options {
	return Options{MaxCharacterIndex: 31, MaxNicknameLength: 50}
}

// Protocol 展厅在线状态机：JOIN/UPDATE/LEAVE/断线
//
// 每次改变注册表的状态转换都在展厅主题上广播一次；广播失败只记日志，不回滚注册表。
type Protocol struct {
	registry  *Registry
	publisher broker.Publisher
	logger    *zap.Logger
	opts      Options
	now       func() time.Time
}

// NewProtocol 创建在线协议
func NewProtocol(registry *Registry, publisher broker.Publisher, log *zap.Logger, opts Options) *Protocol {
	if log == nil {
		log = zap.NewNop()
	}
	return &Protocol{
		registry:  registry,
		publisher: publisher,
		logger:    log,
		opts:      opts,
		now:       time.Now,
	}
}

// Registry 底层在线状态表
func (p *Protocol) Registry() *Registry {
	return p.registry
}

// Join 加入展厅：注册后逐条重放其他在线成员，再广播加入者
func (p *Protocol) Join(ctx context.Context, hallID int64, sessionID string, frame InboundFrame) (PlayerState, error) {
	frame.Nickname = strings.TrimSpace(frame.Nickname)
	if err := p.validate(hallID, sessionID, frame, true); err != nil {
		return PlayerState{}, err
	}

	state := frame.stamp(hallID, EventJoin, p.now())
	p.registry.AddPlayer(hallID, sessionID, state)

	topic := broker.HallTopic(hallID)
	others := p.registry.ListOccupants(hallID, sessionID)
	for _, o := range others {
		replay := o.State
		replay.HallID = hallID
		replay.Type = EventJoin
		p.broadcast(ctx, topic, replay)
	}
	p.broadcast(ctx, topic, state)

	logger.LogPresenceEvent("join", hallID, sessionID,
		zap.String("nickname", state.Nickname),
		zap.Int("replayed", len(others)),
	)
	return state, nil
}

// Update 位置更新；未加入的会话按隐式加入注册，帧原样广播
func (p *Protocol) Update(ctx context.Context, hallID int64, sessionID string, frame InboundFrame) (PlayerState, error) {
	frame.Nickname = strings.TrimSpace(frame.Nickname)
	if err := p.validate(hallID, sessionID, frame, true); err != nil {
		return PlayerState{}, err
	}

	state := frame.stamp(hallID, EventUpdate, p.now())
	if implicit := p.registry.UpdatePosition(hallID, sessionID, state); implicit {
		p.logger.Warn("未加入的会话上报位置，按隐式加入处理",
			zap.Int64("hall_id", hallID),
			zap.String("session_id", sessionID),
		)
	}
	p.broadcast(ctx, broker.HallTopic(hallID), state)
	return state, nil
}

// Leave 主动离开；会话不在展厅时不改变注册表，但仍回显 LEAVE
func (p *Protocol) Leave(ctx context.Context, hallID int64, sessionID string, frame InboundFrame) (PlayerState, error) {
	frame.Nickname = strings.TrimSpace(frame.Nickname)
	if err := p.validate(hallID, sessionID, frame, false); err != nil {
		return PlayerState{}, err
	}

	state := frame.stamp(hallID, EventLeave, p.now())
	if last, ok := p.registry.RemovePlayer(hallID, sessionID); ok {
		// 帧缺失的身份信息用最后已知状态补全
		if state.UserID == nil {
			state.UserID = last.UserID
		}
		if state.Nickname == "" {
			state.Nickname = last.Nickname
		}
	}
	p.broadcast(ctx, broker.HallTopic(hallID), state)

	logger.LogPresenceEvent("leave", hallID, sessionID, zap.String("nickname", state.Nickname))
	return state, nil
}

// Disconnect 连接断开：从所有展厅移除会话并逐条广播 LEAVE，返回移除数量
func (p *Protocol) Disconnect(ctx context.Context, sessionID string) int {
	leaves := p.registry.RemoveBySession(sessionID)
	for _, leave := range leaves {
		p.broadcast(ctx, broker.HallTopic(leave.HallID), leave)
		logger.LogPresenceEvent("disconnect", leave.HallID, sessionID, zap.String("nickname", leave.Nickname))
	}
	return len(leaves)
}

// Occupants 展厅在线成员快照
func (p *Protocol) Occupants(hallID int64) []Occupant {
	return p.registry.ListOccupants(hallID, "")
}

// OccupantCount 展厅在线人数
func (p *Protocol) OccupantCount(hallID int64) int {
	return p.registry.OccupantCount(hallID)
}

func (p *Protocol) broadcast(ctx context.Context, topic broker.Topic, state PlayerState) {
	if err := p.publisher.Publish(ctx, topic, state); err != nil {
		p.logger.Error("在线状态广播失败",
			zap.String("topic", topic.String()),
			zap.String("type", string(state.Type)),
			zap.Error(err),
		)
	}
}

// validate 校验帧；失败时不修改状态也不广播
func (p *Protocol) validate(hallID int64, sessionID string, frame InboundFrame, requireIdentity bool) error {
	if hallID <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidFrame, "无效的展厅ID: %d", hallID)
	}
	if sessionID == "" {
		return apperrors.New(apperrors.ErrInvalidFrame, "缺少会话ID")
	}
	if !requireIdentity {
		return nil
	}

	nickname := frame.Nickname
	if nickname == "" {
		return apperrors.New(apperrors.ErrInvalidFrame, "昵称不能为空")
	}
	if p.opts.MaxNicknameLength > 0 && utf8.RuneCountInString(nickname) > p.opts.MaxNicknameLength {
		return apperrors.Newf(apperrors.ErrInvalidFrame, "昵称长度超过%d", p.opts.MaxNicknameLength)
	}
	if frame.CharIndex < 0 || frame.CharIndex > p.opts.MaxCharacterIndex {
		return apperrors.Newf(apperrors.ErrInvalidFrame, "角色索引越界: %d", frame.CharIndex)
	}
	if !finite(frame.X) || !finite(frame.Y) {
		return apperrors.New(apperrors.ErrInvalidFrame, "坐标必须为有限数")
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
