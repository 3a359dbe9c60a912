package presence

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/expo-garden/internal/broker"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"go.uber.org/zap"
)

// ProtocolTestSuite 在线协议测试套件
type ProtocolTestSuite struct {
	suite.Suite
	rec   *broker.Recorder
	proto *Protocol
	ctx   context.Context
	clock time.Time
}

func (suite *ProtocolTestSuite) SetupTest() {
	suite.rec = broker.NewRecorder()
	suite.proto = NewProtocol(NewRegistry(), suite.rec, zap.NewNop(), DefaultOptions())
	suite.clock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.proto.now = func() time.Time {
		suite.clock = suite.clock.Add(time.Second)
		return suite.clock
	}
	suite.proto.registry.now = suite.proto.now
	suite.ctx = context.Background()
}

func (suite *ProtocolTestSuite) states(topic broker.Topic) []PlayerState {
	var out []PlayerState
	for _, payload := range suite.rec.On(topic) {
		out = append(out, payload.(PlayerState))
	}
	return out
}

func frame(user int64, nick string, x, y float64) InboundFrame {
	return InboundFrame{UserID: userID(user), Nickname: nick, X: x, Y: y, CharIndex: 1}
}

// 加入、移动、断线的完整流程
func (suite *ProtocolTestSuite) TestJoinUpdateDisconnectScenario() {
	joined, err := suite.proto.Join(suite.ctx, 5, "s1", frame(42, "Ann", 1, 1))
	suite.NoError(err)
	suite.Equal(EventJoin, joined.Type)
	suite.Equal(int64(5), joined.HallID)

	_, err = suite.proto.Update(suite.ctx, 5, "s1", frame(42, "Ann", 2, 3))
	suite.NoError(err)

	occupants := suite.proto.Registry().ListOccupants(5, "other")
	suite.Require().Len(occupants, 1)
	suite.Equal(int64(42), *occupants[0].State.UserID)
	suite.Equal(2.0, occupants[0].State.X)
	suite.Equal(3.0, occupants[0].State.Y)

	suite.rec.Reset()
	suite.Equal(1, suite.proto.Disconnect(suite.ctx, "s1"))
	suite.Equal(0, suite.proto.OccupantCount(5))

	leaves := suite.states(broker.HallTopic(5))
	suite.Require().Len(leaves, 1)
	suite.Equal(EventLeave, leaves[0].Type)
	suite.Equal(int64(42), *leaves[0].UserID)
	suite.Equal("Ann", leaves[0].Nickname)
	suite.Equal(2.0, leaves[0].X)
	suite.True(leaves[0].Timestamp.After(joined.Timestamp))
}

// 新加入者触发已有成员逐条 JOIN 重放，最后广播自己
func (suite *ProtocolTestSuite) TestJoinReplaysExistingOccupants() {
	_, err := suite.proto.Join(suite.ctx, 1, "a", frame(1, "A", 0, 0))
	suite.NoError(err)
	suite.Len(suite.states(broker.HallTopic(1)), 1)

	_, err = suite.proto.Update(suite.ctx, 1, "a", frame(1, "A", 7, 7))
	suite.NoError(err)
	_, err = suite.proto.Join(suite.ctx, 1, "b", frame(2, "B", 0, 0))
	suite.NoError(err)

	suite.rec.Reset()
	_, err = suite.proto.Join(suite.ctx, 1, "c", frame(3, "C", 0, 0))
	suite.NoError(err)

	events := suite.states(broker.HallTopic(1))
	suite.Require().Len(events, 3)
	suite.Equal("A", events[0].Nickname)
	suite.Equal(EventJoin, events[0].Type)
	suite.Equal(7.0, events[0].X)
	suite.Equal("B", events[1].Nickname)
	suite.Equal(EventJoin, events[1].Type)
	suite.Equal("C", events[2].Nickname)
}

// 重复 JOIN 覆盖而不重复
func (suite *ProtocolTestSuite) TestDuplicateJoinOverwrites() {
	_, err := suite.proto.Join(suite.ctx, 1, "a", frame(1, "A", 0, 0))
	suite.NoError(err)
	_, err = suite.proto.Join(suite.ctx, 1, "a", frame(1, "A", 4, 4))
	suite.NoError(err)

	suite.Equal(1, suite.proto.OccupantCount(1))
	// 第二次加入不会把自己当成已有成员重放
	suite.Len(suite.states(broker.HallTopic(1)), 2)
}

func (suite *ProtocolTestSuite) TestUpdateBeforeJoin() {
	state, err := suite.proto.Update(suite.ctx, 3, "late", frame(9, "늦게", 1, 2))
	suite.NoError(err)
	suite.Equal(EventUpdate, state.Type)
	suite.Equal(1, suite.proto.OccupantCount(3))

	events := suite.states(broker.HallTopic(3))
	suite.Require().Len(events, 1)
	suite.Equal(EventUpdate, events[0].Type)
}

func (suite *ProtocolTestSuite) TestLeave() {
	_, err := suite.proto.Join(suite.ctx, 1, "a", frame(1, "A", 3, 3))
	suite.NoError(err)
	suite.rec.Reset()

	// 帧只带部分字段时用最后已知状态补全
	state, err := suite.proto.Leave(suite.ctx, 1, "a", InboundFrame{})
	suite.NoError(err)
	suite.Equal(EventLeave, state.Type)
	suite.Equal("A", state.Nickname)
	suite.Equal(int64(1), *state.UserID)
	suite.Equal(0, suite.proto.OccupantCount(1))

	// 未在展厅的会话离开：无状态变化，仍回显
	state, err = suite.proto.Leave(suite.ctx, 1, "a", frame(1, "A", 0, 0))
	suite.NoError(err)
	suite.Equal(EventLeave, state.Type)
	suite.Equal(0, suite.proto.OccupantCount(1))
	suite.Len(suite.states(broker.HallTopic(1)), 2)
}

func (suite *ProtocolTestSuite) TestDisconnectUnknownSession() {
	suite.Equal(0, suite.proto.Disconnect(suite.ctx, "never-seen"))
	suite.Empty(suite.rec.All())
}

func (suite *ProtocolTestSuite) TestDisconnectMultiHall() {
	_, err := suite.proto.Join(suite.ctx, 1, "S", frame(1, "S", 0, 0))
	suite.NoError(err)
	_, err = suite.proto.Join(suite.ctx, 2, "S", frame(1, "S", 0, 0))
	suite.NoError(err)
	suite.rec.Reset()

	suite.Equal(2, suite.proto.Disconnect(suite.ctx, "S"))
	suite.Len(suite.states(broker.HallTopic(1)), 1)
	suite.Len(suite.states(broker.HallTopic(2)), 1)
	suite.Equal(0, suite.proto.Registry().HallCount())
}

// 无效帧被拒绝：不改变状态，不广播
func (suite *ProtocolTestSuite) TestValidation() {
	cases := []struct {
		name   string
		hallID int64
		sid    string
		frame  InboundFrame
	}{
		{"hall zero", 0, "s", frame(1, "A", 0, 0)},
		{"no session", 1, "", frame(1, "A", 0, 0)},
		{"blank nickname", 1, "s", frame(1, "   ", 0, 0)},
		{"char index negative", 1, "s", InboundFrame{Nickname: "A", CharIndex: -1}},
		{"char index too big", 1, "s", InboundFrame{Nickname: "A", CharIndex: 32}},
		{"nan", 1, "s", InboundFrame{Nickname: "A", X: math.NaN()}},
		{"inf", 1, "s", InboundFrame{Nickname: "A", Y: math.Inf(1)}},
	}

	for _, tc := range cases {
		_, err := suite.proto.Join(suite.ctx, tc.hallID, tc.sid, tc.frame)
		suite.True(apperrors.IsValidation(err), tc.name)
		_, err = suite.proto.Update(suite.ctx, tc.hallID, tc.sid, tc.frame)
		suite.True(apperrors.IsValidation(err), tc.name)
	}

	_, err := suite.proto.Leave(suite.ctx, 0, "s", InboundFrame{})
	suite.True(apperrors.IsValidation(err))

	suite.Equal(0, suite.proto.Registry().HallCount())
	suite.Empty(suite.rec.All())
}

// 广播失败不回滚注册表
func (suite *ProtocolTestSuite) TestBroadcastFailureKeepsState() {
	suite.rec.FailWith(apperrors.New(apperrors.ErrPublish))

	_, err := suite.proto.Join(suite.ctx, 1, "a", frame(1, "A", 0, 0))
	suite.NoError(err)
	suite.Equal(1, suite.proto.OccupantCount(1))

	suite.Equal(1, suite.proto.Disconnect(suite.ctx, "a"))
	suite.Equal(0, suite.proto.OccupantCount(1))
}

func (suite *ProtocolTestSuite) TestOccupants() {
	_, _ = suite.proto.Join(suite.ctx, 1, "a", frame(1, "A", 0, 0))
	_, _ = suite.proto.Join(suite.ctx, 1, "b", frame(2, "B", 0, 0))

	occupants := suite.proto.Occupants(1)
	suite.Len(occupants, 2)
	suite.Empty(suite.proto.Occupants(2))
}

// 昵称去除首尾空白后再保存和广播
func (suite *ProtocolTestSuite) TestNicknameTrimmed() {
	state, err := suite.proto.Join(suite.ctx, 1, "a", frame(1, "  Ann ", 0, 0))
	suite.NoError(err)
	suite.Equal("Ann", state.Nickname)

	stored, ok := suite.proto.Registry().Lookup(1, "a")
	suite.Require().True(ok)
	suite.Equal("Ann", stored.Nickname)

	_, err = suite.proto.Update(suite.ctx, 1, "a", frame(1, "\tAnn\n", 5, 5))
	suite.NoError(err)

	events := suite.states(broker.HallTopic(1))
	suite.Require().Len(events, 2)
	for _, e := range events {
		suite.Equal("Ann", e.Nickname)
	}
}

func TestProtocolSuite(t *testing.T) {
	suite.Run(t, new(ProtocolTestSuite))
}

// 多个会话并发加入同一展厅：每个加入者的广播都送达，最终人数正确
func TestProtocolConcurrentJoin(t *testing.T) {
	const sessions = 24
	rec := broker.NewRecorder()
	proto := NewProtocol(NewRegistry(), rec, zap.NewNop(), DefaultOptions())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := proto.Join(ctx, 7, fmt.Sprintf("s-%d", i), frame(int64(i+1), fmt.Sprintf("p%d", i), float64(i), 0))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, sessions, proto.OccupantCount(7))
	assert.Len(t, proto.Occupants(7), sessions)

	seen := make(map[string]int)
	payloads := rec.On(broker.HallTopic(7))
	assert.GreaterOrEqual(t, len(payloads), sessions)
	for _, payload := range payloads {
		state := payload.(PlayerState)
		assert.Equal(t, EventJoin, state.Type)
		assert.Equal(t, int64(7), state.HallID)
		seen[state.Nickname]++
	}
	for i := 0; i < sessions; i++ {
		assert.GreaterOrEqual(t, seen[fmt.Sprintf("p%d", i)], 1, "p%d", i)
	}
	// 其他主题没有发布
	assert.Len(t, rec.All(), len(payloads))
}
