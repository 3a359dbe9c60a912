package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/expo-garden/internal/broker"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChatServiceTestSuite 聊天服务测试套件
type ChatServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	ctx       context.Context
	repos     *repository.Manager
	recorder  *broker.Recorder
	chat      ChatService
	ownerID   uint
	boothID   int64
	fixedTime time.Time
}

func (suite *ChatServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.ctx = context.Background()
	suite.repos = repository.NewManager(suite.db)
	suite.recorder = broker.NewRecorder()
	suite.fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	owner := &models.User{Email: "owner@example.com", Role: models.RoleExhibitor}
	suite.Require().NoError(suite.repos.User().Create(suite.ctx, owner))
	suite.ownerID = owner.ID

	hall := &models.Hall{Name: "메인 홀"}
	suite.Require().NoError(suite.repos.Hall().Create(suite.ctx, hall))

	booth := &models.Booth{
		BaseModel:   models.BaseModel{ID: 7},
		HallID:      hall.ID,
		OwnerUserID: owner.ID,
		Status:      models.BoothApproved,
		Title:       "booth seven",
	}
	suite.Require().NoError(suite.repos.Booth().Create(suite.ctx, booth))
	suite.boothID = int64(booth.ID)

	suite.chat = suite.newChat(DefaultConfig())
}

func (suite *ChatServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *ChatServiceTestSuite) newChat(cfg *Config) ChatService {
	svc := NewChatService(
		suite.repos.ChatMessage(),
		NewBoothService(suite.repos, zap.NewNop()),
		suite.recorder,
		cfg,
		zap.NewNop(),
	)
	svc.(*chatService).now = func() time.Time { return suite.fixedTime }
	return svc
}

func (suite *ChatServiceTestSuite) storedCount() int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(&models.ChatMessage{}).Count(&count).Error)
	return count
}

// 游客消息：用户名替换为占位名，正文去除首尾空白，同时提醒所有者
func (suite *ChatServiceTestSuite) TestSendGuestMessage() {
	saved, err := suite.chat.Send(suite.ctx, 7, InboundChat{Username: "", Message: "  hi  "})
	suite.Require().NoError(err)

	suite.Equal("게스트", saved.Username)
	suite.Equal("hi", saved.Message)
	suite.Equal(int64(7), saved.BoothID)
	suite.Equal(models.ChatTypeChat, saved.Type)
	suite.NotEmpty(saved.ID)
	suite.False(saved.Timestamp.IsZero())
	suite.Nil(saved.UserID)

	// 已落库
	suite.Equal(int64(1), suite.storedCount())

	notifications := suite.recorder.On(broker.OwnerTopic(int64(suite.ownerID)))
	suite.Require().Len(notifications, 1)
	notification, ok := notifications[0].(ChatNotification)
	suite.Require().True(ok)
	suite.Equal(int64(7), notification.BoothID)
	suite.Equal(saved.ID, notification.MessageID)
	suite.Equal("게스트", notification.Username)
	suite.Equal("hi", notification.MessagePreview)

	// 展位主题广播由调用方负责
	suite.Empty(suite.recorder.On(broker.BoothTopic(7)))
}

func (suite *ChatServiceTestSuite) TestSendKeepsUser() {
	userID := int64(suite.ownerID)
	saved, err := suite.chat.Send(suite.ctx, suite.boothID, InboundChat{
		UserID:   &userID,
		Username: " 주인 ",
		Message:  "welcome",
	})
	suite.Require().NoError(err)
	suite.Equal("주인", saved.Username)
	suite.Require().NotNil(saved.UserID)
	suite.Equal(userID, *saved.UserID)
}

// 空消息被拒绝，不落库不广播
func (suite *ChatServiceTestSuite) TestSendEmptyMessage() {
	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := suite.chat.Send(suite.ctx, suite.boothID, InboundChat{Username: "kim", Message: body})
		suite.True(apperrors.Is(err, apperrors.ErrEmptyMessage))
	}
	suite.Equal(int64(0), suite.storedCount())
	suite.Empty(suite.recorder.All())
}

func (suite *ChatServiceTestSuite) TestSendTooLong() {
	cfg := DefaultConfig()
	cfg.MaxMessageLength = 5
	chat := suite.newChat(cfg)

	_, err := chat.Send(suite.ctx, suite.boothID, InboundChat{Message: "abcdef"})
	suite.True(apperrors.IsValidation(err))
	suite.Equal(int64(0), suite.storedCount())
}

// 展位不存在时在落库前失败
func (suite *ChatServiceTestSuite) TestSendUnknownBooth() {
	_, err := suite.chat.Send(suite.ctx, 404, InboundChat{Username: "kim", Message: "hello"})
	suite.True(apperrors.Is(err, apperrors.ErrBoothNotFound))
	suite.Equal(int64(0), suite.storedCount())
	suite.Empty(suite.recorder.All())

	suite.Require().NoError(suite.repos.Booth().Delete(suite.ctx, uint(suite.boothID)))
	_, err = suite.chat.Send(suite.ctx, suite.boothID, InboundChat{Username: "kim", Message: "hello"})
	suite.True(apperrors.IsNotFound(err))
	suite.Equal(int64(0), suite.storedCount())
}

// 提醒发送失败不影响消息保存
func (suite *ChatServiceTestSuite) TestSendNotificationFailure() {
	suite.recorder.FailWith(errors.New("broker down"))

	saved, err := suite.chat.Send(suite.ctx, suite.boothID, InboundChat{Username: "kim", Message: "hello"})
	suite.Require().NoError(err)
	suite.Equal("hello", saved.Message)
	suite.Equal(int64(1), suite.storedCount())
}

func (suite *ChatServiceTestSuite) TestNotificationPreviewTruncated() {
	cfg := DefaultConfig()
	cfg.PreviewLength = 3
	chat := suite.newChat(cfg)

	saved, err := chat.Send(suite.ctx, suite.boothID, InboundChat{Username: "kim", Message: "안녕하세요"})
	suite.Require().NoError(err)
	suite.Equal("안녕하세요", saved.Message)

	notifications := suite.recorder.On(broker.OwnerTopic(int64(suite.ownerID)))
	suite.Require().Len(notifications, 1)
	suite.Equal("안녕하", notifications[0].(ChatNotification).MessagePreview)
}

// 入场提示不落库
func (suite *ChatServiceTestSuite) TestJoin() {
	msg := suite.chat.Join(suite.ctx, suite.boothID, InboundChat{Username: "kim"})

	suite.NotEmpty(msg.ID)
	suite.Equal(models.ChatTypeJoin, msg.Type)
	suite.Equal("kim님이 입장하셨습니다.", msg.Message)
	suite.Equal(suite.boothID, msg.BoothID)
	suite.Equal(suite.fixedTime, msg.Timestamp)
	suite.Equal(int64(0), suite.storedCount())

	guest := suite.chat.Join(suite.ctx, suite.boothID, InboundChat{})
	suite.Equal("게스트님이 입장하셨습니다.", guest.Message)
	suite.NotEqual(msg.ID, guest.ID)
}

func (suite *ChatServiceTestSuite) TestSendHall() {
	msg, err := suite.chat.SendHall(suite.ctx, 3, InboundHallChat{Message: "  다들 안녕  "})
	suite.Require().NoError(err)
	suite.Equal(int64(3), msg.HallID)
	suite.Equal("게스트", msg.Nickname)
	suite.Equal("다들 안녕", msg.Message)
	suite.Equal(models.ChatTypeChat, msg.Type)
	suite.Equal(suite.fixedTime, msg.Timestamp)

	_, err = suite.chat.SendHall(suite.ctx, 3, InboundHallChat{Nickname: "kim", Message: " "})
	suite.True(apperrors.Is(err, apperrors.ErrEmptyMessage))

	_, err = suite.chat.SendHall(suite.ctx, 0, InboundHallChat{Message: "hi"})
	suite.True(apperrors.IsValidation(err))

	// 展厅聊天不落库
	suite.Equal(int64(0), suite.storedCount())
}

// 测试聊天记录分页（最新在前）
func (suite *ChatServiceTestSuite) TestMessages() {
	for _, body := range []string{"first", "second", "third"} {
		_, err := suite.chat.Send(suite.ctx, suite.boothID, InboundChat{Username: "kim", Message: body})
		suite.Require().NoError(err)
	}

	page, err := suite.chat.Messages(suite.ctx, suite.boothID, 0, 2)
	suite.Require().NoError(err)
	suite.Equal(int64(3), page.TotalElements)
	suite.Equal(2, page.TotalPages)
	suite.Equal(2, page.Size)
	suite.Equal(0, page.Number)
	suite.Require().Len(page.Content, 2)
	suite.Equal("third", page.Content[0].Message)
	suite.Equal("second", page.Content[1].Message)

	page, err = suite.chat.Messages(suite.ctx, suite.boothID, 1, 2)
	suite.Require().NoError(err)
	suite.Require().Len(page.Content, 1)
	suite.Equal("first", page.Content[0].Message)

	// 默认页大小
	page, err = suite.chat.Messages(suite.ctx, suite.boothID, -1, 0)
	suite.Require().NoError(err)
	suite.Equal(50, page.Size)
	suite.Len(page.Content, 3)

	empty, err := suite.chat.Messages(suite.ctx, 999, 0, 10)
	suite.Require().NoError(err)
	suite.Empty(empty.Content)
	suite.Equal(0, empty.TotalPages)
}

func TestChatServiceSuite(t *testing.T) {
	suite.Run(t, new(ChatServiceTestSuite))
}

func TestTruncateRunes(t *testing.T) {
	cases := map[string]struct {
		in   string
		max  int
		want string
	}{
		"短于上限": {"hi", 5, "hi"},
		"按字符截断": {"안녕하세요", 2, "안녕"},
		"上限为零": {"hello", 0, "hello"},
	}
	for name, tc := range cases {
		if got := truncateRunes(tc.in, tc.max); got != tc.want {
			t.Errorf("%s: truncateRunes(%q, %d) = %q, want %q", name, tc.in, tc.max, got, tc.want)
		}
	}
	if strings.Count(truncateRunes(strings.Repeat("a", 200), 100), "a") != 100 {
		t.Error("expected 100 runes")
	}
}
