package service

import (
	"context"
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

// InteractionServiceTestSuite 提问、留言簿和展会服务测试
type InteractionServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	services *Services
	ctx      context.Context

	hall    *models.Hall
	owner   *Principal
	visitor *Principal
	admin   *Principal
}

func (suite *InteractionServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.ctx = context.Background()
	suite.services = NewServices(suite.db, DefaultConfig(), broker.NewRecorder(), zap.NewNop())

	hall, err := suite.services.Booth.CreateHall(suite.ctx, &CreateHallRequest{Name: "A홀"})
	suite.Require().NoError(err)
	suite.hall = hall

	suite.owner = suite.createUser("owner@example.com", "주인", models.RoleExhibitor)
	suite.visitor = suite.createUser("visitor@example.com", "방문자", models.RoleVisitor)
	suite.admin = suite.createUser("admin@example.com", "관리자", models.RoleAdmin)
}

func (suite *InteractionServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *InteractionServiceTestSuite) createUser(email, nickname string, role models.Role) *Principal {
	user := &models.User{Email: email, Nickname: nickname, Role: role}
	suite.Require().NoError(suite.services.Repos.User().Create(suite.ctx, user))
	return &Principal{UserID: user.ID, Email: user.Email, Nickname: user.Nickname, Role: user.Role}
}

func (suite *InteractionServiceTestSuite) createBooth(req *CreateBoothRequest, approve bool) *models.Booth {
	req.HallID = suite.hall.ID
	booth, err := suite.services.Booth.Create(suite.ctx, suite.owner, req)
	suite.Require().NoError(err)
	if approve {
		_, err = suite.services.Booth.UpdateStatus(suite.ctx, suite.admin, booth.ID, &UpdateBoothStatusRequest{Status: models.BoothApproved})
		suite.Require().NoError(err)
	}
	return booth
}

func (suite *InteractionServiceTestSuite) TestQuestions() {
	booth := suite.createBooth(&CreateBoothRequest{Title: "open", AllowGuestQuestions: true}, true)
	interactions := suite.services.Interaction

	asked, err := interactions.Ask(suite.ctx, booth.ID, suite.visitor, &CreateQuestionRequest{Content: "  가격은?  ", GuestSessionID: "ignored"})
	suite.Require().NoError(err)
	suite.Equal("가격은?", asked.Content)
	suite.Equal("방문자", asked.UserNickname)
	suite.Require().NotNil(asked.UserID)
	suite.Equal(suite.visitor.UserID, *asked.UserID)
	suite.Empty(asked.GuestSessionID)
	suite.Equal(models.ContentVisible, asked.Status)

	guest, err := interactions.Ask(suite.ctx, booth.ID, nil, &CreateQuestionRequest{Content: "데모 시간?", GuestSessionID: "g-7"})
	suite.Require().NoError(err)
	suite.Nil(guest.UserID)
	suite.Equal("g-7", guest.GuestSessionID)
	suite.Equal(DefaultConfig().GuestName, guest.UserNickname)

	_, err = interactions.Ask(suite.ctx, booth.ID, suite.visitor, &CreateQuestionRequest{Content: "   "})
	suite.True(apperrors.Is(err, apperrors.ErrEmptyMessage))
	_, err = interactions.Ask(suite.ctx, booth.ID, suite.visitor, &CreateQuestionRequest{Content: strings.Repeat("가", DefaultConfig().MaxMessageLength+1)})
	suite.True(apperrors.IsValidation(err))

	page, err := interactions.Questions(suite.ctx, booth.ID, nil, 0, 0)
	suite.Require().NoError(err)
	suite.EqualValues(2, page.TotalElements)
	suite.Equal(defaultQuestionPageSize, page.Size)
	suite.Equal(0, page.Number)
	suite.Require().Len(page.Content, 2)
	suite.Equal("데모 시간?", page.Content[0].Content)
	suite.Equal(DefaultConfig().GuestName, page.Content[0].UserNickname)
	suite.Equal("방문자", page.Content[1].UserNickname)
}

// 游客写入受展位开关控制，未通过的展位只有有权限的用户可以互动
func (suite *InteractionServiceTestSuite) TestGuestAndAccessRules() {
	closed := suite.createBooth(&CreateBoothRequest{Title: "closed"}, true)
	draft := suite.createBooth(&CreateBoothRequest{Title: "draft", AllowGuestQuestions: true, AllowGuestGuestbook: true}, false)
	interactions := suite.services.Interaction

	_, err := interactions.Ask(suite.ctx, closed.ID, nil, &CreateQuestionRequest{Content: "q"})
	suite.True(apperrors.Is(err, apperrors.ErrPermissionDenied))
	_, err = interactions.Sign(suite.ctx, closed.ID, nil, &CreateGuestbookRequest{Message: "m"})
	suite.True(apperrors.Is(err, apperrors.ErrPermissionDenied))

	_, err = interactions.Ask(suite.ctx, draft.ID, nil, &CreateQuestionRequest{Content: "q"})
	suite.True(apperrors.Is(err, apperrors.ErrPermissionDenied))
	_, err = interactions.Questions(suite.ctx, draft.ID, suite.visitor, 0, 10)
	suite.True(apperrors.Is(err, apperrors.ErrPermissionDenied))
	_, err = interactions.Guestbook(suite.ctx, draft.ID, nil, 0, 10)
	suite.True(apperrors.Is(err, apperrors.ErrPermissionDenied))

	_, err = interactions.Ask(suite.ctx, draft.ID, suite.owner, &CreateQuestionRequest{Content: "self check"})
	suite.NoError(err)

	_, err = interactions.Questions(suite.ctx, 999, suite.admin, 0, 10)
	suite.True(apperrors.Is(err, apperrors.ErrBoothNotFound))
}

func (suite *InteractionServiceTestSuite) TestGuestbook() {
	booth := suite.createBooth(&CreateBoothRequest{Title: "guestbook", AllowGuestGuestbook: true}, true)
	interactions := suite.services.Interaction

	for i := 0; i < 3; i++ {
		_, err := interactions.Sign(suite.ctx, booth.ID, suite.visitor, &CreateGuestbookRequest{Message: "멋져요"})
		suite.Require().NoError(err)
	}
	entry, err := interactions.Sign(suite.ctx, booth.ID, nil, &CreateGuestbookRequest{Message: "게스트 방문", GuestSessionID: " g-1 "})
	suite.Require().NoError(err)
	suite.Equal("g-1", entry.GuestSessionID)

	_, err = interactions.Sign(suite.ctx, booth.ID, suite.visitor, &CreateGuestbookRequest{Message: ""})
	suite.True(apperrors.Is(err, apperrors.ErrEmptyMessage))

	page, err := interactions.Guestbook(suite.ctx, booth.ID, nil, 1, 3)
	suite.Require().NoError(err)
	suite.EqualValues(4, page.TotalElements)
	suite.Equal(2, page.TotalPages)
	suite.Equal(1, page.Number)
	suite.Require().Len(page.Content, 1)
	suite.Equal("방문자", page.Content[0].UserNickname)

	page, err = interactions.Guestbook(suite.ctx, booth.ID, nil, 0, 0)
	suite.Require().NoError(err)
	suite.Equal(defaultGuestbookPageSize, page.Size)
	suite.Equal("게스트 방문", page.Content[0].Message)
}

func (suite *InteractionServiceTestSuite) TestExhibitions() {
	exhibitions := suite.services.Exhibition
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)

	created, err := exhibitions.Create(suite.ctx, &CreateExhibitionRequest{
		Slug:    " Spring-Expo ",
		Title:   "봄 전시회",
		Status:  models.ExhibitionPublished,
		StartAt: &start,
		EndAt:   &end,
	})
	suite.Require().NoError(err)
	suite.Equal("spring-expo", created.Slug)
	suite.Equal(0, created.HallCount)

	_, err = exhibitions.Create(suite.ctx, &CreateExhibitionRequest{Slug: "spring-expo", Title: "dup"})
	suite.True(apperrors.Is(err, apperrors.ErrAlreadyExists))
	_, err = exhibitions.Create(suite.ctx, &CreateExhibitionRequest{Slug: "backwards", Title: "x", StartAt: &end, EndAt: &start})
	suite.True(apperrors.IsValidation(err))

	draft, err := exhibitions.Create(suite.ctx, &CreateExhibitionRequest{Slug: "later", Title: "나중"})
	suite.Require().NoError(err)
	suite.Equal(models.ExhibitionDraft, draft.Status)

	// 展厅挂到展会下，已通过的展位计入展会
	hall, err := suite.services.Booth.CreateHall(suite.ctx, &CreateHallRequest{Name: "봄홀", ExhibitionID: created.ID})
	suite.Require().NoError(err)
	_, err = suite.services.Booth.CreateHall(suite.ctx, &CreateHallRequest{Name: "없는 전시", ExhibitionID: 999})
	suite.True(apperrors.Is(err, apperrors.ErrExhibitionNotFound))

	booth, err := suite.services.Booth.Create(suite.ctx, suite.owner, &CreateBoothRequest{HallID: hall.ID, Title: "봄 부스"})
	suite.Require().NoError(err)
	_, err = suite.services.Booth.UpdateStatus(suite.ctx, suite.admin, booth.ID, &UpdateBoothStatusRequest{Status: models.BoothApproved})
	suite.Require().NoError(err)

	got, err := exhibitions.Get(suite.ctx, created.ID)
	suite.Require().NoError(err)
	suite.Equal(1, got.HallCount)
	suite.EqualValues(1, got.BoothCount)

	halls, err := exhibitions.Halls(suite.ctx, created.ID)
	suite.Require().NoError(err)
	suite.Require().Len(halls, 1)
	suite.Equal("봄홀", halls[0].Name)

	_, err = exhibitions.Get(suite.ctx, 404)
	suite.True(apperrors.Is(err, apperrors.ErrExhibitionNotFound))
	_, err = exhibitions.Halls(suite.ctx, 404)
	suite.True(apperrors.Is(err, apperrors.ErrExhibitionNotFound))

	page, err := exhibitions.List(suite.ctx, models.ExhibitionPublished, 0, 0)
	suite.Require().NoError(err)
	suite.EqualValues(1, page.TotalElements)
	suite.Equal("spring-expo", page.Content[0].Slug)

	page, err = exhibitions.List(suite.ctx, "", 0, 10)
	suite.Require().NoError(err)
	suite.Len(page.Content, 2)

	_, err = exhibitions.List(suite.ctx, "OPEN", 0, 10)
	suite.True(apperrors.IsValidation(err))
}

func TestInteractionServiceSuite(t *testing.T) {
	suite.Run(t, new(InteractionServiceTestSuite))
}
