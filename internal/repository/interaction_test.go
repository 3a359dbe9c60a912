package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/gorm"
)

// InteractionRepositoryTestSuite 展会、提问和留言簿仓储测试
type InteractionRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	manager *Manager
	ctx     context.Context
	user    *models.User
	booth   *models.Booth
}

func (suite *InteractionRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.manager = NewManager(suite.db)
	suite.ctx = context.Background()

	suite.user = &models.User{Email: "kim@example.com", Nickname: "김", Role: models.RoleExhibitor}
	suite.Require().NoError(suite.manager.User().Create(suite.ctx, suite.user))
	hall := &models.Hall{Name: "A홀"}
	suite.Require().NoError(suite.manager.Hall().Create(suite.ctx, hall))
	suite.booth = &models.Booth{HallID: hall.ID, OwnerUserID: suite.user.ID, Title: "부스"}
	suite.Require().NoError(suite.manager.Booth().Create(suite.ctx, suite.booth))
}

func (suite *InteractionRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *InteractionRepositoryTestSuite) TestQuestions() {
	repo := suite.manager.Question()
	uid := suite.user.ID

	suite.Require().NoError(repo.Create(suite.ctx, &models.Question{BoothID: suite.booth.ID, UserID: &uid, Content: "첫 질문", Status: models.ContentVisible}))
	suite.Require().NoError(repo.Create(suite.ctx, &models.Question{BoothID: suite.booth.ID, GuestSessionID: "g-1", Content: "게스트 질문", Status: models.ContentVisible}))
	suite.Require().NoError(repo.Create(suite.ctx, &models.Question{BoothID: suite.booth.ID, Content: "숨김", Status: models.ContentHidden}))

	page := PageFromZero(0, 10)
	rows, err := repo.ListVisible(suite.ctx, suite.booth.ID, page)
	suite.Require().NoError(err)
	suite.EqualValues(2, page.Total)
	suite.Require().Len(rows, 2)

	// 最新在前，游客记录没有昵称
	suite.Equal("게스트 질문", rows[0].Content)
	suite.Nil(rows[0].UserID)
	suite.Equal("g-1", rows[0].GuestSessionID)
	suite.Empty(rows[0].UserNickname)
	suite.Equal("첫 질문", rows[1].Content)
	suite.Equal("김", rows[1].UserNickname)
	suite.False(rows[1].CreatedAt.IsZero())

	page = PageFromZero(1, 1)
	rows, err = repo.ListVisible(suite.ctx, suite.booth.ID, page)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 1)
	suite.Equal("첫 질문", rows[0].Content)
	suite.Equal(2, page.TotalPages())
}

func (suite *InteractionRepositoryTestSuite) TestGuestbook() {
	repo := suite.manager.Guestbook()
	uid := suite.user.ID

	entry := &models.GuestbookEntry{BoothID: suite.booth.ID, UserID: &uid, Message: "다녀갑니다", Status: models.ContentVisible}
	suite.Require().NoError(repo.Create(suite.ctx, entry))
	suite.NotZero(entry.ID)

	page := PageFromZero(0, 0)
	rows, err := repo.ListVisible(suite.ctx, suite.booth.ID, page)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 1)
	suite.Equal("다녀갑니다", rows[0].Message)
	suite.Equal("김", rows[0].UserNickname)

	rows, err = repo.ListVisible(suite.ctx, suite.booth.ID+1, PageFromZero(0, 10))
	suite.Require().NoError(err)
	suite.Empty(rows)
}

func (suite *InteractionRepositoryTestSuite) TestExhibitions() {
	repo := suite.manager.Exhibition()

	published := &models.Exhibition{Slug: "expo-2024", Title: "Expo 2024", Status: models.ExhibitionPublished}
	suite.Require().NoError(repo.Create(suite.ctx, published))
	suite.Require().NoError(repo.Create(suite.ctx, &models.Exhibition{Slug: "draft", Title: "Draft"}))

	taken, err := repo.ExistsBySlug(suite.ctx, "expo-2024")
	suite.Require().NoError(err)
	suite.True(taken)

	found, err := repo.FindByID(suite.ctx, published.ID)
	suite.Require().NoError(err)
	suite.Equal("Expo 2024", found.Title)

	_, err = repo.FindByID(suite.ctx, 404)
	suite.True(apperrors.Is(err, apperrors.ErrExhibitionNotFound))

	page := PageFromZero(0, 10)
	list, err := repo.List(suite.ctx, models.ExhibitionPublished, page)
	suite.Require().NoError(err)
	suite.EqualValues(1, page.Total)
	suite.Require().Len(list, 1)

	all := PageFromZero(0, 10)
	list, err = repo.List(suite.ctx, "", all)
	suite.Require().NoError(err)
	suite.Len(list, 2)
	suite.Equal(models.ExhibitionDraft, list[0].Status)

	// 展会下已通过的展位计数
	hall := &models.Hall{Name: "전시홀", ExhibitionID: published.ID}
	suite.Require().NoError(suite.manager.Hall().Create(suite.ctx, hall))
	booth := &models.Booth{HallID: hall.ID, OwnerUserID: suite.user.ID, Title: "승인 부스"}
	suite.Require().NoError(suite.manager.Booth().Create(suite.ctx, booth))

	count, err := repo.CountApprovedBooths(suite.ctx, published.ID)
	suite.Require().NoError(err)
	suite.EqualValues(0, count)

	suite.Require().NoError(suite.manager.Booth().UpdateStatus(suite.ctx, booth.ID, models.BoothApproved, 1, ""))
	count, err = repo.CountApprovedBooths(suite.ctx, published.ID)
	suite.Require().NoError(err)
	suite.EqualValues(1, count)

	halls, err := suite.manager.Hall().ListByExhibition(suite.ctx, published.ID)
	suite.Require().NoError(err)
	suite.Len(halls, 1)
}

func TestInteractionRepositorySuite(t *testing.T) {
	suite.Run(t, new(InteractionRepositoryTestSuite))
}
