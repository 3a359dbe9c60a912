package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/gorm"
)

// BoothRepositoryTestSuite 展厅/展位仓储测试套件
type BoothRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	manager *Manager
	hall    *models.Hall
	owner   *models.User
}

func (suite *BoothRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.manager = NewManager(suite.db)

	ctx := context.Background()
	suite.owner = &models.User{Email: "owner@example.com", Role: models.RoleExhibitor}
	require.NoError(suite.T(), suite.manager.User().Create(ctx, suite.owner))
	suite.hall = &models.Hall{Name: "A홀"}
	require.NoError(suite.T(), suite.manager.Hall().Create(ctx, suite.hall))
}

func (suite *BoothRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *BoothRepositoryTestSuite) newBooth(title string) *models.Booth {
	booth := &models.Booth{HallID: suite.hall.ID, OwnerUserID: suite.owner.ID, Title: title}
	require.NoError(suite.T(), suite.manager.Booth().Create(context.Background(), booth))
	return booth
}

func (suite *BoothRepositoryTestSuite) TestHallRepository() {
	ctx := context.Background()

	found, err := suite.manager.Hall().FindByID(ctx, suite.hall.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "A홀", found.Name)

	exists, err := suite.manager.Hall().Exists(ctx, suite.hall.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), exists)

	halls, err := suite.manager.Hall().List(ctx)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), halls, 1)

	_, err = suite.manager.Hall().FindByID(ctx, 404)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrHallNotFound))
}

// TestBoothRepository_CreateAndOwner 测试创建展位与所有者查询
func (suite *BoothRepositoryTestSuite) TestBoothRepository_CreateAndOwner() {
	ctx := context.Background()
	booth := suite.newBooth("로봇 전시")

	assert.Equal(suite.T(), models.BoothDraft, booth.Status)

	ownerID, err := suite.manager.Booth().FindOwnerID(ctx, booth.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.owner.ID, ownerID)

	// 所有者自动成为成员
	member, err := suite.manager.Booth().IsMember(ctx, booth.ID, suite.owner.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), member)

	member, err = suite.manager.Booth().IsMember(ctx, booth.ID, suite.owner.ID+1)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), member)
}

// TestBoothRepository_SoftDelete 已删除展位视为不存在
func (suite *BoothRepositoryTestSuite) TestBoothRepository_SoftDelete() {
	ctx := context.Background()
	booth := suite.newBooth("삭제될 부스")

	assert.NoError(suite.T(), suite.manager.Booth().Delete(ctx, booth.ID))

	_, err := suite.manager.Booth().FindByID(ctx, booth.ID)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrBoothNotFound))

	_, err = suite.manager.Booth().FindOwnerID(ctx, booth.ID)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrBoothNotFound))

	err = suite.manager.Booth().UpdateStatus(ctx, booth.ID, models.BoothApproved, 1, "")
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrBoothNotFound))
}

func (suite *BoothRepositoryTestSuite) TestBoothRepository_StatusAndList() {
	ctx := context.Background()
	approved := suite.newBooth("승인")
	suite.newBooth("초안")

	assert.NoError(suite.T(), suite.manager.Booth().UpdateStatus(ctx, approved.ID, models.BoothApproved, 7, ""))

	found, err := suite.manager.Booth().FindByID(ctx, approved.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), found.IsPublic())
	assert.NotNil(suite.T(), found.ApprovedAt)
	if assert.NotNil(suite.T(), found.ApprovedBy) {
		assert.Equal(suite.T(), uint(7), *found.ApprovedBy)
	}

	all, err := suite.manager.Booth().ListByHall(ctx, suite.hall.ID, "")
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 2)

	public, err := suite.manager.Booth().ListByHall(ctx, suite.hall.ID, models.BoothApproved)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), public, 1)
	assert.Equal(suite.T(), approved.ID, public[0].ID)
}

// TestChatMessageRepository 聊天记录按时间倒序分页
func (suite *BoothRepositoryTestSuite) TestChatMessageRepository() {
	ctx := context.Background()
	booth := suite.newBooth("채팅 부스")
	repo := suite.manager.ChatMessage()

	userID := suite.owner.ID
	for _, body := range []string{"첫번째", "두번째", "세번째"} {
		msg := &models.ChatMessage{BoothID: booth.ID, UserID: &userID, Username: "주인", Message: body, Type: models.ChatTypeChat}
		require.NoError(suite.T(), repo.Create(ctx, msg))
		assert.NotZero(suite.T(), msg.ID)
		assert.False(suite.T(), msg.CreatedAt.IsZero())
	}
	// 游客消息 user_id 为空
	require.NoError(suite.T(), repo.Create(ctx, &models.ChatMessage{BoothID: booth.ID, Username: "게스트", Message: "안녕", Type: models.ChatTypeChat}))

	page := NewPagination(1, 2)
	messages, err := repo.ListByBooth(ctx, booth.ID, page)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), page.Total)
	require.Len(suite.T(), messages, 2)
	assert.Equal(suite.T(), "안녕", messages[0].Message)
	assert.Nil(suite.T(), messages[0].UserID)
	assert.Equal(suite.T(), "세번째", messages[1].Message)

	page2 := NewPagination(2, 2)
	messages, err = repo.ListByBooth(ctx, booth.ID, page2)
	assert.NoError(suite.T(), err)
	require.Len(suite.T(), messages, 2)
	assert.Equal(suite.T(), "첫번째", messages[1].Message)

	empty, err := repo.ListByBooth(ctx, booth.ID+100, NewPagination(1, 10))
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), empty)
}

// TestBoothRepository_Members 成员增删改查
func (suite *BoothRepositoryTestSuite) TestBoothRepository_Members() {
	ctx := context.Background()
	booth := suite.newBooth("멤버 부스")
	editor := &models.User{Email: "editor@example.com", Nickname: "편집자", Role: models.RoleVisitor}
	require.NoError(suite.T(), suite.manager.User().Create(ctx, editor))

	repo := suite.manager.Booth()
	require.NoError(suite.T(), repo.AddMember(ctx, &models.BoothMember{BoothID: booth.ID, UserID: editor.ID, Role: models.MemberEditor}))
	// 同一用户重复加入违反唯一索引
	assert.Error(suite.T(), repo.AddMember(ctx, &models.BoothMember{BoothID: booth.ID, UserID: editor.ID, Role: models.MemberViewer}))

	rows, err := repo.ListMembers(ctx, booth.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rows, 2)
	assert.Equal(suite.T(), suite.owner.ID, rows[0].UserID)
	assert.Equal(suite.T(), models.MemberOwner, rows[0].Role)
	assert.Equal(suite.T(), "편집자", rows[1].Nickname)
	assert.Equal(suite.T(), "editor@example.com", rows[1].Email)
	assert.Equal(suite.T(), "멤버 부스", rows[1].BoothTitle)
	assert.False(suite.T(), rows[1].CreatedAt.IsZero())

	require.NoError(suite.T(), repo.UpdateMemberRole(ctx, booth.ID, editor.ID, models.MemberViewer))
	member, err := repo.FindMember(ctx, booth.ID, editor.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.MemberViewer, member.Role)

	memberships, err := repo.ListMemberships(ctx, editor.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), memberships, 1)
	assert.Equal(suite.T(), booth.ID, memberships[0].BoothID)

	require.NoError(suite.T(), repo.RemoveMember(ctx, booth.ID, editor.ID))
	_, err = repo.FindMember(ctx, booth.ID, editor.ID)
	assert.True(suite.T(), apperrors.IsNotFound(err))
	assert.True(suite.T(), apperrors.IsNotFound(repo.RemoveMember(ctx, booth.ID, editor.ID)))
	assert.True(suite.T(), apperrors.IsNotFound(repo.UpdateMemberRole(ctx, booth.ID, editor.ID, models.MemberEditor)))

	// 已删除展位不出现在成员身份中
	require.NoError(suite.T(), repo.Delete(ctx, booth.ID))
	memberships, err = repo.ListMemberships(ctx, suite.owner.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), memberships)
}

func (suite *BoothRepositoryTestSuite) TestManager_WithTransaction() {
	ctx := context.Background()

	err := suite.manager.WithTransaction(ctx, func(txm *Manager) error {
		if err := txm.Hall().Create(ctx, &models.Hall{Name: "롤백"}); err != nil {
			return err
		}
		return apperrors.New(apperrors.ErrInvalidParam)
	})
	assert.Error(suite.T(), err)

	halls, err := suite.manager.Hall().List(ctx)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), halls, 1)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPageSize, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 1000)
	assert.Equal(t, maxPageSize, p.PageSize)
	assert.Equal(t, 2*maxPageSize, p.Offset())

	p = PageFromZero(-1, 10)
	assert.Equal(t, 0, p.Number())
	assert.Equal(t, 0, p.Offset())

	p = PageFromZero(2, 10)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 0, p.TotalPages())
	p.Total = 21
	assert.Equal(t, 3, p.TotalPages())
}

func TestBoothRepositorySuite(t *testing.T) {
	suite.Run(t, new(BoothRepositoryTestSuite))
}
