package service

import (
	"context"
	"time"

	"github.com/wfunc/expo-garden/internal/models"
)

// Principal 当前请求的已认证用户
type Principal struct {
	UserID   uint
	Email    string
	Nickname string
	Role     models.Role
}

// IsAdmin 是否为管理员
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// AuthService 认证服务接口
type AuthService interface {
	// Signup 注册并直接签发令牌
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)

	// Login 邮箱密码登录
	Login(ctx context.Context, req *LoginRequest, clientIP string) (*AuthResponse, error)

	// Me 当前用户资料
	Me(ctx context.Context, userID uint) (*UserProfile, error)

	// Authenticate 校验访问令牌
	Authenticate(token string) (*Principal, error)
}

// BoothService 展厅与展位服务接口
type BoothService interface {
	CreateHall(ctx context.Context, req *CreateHallRequest) (*models.Hall, error)
	ListHalls(ctx context.Context) ([]*models.Hall, error)
	GetHall(ctx context.Context, hallID uint) (*models.Hall, error)

	Create(ctx context.Context, owner *Principal, req *CreateBoothRequest) (*models.Booth, error)
	Get(ctx context.Context, boothID uint, viewer *Principal) (*models.Booth, error)
	ListByHall(ctx context.Context, hallID uint, viewer *Principal) ([]*models.Booth, error)
	UpdateStatus(ctx context.Context, actor *Principal, boothID uint, req *UpdateBoothStatusRequest) (*models.Booth, error)

	// CanAccessBooth 已通过的展位公开，其余仅管理员、所有者和成员可见
	CanAccessBooth(ctx context.Context, boothID uint, viewer *Principal) (bool, error)

	// Members 展位成员列表，需要展位访问权限
	Members(ctx context.Context, boothID uint, viewer *Principal) ([]*BoothMemberDTO, error)

	// AddMember 成员管理仅限管理员、展位所有者和 OWNER 角色成员
	AddMember(ctx context.Context, actor *Principal, boothID uint, req *AddMemberRequest) (*BoothMemberDTO, error)
	UpdateMemberRole(ctx context.Context, actor *Principal, boothID, userID uint, req *UpdateMemberRoleRequest) (*BoothMemberDTO, error)
	RemoveMember(ctx context.Context, actor *Principal, boothID, userID uint) error

	// MyMemberships 当前用户加入的展位
	MyMemberships(ctx context.Context, user *Principal) ([]*BoothMemberDTO, error)

	OwnerLookup
}

// ExhibitionService 展会服务接口
type ExhibitionService interface {
	Create(ctx context.Context, req *CreateExhibitionRequest) (*ExhibitionDTO, error)
	List(ctx context.Context, status models.ExhibitionStatus, page, size int) (*Page[*ExhibitionDTO], error)
	Get(ctx context.Context, id uint) (*ExhibitionDTO, error)
	Halls(ctx context.Context, id uint) ([]*models.Hall, error)
}

// InteractionService 展位提问与留言簿
//
// 读写都要求展位访问权限；游客能否写入由展位的开关决定。
type InteractionService interface {
	Questions(ctx context.Context, boothID uint, viewer *Principal, page, size int) (*Page[*QuestionDTO], error)
	Ask(ctx context.Context, boothID uint, viewer *Principal, req *CreateQuestionRequest) (*QuestionDTO, error)
	Guestbook(ctx context.Context, boothID uint, viewer *Principal, page, size int) (*Page[*GuestbookDTO], error)
	Sign(ctx context.Context, boothID uint, viewer *Principal, req *CreateGuestbookRequest) (*GuestbookDTO, error)
}

// OwnerLookup 根据展位查所有者，展位不存在或已删除时返回 ErrBoothNotFound
type OwnerLookup interface {
	OwnerOf(ctx context.Context, boothID int64) (int64, error)
}

// ChatService 聊天服务接口
type ChatService interface {
	// Send 保存展位聊天并通知展位所有者，展位主题的广播由调用方负责
	Send(ctx context.Context, boothID int64, msg InboundChat) (*ChatMessageDTO, error)

	// Join 生成入场提示消息，不落库
	Join(ctx context.Context, boothID int64, msg InboundChat) *ChatMessageDTO

	// SendHall 展厅聊天，不落库
	SendHall(ctx context.Context, hallID int64, msg InboundHallChat) (*HallChatMessage, error)

	// Messages 分页查询展位聊天记录（最新在前）
	Messages(ctx context.Context, boothID int64, page, size int) (*ChatPage, error)
}

// SignupRequest 注册请求
type SignupRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Nickname string      `json:"nickname" binding:"omitempty,max=100"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=VISITOR EXHIBITOR"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserProfile 用户资料
type UserProfile struct {
	ID          uint        `json:"id"`
	Email       string      `json:"email"`
	Nickname    string      `json:"nickname"`
	Role        models.Role `json:"role"`
	LastLoginAt *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User        *UserProfile `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	TokenType   string       `json:"tokenType"`
}

// CreateHallRequest 创建展厅请求
type CreateHallRequest struct {
	ExhibitionID uint              `json:"exhibitionId"`
	Name         string            `json:"name" binding:"required,max=100"`
	LayoutType   models.LayoutType `json:"layoutType" binding:"omitempty,oneof=GRID FREE"`
	Width        int               `json:"width" binding:"omitempty,min=1"`
	Height       int               `json:"height" binding:"omitempty,min=1"`
}

// CreateBoothRequest 创建展位请求
type CreateBoothRequest struct {
	HallID              uint   `json:"hallId" binding:"required"`
	Title               string `json:"title" binding:"required,max=200"`
	Summary             string `json:"summary" binding:"omitempty,max=500"`
	Description         string `json:"description"`
	Category            string `json:"category" binding:"omitempty,max=50"`
	ThumbnailURL        string `json:"thumbnailUrl" binding:"omitempty,max=500"`
	AllowGuestQuestions bool   `json:"allowGuestQuestions"`
	AllowGuestGuestbook bool   `json:"allowGuestGuestbook"`
}

// AddMemberRequest 添加展位成员请求
type AddMemberRequest struct {
	UserID uint              `json:"userId" binding:"required"`
	Role   models.MemberRole `json:"role" binding:"required,oneof=OWNER EDITOR VIEWER"`
}

// UpdateMemberRoleRequest 修改成员角色请求
type UpdateMemberRoleRequest struct {
	Role models.MemberRole `json:"role" binding:"required,oneof=OWNER EDITOR VIEWER"`
}

// BoothMemberDTO 展位成员
type BoothMemberDTO struct {
	ID           uint              `json:"id"`
	BoothID      uint              `json:"boothId"`
	BoothTitle   string            `json:"boothTitle"`
	UserID       uint              `json:"userId"`
	UserNickname string            `json:"userNickname"`
	UserEmail    string            `json:"userEmail"`
	Role         models.MemberRole `json:"role"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// CreateExhibitionRequest 创建展会请求
type CreateExhibitionRequest struct {
	Slug        string                  `json:"slug" binding:"required,max=100"`
	Title       string                  `json:"title" binding:"required,max=255"`
	Description string                  `json:"description"`
	Status      models.ExhibitionStatus `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	StartAt     *time.Time              `json:"startAt"`
	EndAt       *time.Time              `json:"endAt"`
}

// ExhibitionDTO 展会及其展厅、已通过展位数量
type ExhibitionDTO struct {
	ID          uint                    `json:"id"`
	Slug        string                  `json:"slug"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Status      models.ExhibitionStatus `json:"status"`
	StartAt     *time.Time              `json:"startAt,omitempty"`
	EndAt       *time.Time              `json:"endAt,omitempty"`
	HallCount   int                     `json:"hallCount"`
	BoothCount  int64                   `json:"boothCount"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// CreateQuestionRequest 提问请求
type CreateQuestionRequest struct {
	Content        string `json:"content" binding:"required"`
	GuestSessionID string `json:"guestSessionId" binding:"omitempty,max=255"`
}

// QuestionDTO 展位提问
type QuestionDTO struct {
	ID             uint                 `json:"id"`
	BoothID        uint                 `json:"boothId"`
	UserID         *uint                `json:"userId,omitempty"`
	UserNickname   string               `json:"userNickname"`
	GuestSessionID string               `json:"guestSessionId,omitempty"`
	Content        string               `json:"content"`
	Status         models.ContentStatus `json:"status"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// CreateGuestbookRequest 留言请求
type CreateGuestbookRequest struct {
	Message        string `json:"message" binding:"required"`
	GuestSessionID string `json:"guestSessionId" binding:"omitempty,max=255"`
}

// GuestbookDTO 展位留言
type GuestbookDTO struct {
	ID             uint                 `json:"id"`
	BoothID        uint                 `json:"boothId"`
	UserID         *uint                `json:"userId,omitempty"`
	UserNickname   string               `json:"userNickname"`
	GuestSessionID string               `json:"guestSessionId,omitempty"`
	Message        string               `json:"message"`
	Status         models.ContentStatus `json:"status"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// Page 0起始的分页结果
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
}

// UpdateBoothStatusRequest 审核状态变更请求
type UpdateBoothStatusRequest struct {
	Status models.BoothStatus `json:"status" binding:"required"`
	Reason string             `json:"reason"`
}

// InboundChat 客户端发来的展位聊天帧
type InboundChat struct {
	UserID   *int64 `json:"userId,omitempty"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ChatMessageDTO 展位聊天广播消息
type ChatMessageDTO struct {
	ID        string                 `json:"id"`
	BoothID   int64                  `json:"boothId"`
	UserID    *int64                 `json:"userId,omitempty"`
	Username  string                 `json:"username"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Type      models.ChatMessageType `json:"type"`
}

// ChatNotification 发给展位所有者的新消息提醒
type ChatNotification struct {
	BoothID        int64     `json:"boothId"`
	MessageID      string    `json:"messageId"`
	Username       string    `json:"username"`
	MessagePreview string    `json:"messagePreview"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatPage 聊天记录分页结果
type ChatPage struct {
	Content       []*ChatMessageDTO `json:"content"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
	Size          int               `json:"size"`
	Number        int               `json:"number"`
}

// InboundHallChat 客户端发来的展厅聊天帧
type InboundHallChat struct {
	UserID   *int64 `json:"userId,omitempty"`
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

// HallChatMessage 展厅聊天广播消息
type HallChatMessage struct {
	HallID    int64                  `json:"hallId"`
	UserID    *int64                 `json:"userId,omitempty"`
	Nickname  string                 `json:"nickname"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Type      models.ChatMessageType `json:"type"`
}
