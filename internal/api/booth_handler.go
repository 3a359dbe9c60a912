package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/middleware"
	"github.com/wfunc/expo-garden/internal/service"
)

// BoothHandler 展厅与展位处理器
type BoothHandler struct {
	booths service.BoothService
	chat   service.ChatService
}

// NewBoothHandler 创建展位处理器
func NewBoothHandler(booths service.BoothService, chat service.ChatService) *BoothHandler {
	return &BoothHandler{booths: booths, chat: chat}
}

// ListHalls 展厅列表
// @Summary 展厅列表
// @Tags Hall
// @Produce json
// @Success 200 {array} models.Hall
// @Router /api/v1/halls [get]
func (h *BoothHandler) ListHalls(c *gin.Context) {
	halls, err := h.booths.ListHalls(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, halls)
}

// CreateHall 创建展厅（管理员）
// @Summary 创建展厅
// @Tags Hall
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.CreateHallRequest true "展厅信息"
// @Success 201 {object} models.Hall
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/halls [post]
func (h *BoothHandler) CreateHall(c *gin.Context) {
	var req service.CreateHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	hall, err := h.booths.CreateHall(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, hall)
}

// GetHall 展厅详情
// @Summary 展厅详情
// @Tags Hall
// @Produce json
// @Param id path int true "展厅ID"
// @Success 200 {object} models.Hall
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/halls/{id} [get]
func (h *BoothHandler) GetHall(c *gin.Context) {
	hallID, ok := pathID(c, "id")
	if !ok {
		return
	}

	hall, err := h.booths.GetHall(c.Request.Context(), hallID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, hall)
}

// ListHallBooths 展厅内可见的展位
// @Summary 展厅展位列表
// @Description 游客只能看到已审核通过的展位，所有者额外可见自己的展位
// @Tags Hall
// @Produce json
// @Param id path int true "展厅ID"
// @Success 200 {array} models.Booth
// @Router /api/v1/halls/{id}/booths [get]
func (h *BoothHandler) ListHallBooths(c *gin.Context) {
	hallID, ok := pathID(c, "id")
	if !ok {
		return
	}

	booths, err := h.booths.ListByHall(c.Request.Context(), hallID, middleware.CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, booths)
}

// CreateBooth 创建展位，当前用户成为所有者
// @Summary 创建展位
// @Tags Booth
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.CreateBoothRequest true "展位信息"
// @Success 201 {object} models.Booth
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/booths [post]
func (h *BoothHandler) CreateBooth(c *gin.Context) {
	var req service.CreateBoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booth, err := h.booths.Create(c.Request.Context(), middleware.CurrentPrincipal(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, booth)
}

// GetBooth 展位详情
// @Summary 展位详情
// @Tags Booth
// @Produce json
// @Param id path int true "展位ID"
// @Success 200 {object} models.Booth
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/booths/{id} [get]
func (h *BoothHandler) GetBooth(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}

	booth, err := h.booths.Get(c.Request.Context(), boothID, middleware.CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, booth)
}

// UpdateBoothStatus 变更展位审核状态
// @Summary 变更展位状态
// @Description 管理员可设置任意状态，所有者只能提交或归档
// @Tags Booth
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "展位ID"
// @Param request body service.UpdateBoothStatusRequest true "目标状态"
// @Success 200 {object} models.Booth
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/booths/{id}/status [put]
func (h *BoothHandler) UpdateBoothStatus(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateBoothStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booth, err := h.booths.UpdateStatus(c.Request.Context(), middleware.CurrentPrincipal(c), boothID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, booth)
}

// ChatMessages 展位聊天记录，page 从0开始
// @Summary 展位聊天记录
// @Tags Booth
// @Produce json
// @Param id path int true "展位ID"
// @Param page query int false "页码（从0开始）"
// @Param size query int false "每页条数"
// @Success 200 {object} service.ChatPage
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/booths/{id}/chat/messages [get]
func (h *BoothHandler) ChatMessages(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	allowed, err := h.booths.CanAccessBooth(ctx, boothID, middleware.CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !allowed {
		respondError(c, apperrors.Newf(apperrors.ErrPermissionDenied, "booth_id=%d", boothID))
		return
	}

	result, err := h.chat.Messages(ctx, int64(boothID), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}
