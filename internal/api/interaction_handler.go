package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/expo-garden/internal/middleware"
	"github.com/wfunc/expo-garden/internal/service"
)

// InteractionHandler 展位提问与留言簿处理器
type InteractionHandler struct {
	interactions service.InteractionService
}

// NewInteractionHandler 创建互动处理器
func NewInteractionHandler(interactions service.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactions: interactions}
}

// Questions 展位提问列表，page 从0开始
// @Summary 展位提问列表
// @Tags Interaction
// @Produce json
// @Param id path int true "展位ID"
// @Param page query int false "页码（从0开始）"
// @Param size query int false "每页条数，默认20"
// @Success 200 {object} service.Page[service.QuestionDTO]
// @Router /api/v1/booths/{id}/questions [get]
func (h *InteractionHandler) Questions(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}

	result, err := h.interactions.Questions(c.Request.Context(), boothID, middleware.CurrentPrincipal(c), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// Ask 向展位提问
// @Summary 提问
// @Tags Interaction
// @Accept json
// @Produce json
// @Param id path int true "展位ID"
// @Param request body service.CreateQuestionRequest true "提问内容"
// @Success 201 {object} service.QuestionDTO
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/booths/{id}/questions [post]
func (h *InteractionHandler) Ask(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	question, err := h.interactions.Ask(c.Request.Context(), boothID, middleware.CurrentPrincipal(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, question)
}

// Guestbook 展位留言簿，page 从0开始
// @Summary 展位留言簿
// @Tags Interaction
// @Produce json
// @Param id path int true "展位ID"
// @Param page query int false "页码（从0开始）"
// @Param size query int false "每页条数，默认50"
// @Success 200 {object} service.Page[service.GuestbookDTO]
// @Router /api/v1/booths/{id}/guestbook [get]
func (h *InteractionHandler) Guestbook(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}

	result, err := h.interactions.Guestbook(c.Request.Context(), boothID, middleware.CurrentPrincipal(c), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// Sign 签写留言簿
// @Summary 留言
// @Tags Interaction
// @Accept json
// @Produce json
// @Param id path int true "展位ID"
// @Param request body service.CreateGuestbookRequest true "留言内容"
// @Success 201 {object} service.GuestbookDTO
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/booths/{id}/guestbook [post]
func (h *InteractionHandler) Sign(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateGuestbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	entry, err := h.interactions.Sign(c.Request.Context(), boothID, middleware.CurrentPrincipal(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, entry)
}
