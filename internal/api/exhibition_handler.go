package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/service"
)

// ExhibitionHandler 展会处理器
type ExhibitionHandler struct {
	exhibitions service.ExhibitionService
}

// NewExhibitionHandler 创建展会处理器
func NewExhibitionHandler(exhibitions service.ExhibitionService) *ExhibitionHandler {
	return &ExhibitionHandler{exhibitions: exhibitions}
}

// List 展会列表
// @Summary 展会列表
// @Tags Exhibition
// @Produce json
// @Param status query string false "状态过滤" Enums(DRAFT, PUBLISHED, ARCHIVED)
// @Param page query int false "页码（从0开始）"
// @Param size query int false "每页条数，默认20"
// @Success 200 {object} service.Page[service.ExhibitionDTO]
// @Router /api/v1/exhibitions [get]
func (h *ExhibitionHandler) List(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}
	status := models.ExhibitionStatus(c.Query("status"))

	result, err := h.exhibitions.List(c.Request.Context(), status, page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// Create 创建展会（管理员）
// @Summary 创建展会
// @Tags Exhibition
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.CreateExhibitionRequest true "展会信息"
// @Success 201 {object} service.ExhibitionDTO
// @Router /api/v1/exhibitions [post]
func (h *ExhibitionHandler) Create(c *gin.Context) {
	var req service.CreateExhibitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	exhibition, err := h.exhibitions.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, exhibition)
}

// Get 展会详情
// @Summary 展会详情
// @Tags Exhibition
// @Produce json
// @Param id path int true "展会ID"
// @Success 200 {object} service.ExhibitionDTO
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/exhibitions/{id} [get]
func (h *ExhibitionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	exhibition, err := h.exhibitions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, exhibition)
}

// Halls 展会下的展厅
// @Summary 展会展厅列表
// @Tags Exhibition
// @Produce json
// @Param id path int true "展会ID"
// @Success 200 {array} models.Hall
// @Router /api/v1/exhibitions/{id}/halls [get]
func (h *ExhibitionHandler) Halls(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	halls, err := h.exhibitions.Halls(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, halls)
}
