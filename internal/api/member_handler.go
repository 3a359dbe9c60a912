package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/expo-garden/internal/middleware"
	"github.com/wfunc/expo-garden/internal/service"
)

// MemberHandler 展位成员处理器
type MemberHandler struct {
	booths service.BoothService
}

// NewMemberHandler 创建成员处理器
func NewMemberHandler(booths service.BoothService) *MemberHandler {
	return &MemberHandler{booths: booths}
}

// List 展位成员列表
// @Summary 展位成员列表
// @Tags Member
// @Produce json
// @Param id path int true "展位ID"
// @Success 200 {array} service.BoothMemberDTO
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/booths/{id}/members [get]
func (h *MemberHandler) List(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := h.booths.Members(c.Request.Context(), boothID, middleware.CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, members)
}

// Add 添加展位成员
// @Summary 添加展位成员
// @Tags Member
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "展位ID"
// @Param request body service.AddMemberRequest true "成员信息"
// @Success 201 {object} service.BoothMemberDTO
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/booths/{id}/members [post]
func (h *MemberHandler) Add(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	member, err := h.booths.AddMember(c.Request.Context(), middleware.CurrentPrincipal(c), boothID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, member)
}

// UpdateRole 修改成员角色
// @Summary 修改成员角色
// @Tags Member
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "展位ID"
// @Param userId path int true "用户ID"
// @Param request body service.UpdateMemberRoleRequest true "新角色"
// @Success 200 {object} service.BoothMemberDTO
// @Router /api/v1/booths/{id}/members/{userId} [put]
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req service.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	member, err := h.booths.UpdateMemberRole(c.Request.Context(), middleware.CurrentPrincipal(c), boothID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, member)
}

// Remove 移除成员
// @Summary 移除成员
// @Tags Member
// @Security Bearer
// @Param id path int true "展位ID"
// @Param userId path int true "用户ID"
// @Success 200 {object} SuccessResponse
// @Router /api/v1/booths/{id}/members/{userId} [delete]
func (h *MemberHandler) Remove(c *gin.Context) {
	boothID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.booths.RemoveMember(c.Request.Context(), middleware.CurrentPrincipal(c), boothID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "成员已移除"})
}

// Mine 当前用户的展位成员身份
// @Summary 我的展位
// @Tags Member
// @Security Bearer
// @Success 200 {array} service.BoothMemberDTO
// @Router /api/v1/my/memberships [get]
func (h *MemberHandler) Mine(c *gin.Context) {
	members, err := h.booths.MyMemberships(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, members)
}
