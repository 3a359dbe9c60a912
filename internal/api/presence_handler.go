package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/expo-garden/internal/presence"
)

// PresenceSnapshot 展厅在线快照
type PresenceSnapshot struct {
	HallID    int64               `json:"hallId"`
	Count     int                 `json:"count"`
	Occupants []presence.Occupant `json:"occupants"`
}

// PresenceHandler 在线状态查询
type PresenceHandler struct {
	protocol *presence.Protocol
}

// NewPresenceHandler 创建在线状态处理器
func NewPresenceHandler(protocol *presence.Protocol) *PresenceHandler {
	return &PresenceHandler{protocol: protocol}
}

// HallPresence 展厅当前在线成员
// @Summary 展厅在线成员
// @Tags Presence
// @Produce json
// @Param id path int true "展厅ID"
// @Success 200 {object} PresenceSnapshot
// @Router /api/v1/halls/{id}/presence [get]
func (h *PresenceHandler) HallPresence(c *gin.Context) {
	hallID, ok := pathID(c, "id")
	if !ok {
		return
	}

	occupants := h.protocol.Occupants(int64(hallID))
	if occupants == nil {
		occupants = []presence.Occupant{}
	}
	respondOK(c, http.StatusOK, PresenceSnapshot{
		HallID:    int64(hallID),
		Count:     len(occupants),
		Occupants: occupants,
	})
}
