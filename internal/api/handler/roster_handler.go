package handler

import (
	"github.com/gin-gonic/gin"

	"school-manager/internal/service"
	"school-manager/pkg/response"
)

// RosterHandler 花名册 HTTP 处理器（只读）
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// GetRoster 班级、学科、教师、教室列表
// GET /api/v1/roster
func (h *RosterHandler) GetRoster(c *gin.Context) {
	roster, err := h.rosterSvc.Get(c.Request.Context())
	if err != nil {
		response.InternalErrorWithDetails(c, 23001, "读取花名册失败", err.Error())
		return
	}
	response.OK(c, roster)
}
