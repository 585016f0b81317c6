package handler

import (
	"github.com/gin-gonic/gin"

	"school-manager/internal/dto"
	"school-manager/internal/service"
	"school-manager/pkg/response"
)

// PublishedHandler 已发布课表查看 HTTP 处理器
type PublishedHandler struct {
	viewSvc service.ScheduleViewService
}

// NewPublishedHandler 创建 PublishedHandler
func NewPublishedHandler(viewSvc service.ScheduleViewService) *PublishedHandler {
	return &PublishedHandler{viewSvc: viewSvc}
}

// GetPublished 某日已发布课表，未发布时返回空白模板
// GET /api/v1/schedule/published?date=YYYY-MM-DD
func (h *PublishedHandler) GetPublished(c *gin.Context) {
	var q dto.PublishedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 21001, "date 必填，格式为 YYYY-MM-DD")
		return
	}
	date, err := parseDate(q.Date)
	if err != nil {
		response.BadRequest(c, 21001, "date 必填，格式为 YYYY-MM-DD")
		return
	}

	result, err := h.viewSvc.GetPublished(c.Request.Context(), date)
	if err != nil {
		response.InternalErrorWithDetails(c, 21002, "查询已发布课表失败", err.Error())
		return
	}
	response.OK(c, result)
}

// GetLatest 最近发布日期
// GET /api/v1/schedule/published/latest
func (h *PublishedHandler) GetLatest(c *gin.Context) {
	result, err := h.viewSvc.LatestPublishedDate(c.Request.Context())
	if err != nil {
		response.InternalErrorWithDetails(c, 21003, "查询最近发布日期失败", err.Error())
		return
	}
	response.OK(c, result)
}
