package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"school-manager/internal/dto"
	"school-manager/internal/service"
	"school-manager/pkg/response"
)

var contentTypes = map[string]string{
	service.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	service.FormatPDF:  "application/pdf",
	service.FormatICS:  "text/calendar; charset=utf-8",
}

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedule 下载某日已发布课表
// GET /api/v1/export/schedule?date=YYYY-MM-DD&format=xlsx|pdf|ics
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 22001, "date 必填，format 只能为 xlsx、pdf 或 ics")
		return
	}
	date, err := parseDate(q.Date)
	if err != nil {
		response.BadRequest(c, 22001, "date 必填，format 只能为 xlsx、pdf 或 ics")
		return
	}
	format := q.Format
	if format == "" {
		format = service.FormatXLSX
	}

	buf, filename, err := h.exportSvc.ExportPublished(c.Request.Context(), date, format)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSchedule):
		response.NotFound(c, 22002, "该日期暂无已发布课表")
	case errors.Is(err, service.ErrUnsupportedFormat):
		response.BadRequest(c, 22003, "不支持的导出格式")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalErrorWithDetails(c, 22004, "生成课表文档失败", err.Error())
	default:
		response.InternalErrorWithDetails(c, 50000, "服务器内部错误", err.Error())
	}
}
