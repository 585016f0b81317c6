package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"school-manager/internal/api/middleware"
	"school-manager/internal/dto"
	"school-manager/internal/schedule"
	"school-manager/internal/service"
	"school-manager/pkg/response"
)

// ScheduleEditorHandler 课表编辑 HTTP 处理器
type ScheduleEditorHandler struct {
	editorSvc service.ScheduleEditorService
}

// NewScheduleEditorHandler 创建 ScheduleEditorHandler
func NewScheduleEditorHandler(editorSvc service.ScheduleEditorService) *ScheduleEditorHandler {
	return &ScheduleEditorHandler{editorSvc: editorSvc}
}

// GetState 当前编辑状态
// GET /api/v1/schedule/editor
func (h *ScheduleEditorHandler) GetState(c *gin.Context) {
	state, err := h.editorSvc.State(c.Request.Context())
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, state)
}

// SelectDate 切换编辑日期并载入草稿
// PUT /api/v1/schedule/editor/date
func (h *ScheduleEditorHandler) SelectDate(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	var req dto.SelectDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.BadRequest(c, 20001, "日期格式应为 YYYY-MM-DD")
		return
	}

	state, err := h.editorSvc.LoadForDate(c.Request.Context(), date)
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, state)
}

// AddSlot 为班级追加一节课
// POST /api/v1/schedule/editor/classes/:class/slots
func (h *ScheduleEditorHandler) AddSlot(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	slot, err := h.editorSvc.AddSlot(c.Request.Context(), c.Param("class"))
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.Created(c, slot)
}

// RemoveLastSlot 移除班级最后一节课
// DELETE /api/v1/schedule/editor/classes/:class/slots/last
func (h *ScheduleEditorHandler) RemoveLastSlot(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	draft, err := h.editorSvc.RemoveSlot(c.Request.Context(), c.Param("class"))
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, draft)
}

// UpdateSlot 修改草稿课节
// PATCH /api/v1/schedule/editor/classes/:class/slots/:lesson
func (h *ScheduleEditorHandler) UpdateSlot(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	lesson, err := strconv.Atoi(c.Param("lesson"))
	if err != nil {
		response.BadRequest(c, 20001, "课节号必须为整数")
		return
	}

	var req dto.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.editorSvc.UpdateSlot(c.Request.Context(), c.Param("class"), lesson, &req)
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// SaveClass 保存班级草稿
// POST /api/v1/schedule/editor/classes/:class/save
func (h *ScheduleEditorHandler) SaveClass(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	result, err := h.editorSvc.Save(c.Request.Context(), c.Param("class"))
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// Publish 发布当日课表
// POST /api/v1/schedule/editor/publish
func (h *ScheduleEditorHandler) Publish(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	result, err := h.editorSvc.Publish(c.Request.Context())
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 错误映射 ──

func (h *ScheduleEditorHandler) handleBindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.BadRequest(c, 20001, "参数校验失败")
}

func (h *ScheduleEditorHandler) handleEditorError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	var notSaved *service.NotSavedError

	switch {
	case errors.As(err, &conflict):
		response.Conflict(c, 20008, conflict.Error(), gin.H{
			"class_name":    conflict.Class,
			"lesson_number": conflict.Lesson,
		})
	case errors.As(err, &notSaved):
		response.Conflict(c, 20009, service.ErrNotAllSaved.Error(), gin.H{
			"unsaved_classes": notSaved.Classes,
		})
	case errors.Is(err, service.ErrPublishInProgress):
		response.Conflict(c, 20010, err.Error(), nil)
	case errors.Is(err, schedule.ErrNoDateSelected):
		response.BadRequest(c, 20002, err.Error())
	case errors.Is(err, schedule.ErrLessonOutOfRange):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, schedule.ErrSlotLimit):
		response.BadRequest(c, 20004, err.Error())
	case errors.Is(err, schedule.ErrEmptyClassName):
		response.BadRequest(c, 20005, err.Error())
	case errors.Is(err, schedule.ErrLessonNotInDraft):
		response.NotFound(c, 20006, err.Error())
	case errors.Is(err, schedule.ErrUnknownClass):
		response.NotFound(c, 20007, err.Error())
	case errors.Is(err, service.ErrPublishFailed):
		response.InternalErrorWithDetails(c, 20011, service.ErrPublishFailed.Error(), err.Error())
	default:
		response.InternalErrorWithDetails(c, 50000, "服务器内部错误", err.Error())
	}
}
