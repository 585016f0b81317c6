package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"school-manager/internal/dto"
	"school-manager/internal/schedule"
	"school-manager/internal/service"
	"school-manager/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ScheduleEditorService ──

type mockEditorService struct {
	state      *dto.EditorStateResponse
	stateErr   error
	loadDate   time.Time
	loadErr    error
	slot       *dto.SlotResponse
	addErr     error
	draft      *dto.EditorClassResponse
	removeErr  error
	update     *dto.UpdateSlotResponse
	updateReq  *dto.UpdateSlotRequest
	updateErr  error
	saveResult *dto.SaveClassResponse
	saveErr    error
	publish    *dto.PublishResponse
	publishErr error
}

func (m *mockEditorService) LoadForDate(_ context.Context, date time.Time) (*dto.EditorStateResponse, error) {
	m.loadDate = date
	return m.state, m.loadErr
}
func (m *mockEditorService) State(_ context.Context) (*dto.EditorStateResponse, error) {
	return m.state, m.stateErr
}
func (m *mockEditorService) AddSlot(_ context.Context, _ string) (*dto.SlotResponse, error) {
	return m.slot, m.addErr
}
func (m *mockEditorService) RemoveSlot(_ context.Context, _ string) (*dto.EditorClassResponse, error) {
	return m.draft, m.removeErr
}
func (m *mockEditorService) UpdateSlot(_ context.Context, _ string, _ int, req *dto.UpdateSlotRequest) (*dto.UpdateSlotResponse, error) {
	m.updateReq = req
	return m.update, m.updateErr
}
func (m *mockEditorService) Save(_ context.Context, _ string) (*dto.SaveClassResponse, error) {
	return m.saveResult, m.saveErr
}
func (m *mockEditorService) Publish(_ context.Context) (*dto.PublishResponse, error) {
	return m.publish, m.publishErr
}
func (m *mockEditorService) OnPublished(_ service.DateListener) {}
func (m *mockEditorService) OnSaved(_ service.DateListener) {}

// ── Mock ScheduleViewService ──

type mockViewService struct {
	published *dto.PublishedScheduleResponse
	err       error
	latest    *dto.LatestPublishedResponse
	latestErr error
}

func (m *mockViewService) GetPublished(_ context.Context, _ time.Time) (*dto.PublishedScheduleResponse, error) {
	return m.published, m.err
}
func (m *mockViewService) Timetable(_ context.Context, _ time.Time) (*schedule.Timetable, bool, error) {
	return nil, false, m.err
}
func (m *mockViewService) LatestPublishedDate(_ context.Context) (*dto.LatestPublishedResponse, error) {
	return m.latest, m.latestErr
}
func (m *mockViewService) Invalidate(_ context.Context, _ time.Time) {}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	format   string
	err      error
}

func (m *mockExportService) RenderXLSX(_ *schedule.Timetable) (*bytes.Buffer, error) {
	return m.buf, m.err
}
func (m *mockExportService) RenderPDF(_ *schedule.Timetable) (*bytes.Buffer, error) {
	return m.buf, m.err
}
func (m *mockExportService) RenderICS(_ *schedule.Timetable) (*bytes.Buffer, error) {
	return m.buf, m.err
}
func (m *mockExportService) ExportPublished(_ context.Context, _ time.Time, format string) (*bytes.Buffer, string, error) {
	m.format = format
	return m.buf, m.filename, m.err
}

// ── Mock RosterService ──

type mockRosterService struct {
	resp *dto.RosterResponse
	err  error
}

func (m *mockRosterService) Snapshot(_ context.Context) (*service.Roster, error) {
	return &service.Roster{}, m.err
}
func (m *mockRosterService) Get(_ context.Context) (*dto.RosterResponse, error) {
	return m.resp, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func withAuth(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// ScheduleEditorHandler Tests
// ═══════════════════════════════════════════════════════════

func TestEditorHandler_SelectDate_Success(t *testing.T) {
	mock := &mockEditorService{state: &dto.EditorStateResponse{Date: "2025-09-01"}}
	h := NewScheduleEditorHandler(mock)

	r := gin.New()
	r.PUT("/schedule/editor/date", withAuth(h.SelectDate))
	w := serve(r, "PUT", "/schedule/editor/date", jsonBody(dto.SelectDateRequest{Date: "2025-09-01"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.loadDate.Format("2006-01-02") != "2025-09-01" {
		t.Errorf("日期未正确传入，实际: %v", mock.loadDate)
	}
}

func TestEditorHandler_SelectDate_BadDate(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{})

	r := gin.New()
	r.PUT("/schedule/editor/date", withAuth(h.SelectDate))
	w := serve(r, "PUT", "/schedule/editor/date", jsonBody(map[string]string{"date": "01.09.2025"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEditorHandler_SelectDate_Unauthenticated(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{})

	r := gin.New()
	r.PUT("/schedule/editor/date", h.SelectDate)
	w := serve(r, "PUT", "/schedule/editor/date", jsonBody(dto.SelectDateRequest{Date: "2025-09-01"}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestEditorHandler_AddSlot_Limit(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{addErr: schedule.ErrSlotLimit})

	r := gin.New()
	r.POST("/classes/:class/slots", withAuth(h.AddSlot))
	w := serve(r, "POST", "/classes/5A/slots", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20004 {
		t.Errorf("expected code 20004, got %d", resp.Code)
	}
}

func TestEditorHandler_AddSlot_Created(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{slot: &dto.SlotResponse{LessonNumber: 1}})

	r := gin.New()
	r.POST("/classes/:class/slots", withAuth(h.AddSlot))
	w := serve(r, "POST", "/classes/5A/slots", nil)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestEditorHandler_UnknownClass(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{removeErr: schedule.ErrUnknownClass})

	r := gin.New()
	r.DELETE("/classes/:class/slots/last", withAuth(h.RemoveLastSlot))
	w := serve(r, "DELETE", "/classes/9Z/slots/last", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestEditorHandler_UpdateSlot_Success(t *testing.T) {
	mock := &mockEditorService{update: &dto.UpdateSlotResponse{Results: map[string]string{"teacher": "assigned"}}}
	h := NewScheduleEditorHandler(mock)

	r := gin.New()
	r.PATCH("/classes/:class/slots/:lesson", withAuth(h.UpdateSlot))
	w := serve(r, "PATCH", "/classes/5A/slots/2", strings.NewReader(`{"teacher":"王 伟","classroom":""}`))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.updateReq == nil || mock.updateReq.Teacher == nil || *mock.updateReq.Teacher != "王 伟" {
		t.Errorf("teacher 未传入，实际: %+v", mock.updateReq)
	}
	if mock.updateReq.Classroom == nil || *mock.updateReq.Classroom != "" {
		t.Error("空字符串应表示清空教室")
	}
	if mock.updateReq.Subject != nil {
		t.Error("未传字段应为 nil")
	}
}

func TestEditorHandler_UpdateSlot_BadLesson(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{})

	r := gin.New()
	r.PATCH("/classes/:class/slots/:lesson", withAuth(h.UpdateSlot))
	w := serve(r, "PATCH", "/classes/5A/slots/abc", jsonBody(map[string]string{}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEditorHandler_Save_Conflict(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{
		saveErr: &service.ConflictError{Class: "5A", Lesson: 3},
	})

	r := gin.New()
	r.POST("/classes/:class/save", withAuth(h.SaveClass))
	w := serve(r, "POST", "/classes/5A/save", nil)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 20008 {
		t.Errorf("expected code 20008, got %d", resp.Code)
	}
	details, ok := resp.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("details 应为对象，实际: %T", resp.Details)
	}
	if details["lesson_number"] != float64(3) {
		t.Errorf("details 应包含冲突课节 3，实际: %v", details["lesson_number"])
	}
}

func TestEditorHandler_Save_PersistenceError(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{saveErr: errors.New("pq: connection refused")})

	r := gin.New()
	r.POST("/classes/:class/save", withAuth(h.SaveClass))
	w := serve(r, "POST", "/classes/5A/save", nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Details != "pq: connection refused" {
		t.Errorf("details 应包含底层错误，实际: %v", resp.Details)
	}
}

func TestEditorHandler_Publish_NotAllSaved(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{
		publishErr: &service.NotSavedError{Classes: []string{"1B"}},
	})

	r := gin.New()
	r.POST("/publish", withAuth(h.Publish))
	w := serve(r, "POST", "/publish", nil)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20009 {
		t.Errorf("expected code 20009, got %d", resp.Code)
	}
}

func TestEditorHandler_Publish_Failed(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{
		publishErr: errors.Join(service.ErrPublishFailed, errors.New("disk full")),
	})

	r := gin.New()
	r.POST("/publish", withAuth(h.Publish))
	w := serve(r, "POST", "/publish", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20011 {
		t.Errorf("expected code 20011, got %d", resp.Code)
	}
}

func TestEditorHandler_Publish_Success(t *testing.T) {
	h := NewScheduleEditorHandler(&mockEditorService{
		publish: &dto.PublishResponse{Date: "2025-09-01", Published: 3},
	})

	r := gin.New()
	r.POST("/publish", withAuth(h.Publish))
	w := serve(r, "POST", "/publish", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// PublishedHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPublishedHandler_GetPublished(t *testing.T) {
	h := NewPublishedHandler(&mockViewService{
		published: &dto.PublishedScheduleResponse{Date: "2025-09-01", Status: service.StatusNotCompiled},
	})

	r := gin.New()
	r.GET("/schedule/published", h.GetPublished)
	w := serve(r, "GET", "/schedule/published?date=2025-09-01", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestPublishedHandler_MissingDate(t *testing.T) {
	h := NewPublishedHandler(&mockViewService{})

	r := gin.New()
	r.GET("/schedule/published", h.GetPublished)
	w := serve(r, "GET", "/schedule/published", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPublishedHandler_GetLatest(t *testing.T) {
	h := NewPublishedHandler(&mockViewService{latest: &dto.LatestPublishedResponse{Date: "2025-09-01"}})

	r := gin.New()
	r.GET("/schedule/published/latest", h.GetLatest)
	w := serve(r, "GET", "/schedule/published/latest", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportSchedule_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("%PDF-1.3"),
		filename: "课表_2025-09-01.pdf",
	}
	h := NewExportHandler(mock)

	r := gin.New()
	r.GET("/export/schedule", h.ExportSchedule)
	w := serve(r, "GET", "/export/schedule?date=2025-09-01&format=pdf", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("expected attachment disposition, got %s", cd)
	}
	if mock.format != "pdf" {
		t.Errorf("expected format pdf, got %s", mock.format)
	}
}

func TestExportHandler_DefaultFormat(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("PK"), filename: "课表_2025-09-01.xlsx"}
	h := NewExportHandler(mock)

	r := gin.New()
	r.GET("/export/schedule", h.ExportSchedule)
	w := serve(r, "GET", "/export/schedule?date=2025-09-01", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.format != service.FormatXLSX {
		t.Errorf("默认格式应为 xlsx，实际: %s", mock.format)
	}
}

func TestExportHandler_BadFormat(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	r := gin.New()
	r.GET("/export/schedule", h.ExportSchedule)
	w := serve(r, "GET", "/export/schedule?date=2025-09-01&format=docx", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_NoSchedule(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoSchedule})

	r := gin.New()
	r.GET("/export/schedule", h.ExportSchedule)
	w := serve(r, "GET", "/export/schedule?date=2025-09-01", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RosterHandler / HealthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRosterHandler_GetRoster(t *testing.T) {
	h := NewRosterHandler(&mockRosterService{resp: &dto.RosterResponse{}})

	r := gin.New()
	r.GET("/roster", h.GetRoster)
	w := serve(r, "GET", "/roster", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRosterHandler_Error(t *testing.T) {
	h := NewRosterHandler(&mockRosterService{err: errors.New("db down")})

	r := gin.New()
	r.GET("/roster", h.GetRoster)
	w := serve(r, "GET", "/roster", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	h := NewHealthHandler(
		HealthCheck{Name: "database", Required: true, Ping: ok},
		HealthCheck{Name: "redis", Ping: down},
	)
	r := gin.New()
	r.GET("/health", h.Health)
	if w := serve(r, "GET", "/health", nil); w.Code != http.StatusOK {
		t.Errorf("可选依赖不可用时应为 200，实际: %d", w.Code)
	}

	h = NewHealthHandler(HealthCheck{Name: "database", Required: true, Ping: down})
	r = gin.New()
	r.GET("/health", h.Health)
	if w := serve(r, "GET", "/health", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("必需依赖不可用时应为 503，实际: %d", w.Code)
	}
}
