package dto

// ── 课表编辑请求 ──

// SelectDateRequest 切换编辑日期
type SelectDateRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// UpdateSlotRequest 修改草稿课节，未传的字段保持不变；传空字符串表示清空
type UpdateSlotRequest struct {
	LessonNumber  *int    `json:"lesson_number"  binding:"omitempty"`
	Subject       *string `json:"subject"        binding:"omitempty,max=100"`
	Teacher       *string `json:"teacher"        binding:"omitempty,max=300"`
	Classroom     *string `json:"classroom"      binding:"omitempty,max=20"`
	StartTime     *string `json:"start_time"     binding:"omitempty,max=5"`
	EndTime       *string `json:"end_time"       binding:"omitempty,max=5"`
	IsReplacement *bool   `json:"is_replacement"`
}

// PublishedQuery 查看已发布课表
type PublishedQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// ExportQuery 导出已发布课表
type ExportQuery struct {
	Date   string `form:"date"   binding:"required,datetime=2006-01-02"`
	Format string `form:"format" binding:"omitempty,oneof=xlsx pdf ics"`
}

// ── 课表编辑响应 ──

// SlotResponse 草稿课节
type SlotResponse struct {
	LessonNumber  int         `json:"lesson_number"`
	StartTime     string      `json:"start_time"`
	EndTime       string      `json:"end_time"`
	Subject       RefResponse `json:"subject"`
	Teacher       RefResponse `json:"teacher"`
	Classroom     RefResponse `json:"classroom"`
	IsPublished   bool        `json:"is_published"`
	IsReplacement bool        `json:"is_replacement"`
	Complete      bool        `json:"complete"`
}

// EditorClassResponse 单个班级的草稿
type EditorClassResponse struct {
	ClassID string         `json:"class_id"`
	Name    string         `json:"name"`
	Saved   bool           `json:"saved"`
	Slots   []SlotResponse `json:"slots"`
}

// LessonAvailability 某课节空闲的教师与教室
type LessonAvailability struct {
	LessonNumber int      `json:"lesson_number"`
	Teachers     []string `json:"teachers"`
	Classrooms   []string `json:"classrooms"`
}

// EditorStateResponse 编辑器当前状态
type EditorStateResponse struct {
	Date         string                `json:"date,omitempty"`
	Classes      []EditorClassResponse `json:"classes"`
	AllSaved     bool                  `json:"all_saved"`
	Availability []LessonAvailability  `json:"availability"`
}

// UpdateSlotResponse 修改结果，results 中为各字段的处理结果
type UpdateSlotResponse struct {
	Slot    SlotResponse      `json:"slot"`
	Results map[string]string `json:"results"`
}

// SaveClassResponse 保存结果
type SaveClassResponse struct {
	ClassName string `json:"class_name"`
	Saved     int    `json:"saved"`
	Dropped   int    `json:"dropped"` // 学科、教师、教室不全而未保存的课节数
}

// PublishResponse 发布结果
type PublishResponse struct {
	Date        string   `json:"date"`
	Published   int64    `json:"published"`
	Files       []string `json:"files"`
	PublishedAt string   `json:"published_at"`
}

// ── 已发布课表 ──

// CellResponse 课表格
type CellResponse struct {
	Subject       string `json:"subject"`
	Teacher       string `json:"teacher"`
	Classroom     string `json:"classroom"`
	IsReplacement bool   `json:"is_replacement"`
}

// TimetableRowResponse 一个课节的一行，cells 与 classes 对应
type TimetableRowResponse struct {
	LessonNumber int            `json:"lesson_number"`
	Time         string         `json:"time"`
	Cells        []CellResponse `json:"cells"`
}

// PublishedScheduleResponse 已发布课表
type PublishedScheduleResponse struct {
	Date    string                 `json:"date"`
	Status  string                 `json:"status"`
	Classes []string               `json:"classes"`
	Rows    []TimetableRowResponse `json:"rows"`
}

// LatestPublishedResponse 最近发布日期，无发布记录时 date 为空
type LatestPublishedResponse struct {
	Date string `json:"date,omitempty"`
}
