package dto

// ── 花名册 ──

// RefResponse 花名册条目
type RefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RosterResponse 花名册（只读）
type RosterResponse struct {
	Classes    []RefResponse `json:"classes"`
	Subjects   []RefResponse `json:"subjects"`
	Teachers   []RefResponse `json:"teachers"`
	Classrooms []RefResponse `json:"classrooms"`
}
