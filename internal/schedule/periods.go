package schedule

// MaxLessons 每天固定的课节数
const MaxLessons = 8

// Period 一个课节的起止时间（HH:MM）
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Label 形如 08:00-08:45
func (p Period) Label() string {
	if p.Start == "" && p.End == "" {
		return ""
	}
	return p.Start + "-" + p.End
}

// PeriodTable 标准课节表，下标 0 对应第 1 节
type PeriodTable []Period

// For 返回第 lesson 节的时间；超出表长时沿用最后一节
func (t PeriodTable) For(lesson int) Period {
	if len(t) == 0 {
		return Period{}
	}
	if lesson < 1 {
		return t[0]
	}
	if lesson > len(t) {
		return t[len(t)-1]
	}
	return t[lesson-1]
}

// ValidLesson 课节编号是否在 [1, MaxLessons]
func ValidLesson(n int) bool {
	return n >= 1 && n <= MaxLessons
}
