package schedule

import "time"

// Cell 课表网格中的一格
type Cell struct {
	Subject       string `json:"subject"`
	Teacher       string `json:"teacher"`
	Classroom     string `json:"classroom"`
	IsReplacement bool   `json:"is_replacement"`
}

// Empty 空白格
func (c Cell) Empty() bool {
	return c.Subject == "" && c.Teacher == "" && c.Classroom == ""
}

// Lines 渲染为三行：学科、教师、教室
func (c Cell) Lines() []string {
	if c.Empty() {
		return nil
	}
	return []string{c.Subject, c.Teacher, "教室: " + c.Classroom}
}

// Row 一个课节的一行，Cells 与 Timetable.Classes 一一对应
type Row struct {
	Lesson int    `json:"lesson_number"`
	Time   Period `json:"time"`
	Cells  []Cell `json:"cells"`
}

// Timetable 某日全部班级的矩形课表
type Timetable struct {
	Date    time.Time `json:"date"`
	Classes []string  `json:"classes"`
	Rows    []Row     `json:"rows"`
	Status  string    `json:"status"`
}

// GridEntry 构建网格的输入
type GridEntry struct {
	Class       string
	Lesson      int
	Time        Period
	Cell        Cell
	IsPublished bool
}

type gridKey struct {
	lesson int
	class  string
}

// collapse 同一 (课节, 班级) 多条时保留已发布的那条，其次保留先出现的
func collapse(entries []GridEntry) map[gridKey]GridEntry {
	out := make(map[gridKey]GridEntry, len(entries))
	for _, e := range entries {
		k := gridKey{lesson: e.Lesson, class: e.Class}
		prev, ok := out[k]
		if !ok || (!prev.IsPublished && e.IsPublished) {
			out[k] = e
		}
	}
	return out
}

// BuildDayGrid 发布用网格：行为 1..maxLesson，列为给定班级（排序后）
// 时间列取排序后第一个有该节课的班级，都没有时取标准课节表
func BuildDayGrid(date time.Time, classes []string, entries []GridEntry, maxLesson int, periods PeriodTable) Timetable {
	if maxLesson < 1 {
		maxLesson = 1
	}
	sorted := SortClassNames(classes)
	byKey := collapse(entries)

	tt := Timetable{Date: date, Classes: sorted, Rows: make([]Row, 0, maxLesson)}
	for lesson := 1; lesson <= maxLesson; lesson++ {
		tt.Rows = append(tt.Rows, buildRow(lesson, sorted, byKey, periods.For(lesson)))
	}
	return tt
}

// BuildPublishedGrid 查看用网格：行为出现过的课节，列为出现过的班级，缺格补空
func BuildPublishedGrid(date time.Time, entries []GridEntry, periods PeriodTable) Timetable {
	byKey := collapse(entries)

	seenClass := make(map[string]bool)
	var classes []string
	var lessons [MaxLessons + 1]bool
	for k := range byKey {
		if !seenClass[k.class] {
			seenClass[k.class] = true
			classes = append(classes, k.class)
		}
		if ValidLesson(k.lesson) {
			lessons[k.lesson] = true
		}
	}
	sorted := SortClassNames(classes)

	tt := Timetable{Date: date, Classes: sorted}
	for lesson := 1; lesson <= MaxLessons; lesson++ {
		if lessons[lesson] {
			tt.Rows = append(tt.Rows, buildRow(lesson, sorted, byKey, periods.For(lesson)))
		}
	}
	return tt
}

// EmptyGrid 尚未编排时的 8 行空白模板
func EmptyGrid(date time.Time, classes []string, periods PeriodTable) Timetable {
	sorted := SortClassNames(classes)
	tt := Timetable{Date: date, Classes: sorted, Rows: make([]Row, 0, MaxLessons)}
	for lesson := 1; lesson <= MaxLessons; lesson++ {
		tt.Rows = append(tt.Rows, Row{
			Lesson: lesson,
			Time:   periods.For(lesson),
			Cells:  make([]Cell, len(sorted)),
		})
	}
	return tt
}

func buildRow(lesson int, classes []string, byKey map[gridKey]GridEntry, fallback Period) Row {
	row := Row{Lesson: lesson, Cells: make([]Cell, len(classes))}
	timeSet := false
	for i, class := range classes {
		e, ok := byKey[gridKey{lesson: lesson, class: class}]
		if !ok {
			continue
		}
		row.Cells[i] = e.Cell
		if !timeSet && e.Time.Label() != "" {
			row.Time = e.Time
			timeSet = true
		}
	}
	if !timeSet {
		row.Time = fallback
	}
	return row
}
