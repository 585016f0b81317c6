package schedule

import "go.uber.org/zap"

// Tracker 每个课节空闲的教师与教室
// 仅作编辑提示，保存时以数据库为准
type Tracker struct {
	teachers   []string
	classrooms []string

	freeTeachers   [MaxLessons]map[string]bool
	freeClassrooms [MaxLessons]map[string]bool

	logger *zap.Logger
}

// NewTracker 创建空的占用表，需调用 Reset 装载花名册
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{logger: logger}
	t.Reset(nil, nil)
	return t
}

// Reset 每个课节都置为全部空闲
func (t *Tracker) Reset(teachers, classrooms []string) {
	t.teachers = append([]string(nil), teachers...)
	t.classrooms = append([]string(nil), classrooms...)
	for i := 0; i < MaxLessons; i++ {
		t.freeTeachers[i] = make(map[string]bool, len(teachers))
		for _, name := range teachers {
			t.freeTeachers[i][name] = true
		}
		t.freeClassrooms[i] = make(map[string]bool, len(classrooms))
		for _, number := range classrooms {
			t.freeClassrooms[i][number] = true
		}
	}
}

// Release 归还或占用资源；花名册之外的名称忽略
func (t *Tracker) Release(teacher, classroom string, lesson int, makeAvailable bool) {
	if !ValidLesson(lesson) {
		t.logger.Warn("课节编号超出范围，忽略资源变更",
			zap.Int("lesson", lesson),
			zap.String("teacher", teacher),
			zap.String("classroom", classroom),
		)
		return
	}
	idx := lesson - 1
	if teacher != "" {
		if _, known := t.freeTeachers[idx][teacher]; known {
			t.freeTeachers[idx][teacher] = makeAvailable
		}
	}
	if classroom != "" {
		if _, known := t.freeClassrooms[idx][classroom]; known {
			t.freeClassrooms[idx][classroom] = makeAvailable
		}
	}
}

// Teachers 第 lesson 节空闲教师，按花名册顺序
func (t *Tracker) Teachers(lesson int) []string {
	if !ValidLesson(lesson) {
		return nil
	}
	return filterFree(t.teachers, t.freeTeachers[lesson-1])
}

// Classrooms 第 lesson 节空闲教室，按花名册顺序
func (t *Tracker) Classrooms(lesson int) []string {
	if !ValidLesson(lesson) {
		return nil
	}
	return filterFree(t.classrooms, t.freeClassrooms[lesson-1])
}

// TeacherFree 某教师在第 lesson 节是否空闲
func (t *Tracker) TeacherFree(name string, lesson int) bool {
	return ValidLesson(lesson) && t.freeTeachers[lesson-1][name]
}

// ClassroomFree 某教室在第 lesson 节是否空闲
func (t *Tracker) ClassroomFree(number string, lesson int) bool {
	return ValidLesson(lesson) && t.freeClassrooms[lesson-1][number]
}

func filterFree(order []string, free map[string]bool) []string {
	out := make([]string, 0, len(order))
	for _, name := range order {
		if free[name] {
			out = append(out, name)
		}
	}
	return out
}
