package schedule

import (
	"time"

	"go.uber.org/zap"
)

// AvailabilityPort 课节资源占用的回调接口
// makeAvailable=true 归还资源，false 占用资源；空名称忽略
type AvailabilityPort interface {
	Release(teacher, classroom string, lesson int, makeAvailable bool)
}

// LookupPort 按显示名解析花名册 ID
type LookupPort interface {
	LookupSubject(name string) (id string, ok bool)
	LookupTeacher(name string) (id string, ok bool)
	LookupClassroom(number string) (id string, ok bool)
}

// Ref 花名册引用，Name 为空表示未设置
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Empty 是否未设置
func (r Ref) Empty() bool { return r.Name == "" }

// AssignResult 修改教师 / 教室 / 学科的结果
type AssignResult int

const (
	AssignUnchanged AssignResult = iota // 与原值相同
	AssignAssigned                      // 已设置新值
	AssignCleared                       // 已清空
	AssignNotFound                      // 花名册中不存在，原值保留
	AssignSkipped                       // 课节编号无效，未做任何处理
)

func (r AssignResult) String() string {
	switch r {
	case AssignUnchanged:
		return "unchanged"
	case AssignAssigned:
		return "assigned"
	case AssignCleared:
		return "cleared"
	case AssignNotFound:
		return "not_found"
	case AssignSkipped:
		return "skipped"
	}
	return "unknown"
}

// Slot 某班某日的一节课
type Slot struct {
	lesson        int
	period        Period
	date          time.Time
	subject       Ref
	teacher       Ref
	classroom     Ref
	isPublished   bool
	isReplacement bool

	avail  AvailabilityPort
	lookup LookupPort
	logger *zap.Logger
}

// NewSlot 创建课节，lesson 不在 [1,8] 时返回 ErrLessonOutOfRange
func NewSlot(lesson int, period Period, date time.Time, avail AvailabilityPort, lookup LookupPort, logger *zap.Logger) (*Slot, error) {
	if !ValidLesson(lesson) {
		return nil, ErrLessonOutOfRange
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slot{
		lesson: lesson,
		period: period,
		date:   date,
		avail:  avail,
		lookup: lookup,
		logger: logger,
	}, nil
}

func (s *Slot) Lesson() int { return s.lesson }
func (s *Slot) Period() Period { return s.period }
func (s *Slot) Date() time.Time { return s.date }
func (s *Slot) Subject() Ref { return s.subject }
func (s *Slot) Teacher() Ref { return s.teacher }
func (s *Slot) Classroom() Ref { return s.classroom }
func (s *Slot) IsPublished() bool { return s.isPublished }
func (s *Slot) IsReplacement() bool { return s.isReplacement }
func (s *Slot) SetReplacement(v bool) { s.isReplacement = v }

func (s *Slot) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// SetTimes 起止时间新增后可任意修改
func (s *Slot) SetTimes(start, end string) {
	s.period = Period{Start: start, End: end}
}

// SetLessonNumber 修改课节编号
func (s *Slot) SetLessonNumber(n int) error {
	if !ValidLesson(n) {
		return ErrLessonOutOfRange
	}
	if n == s.lesson {
		return nil
	}
	// 占用随课节迁移
	s.releaseAll()
	s.lesson = n
	if s.avail != nil {
		s.avail.Release(s.teacher.Name, s.classroom.Name, s.lesson, false)
	}
	return nil
}

// Complete 学科、教师、教室均已设置，才会被保存
func (s *Slot) Complete() bool {
	return !s.subject.Empty() && !s.teacher.Empty() && !s.classroom.Empty()
}

// SetSubject 按学科名设置，不涉及资源占用
func (s *Slot) SetSubject(name string) AssignResult {
	if name == s.subject.Name {
		return AssignUnchanged
	}
	if name == "" {
		s.subject = Ref{}
		return AssignCleared
	}
	id, ok := s.lookup.LookupSubject(name)
	if !ok {
		s.log().Warn("学科不存在，保留原值", zap.String("subject", name), zap.Int("lesson", s.lesson))
		return AssignNotFound
	}
	s.subject = Ref{ID: id, Name: name}
	return AssignAssigned
}

// AssignTeacher 先查找新教师，命中后才归还旧教师并占用新教师
func (s *Slot) AssignTeacher(name string) AssignResult {
	if name == s.teacher.Name {
		return AssignUnchanged
	}
	if !ValidLesson(s.lesson) {
		s.log().Warn("课节编号无效，跳过教师变更", zap.Int("lesson", s.lesson))
		return AssignSkipped
	}
	if name == "" {
		s.avail.Release(s.teacher.Name, "", s.lesson, true)
		s.teacher = Ref{}
		return AssignCleared
	}
	id, ok := s.lookup.LookupTeacher(name)
	if !ok {
		s.log().Warn("教师不存在，保留原值", zap.String("teacher", name), zap.Int("lesson", s.lesson))
		return AssignNotFound
	}
	s.avail.Release(s.teacher.Name, "", s.lesson, true)
	s.avail.Release(name, "", s.lesson, false)
	s.teacher = Ref{ID: id, Name: name}
	return AssignAssigned
}

// AssignClassroom 同 AssignTeacher，作用于教室
func (s *Slot) AssignClassroom(number string) AssignResult {
	if number == s.classroom.Name {
		return AssignUnchanged
	}
	if !ValidLesson(s.lesson) {
		s.log().Warn("课节编号无效，跳过教室变更", zap.Int("lesson", s.lesson))
		return AssignSkipped
	}
	if number == "" {
		s.avail.Release("", s.classroom.Name, s.lesson, true)
		s.classroom = Ref{}
		return AssignCleared
	}
	id, ok := s.lookup.LookupClassroom(number)
	if !ok {
		s.log().Warn("教室不存在，保留原值", zap.String("classroom", number), zap.Int("lesson", s.lesson))
		return AssignNotFound
	}
	s.avail.Release("", s.classroom.Name, s.lesson, true)
	s.avail.Release("", number, s.lesson, false)
	s.classroom = Ref{ID: id, Name: number}
	return AssignAssigned
}

// releaseAll 归还本节占用的教师与教室
func (s *Slot) releaseAll() {
	if !ValidLesson(s.lesson) || s.avail == nil {
		return
	}
	s.avail.Release(s.teacher.Name, s.classroom.Name, s.lesson, true)
}

// restore 从持久化记录恢复字段并占用资源，不经过查找
func (s *Slot) restore(subject, teacher, classroom Ref, isReplacement, isPublished bool) {
	s.subject = subject
	s.teacher = teacher
	s.classroom = classroom
	s.isReplacement = isReplacement
	s.isPublished = isPublished
	s.avail.Release(teacher.Name, classroom.Name, s.lesson, false)
}

// SlotView 课节的只读快照
type SlotView struct {
	Lesson        int       `json:"lesson_number"`
	Start         string    `json:"start_time"`
	End           string    `json:"end_time"`
	Date          time.Time `json:"date"`
	Subject       Ref       `json:"subject"`
	Teacher       Ref       `json:"teacher"`
	Classroom     Ref       `json:"classroom"`
	IsPublished   bool      `json:"is_published"`
	IsReplacement bool      `json:"is_replacement"`
}

// View 返回快照
func (s *Slot) View() SlotView {
	return SlotView{
		Lesson:        s.lesson,
		Start:         s.period.Start,
		End:           s.period.End,
		Date:          s.date,
		Subject:       s.subject,
		Teacher:       s.teacher,
		Classroom:     s.classroom,
		IsPublished:   s.isPublished,
		IsReplacement: s.isReplacement,
	}
}
