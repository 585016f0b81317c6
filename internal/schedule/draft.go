package schedule

import (
	"time"

	"go.uber.org/zap"
)

// ClassRef 班级引用
type ClassRef struct {
	ID   string `json:"class_id"`
	Name string `json:"name"`
}

// Record 持久化的一条课表记录，用于恢复草稿
type Record struct {
	Lesson        int
	Start, End    string
	Subject       Ref
	Teacher       Ref
	Classroom     Ref
	IsReplacement bool
	IsPublished   bool
}

// ClassDraft 单个班级当日的草稿
type ClassDraft struct {
	Class ClassRef
	slots []*Slot
	saved bool
	// owned 该班当日库中由本草稿载入或写入的课节，保存时不视为冲突
	owned map[int]bool
}

func (d *ClassDraft) Slots() []*Slot { return d.slots }
func (d *ClassDraft) Saved() bool { return d.saved }

// Owns 库中第 lesson 节记录是否由本草稿载入或写入
func (d *ClassDraft) Owns(lesson int) bool { return d.owned[lesson] }

// Board 选定日期下全部班级的草稿
// 非并发安全，由调用方加锁
type Board struct {
	date    time.Time
	hasDate bool
	classes []ClassRef
	drafts  map[string]*ClassDraft

	periods PeriodTable
	tracker *Tracker
	lookup  LookupPort
	logger  *zap.Logger
}

// NewBoard 创建空草稿板
func NewBoard(periods PeriodTable, lookup LookupPort, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		drafts:  make(map[string]*ClassDraft),
		periods: periods,
		tracker: NewTracker(logger),
		lookup:  lookup,
		logger:  logger,
	}
}

// Reset 切换日期：清空全部草稿与占用，班级按 SortClassNames 排序
func (b *Board) Reset(date time.Time, classes []ClassRef, teachers, classrooms []string) {
	b.date = date
	b.hasDate = true

	byName := make(map[string]ClassRef, len(classes))
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		if _, dup := byName[c.Name]; dup {
			continue
		}
		byName[c.Name] = c
		names = append(names, c.Name)
	}

	b.classes = make([]ClassRef, 0, len(names))
	b.drafts = make(map[string]*ClassDraft, len(names))
	for _, name := range SortClassNames(names) {
		c := byName[name]
		b.classes = append(b.classes, c)
		b.drafts[name] = &ClassDraft{Class: c, owned: make(map[int]bool)}
	}
	b.tracker.Reset(teachers, classrooms)
}

// Clear 发布后清空草稿与保存状态，日期与班级保留
func (b *Board) Clear() {
	for _, d := range b.drafts {
		for _, s := range d.slots {
			s.releaseAll()
		}
		d.slots = nil
		d.saved = false
		d.owned = make(map[int]bool)
	}
}

// Date 当前日期
func (b *Board) Date() (time.Time, bool) { return b.date, b.hasDate }

// Classes 排序后的班级
func (b *Board) Classes() []ClassRef { return b.classes }

// Tracker 资源占用表
func (b *Board) Tracker() *Tracker { return b.tracker }

// Periods 标准课节表
func (b *Board) Periods() PeriodTable { return b.periods }

// Draft 按班级名取草稿
func (b *Board) Draft(className string) (*ClassDraft, error) {
	if className == "" {
		return nil, ErrEmptyClassName
	}
	if !b.hasDate {
		return nil, ErrNoDateSelected
	}
	d, ok := b.drafts[className]
	if !ok {
		return nil, ErrUnknownClass
	}
	return d, nil
}

// Restore 从库中记录恢复一节课；课节越界的记录跳过并记录日志
func (b *Board) Restore(className string, rec Record) error {
	d, err := b.Draft(className)
	if err != nil {
		return err
	}
	// 库中存在该班草稿即视为已保存
	d.saved = true
	slot, err := NewSlot(rec.Lesson, Period{Start: rec.Start, End: rec.End}, b.date, b.tracker, b.lookup, b.logger)
	if err != nil {
		b.logger.Warn("跳过课节越界的记录",
			zap.String("class", className),
			zap.Int("lesson", rec.Lesson),
		)
		return nil
	}
	if len(d.slots) >= MaxLessons {
		b.logger.Warn("草稿已满，跳过多余记录", zap.String("class", className), zap.Int("lesson", rec.Lesson))
		return nil
	}
	slot.restore(rec.Subject, rec.Teacher, rec.Classroom, rec.IsReplacement, rec.IsPublished)
	d.slots = append(d.slots, slot)
	d.owned[rec.Lesson] = true
	return nil
}

// AddSlot 追加第 count+1 节，已满 8 节返回 ErrSlotLimit 且不做修改
func (b *Board) AddSlot(className string) (*Slot, error) {
	d, err := b.Draft(className)
	if err != nil {
		return nil, err
	}
	if len(d.slots) >= MaxLessons {
		return nil, ErrSlotLimit
	}
	lesson := len(d.slots) + 1
	slot, err := NewSlot(lesson, b.periods.For(lesson), b.date, b.tracker, b.lookup, b.logger)
	if err != nil {
		return nil, err
	}
	d.slots = append(d.slots, slot)
	d.saved = false
	return slot, nil
}

// RemoveSlot 先归还资源再移除最后一节；草稿为空时返回 false
func (b *Board) RemoveSlot(className string) (bool, error) {
	d, err := b.Draft(className)
	if err != nil {
		return false, err
	}
	if len(d.slots) == 0 {
		return false, nil
	}
	last := d.slots[len(d.slots)-1]
	last.releaseAll()
	d.slots = d.slots[:len(d.slots)-1]
	d.saved = false
	return true, nil
}

// Slot 取草稿中指定课节
func (b *Board) Slot(className string, lesson int) (*Slot, error) {
	d, err := b.Draft(className)
	if err != nil {
		return nil, err
	}
	for _, s := range d.slots {
		if s.Lesson() == lesson {
			return s, nil
		}
	}
	return nil, ErrLessonNotInDraft
}

// MarkDirty 草稿被编辑后需重新保存
func (b *Board) MarkDirty(className string) {
	if d, ok := b.drafts[className]; ok {
		d.saved = false
	}
}

// MarkSaved 保存成功，written 为本次写入库中的课节
func (b *Board) MarkSaved(className string, written []int) {
	d, ok := b.drafts[className]
	if !ok {
		return
	}
	d.saved = true
	d.owned = make(map[int]bool, len(written))
	for _, n := range written {
		d.owned[n] = true
	}
}

// AllSaved 至少有一个班级且全部已保存
func (b *Board) AllSaved() bool {
	if !b.hasDate || len(b.classes) == 0 {
		return false
	}
	for _, d := range b.drafts {
		if !d.saved {
			return false
		}
	}
	return true
}

// Unsaved 未保存的班级名，按班级顺序
func (b *Board) Unsaved() []string {
	var out []string
	for _, c := range b.classes {
		if !b.drafts[c.Name].saved {
			out = append(out, c.Name)
		}
	}
	return out
}

// MaxLesson 全部草稿中最大课节号，至少为 1
func (b *Board) MaxLesson() int {
	max := 1
	for _, d := range b.drafts {
		for _, s := range d.slots {
			if s.Lesson() > max {
				max = s.Lesson()
			}
		}
	}
	return max
}

// GridEntries 草稿转为网格输入，只包含学科、教师、教室齐全的课节
func (b *Board) GridEntries() []GridEntry {
	var out []GridEntry
	for _, c := range b.classes {
		for _, s := range b.drafts[c.Name].slots {
			if !s.Complete() {
				continue
			}
			out = append(out, GridEntry{
				Class:  c.Name,
				Lesson: s.Lesson(),
				Time:   s.Period(),
				Cell: Cell{
					Subject:       s.Subject().Name,
					Teacher:       s.Teacher().Name,
					Classroom:     s.Classroom().Name,
					IsReplacement: s.IsReplacement(),
				},
			})
		}
	}
	return out
}

// ClassNames 排序后的班级名
func (b *Board) ClassNames() []string {
	out := make([]string, 0, len(b.classes))
	for _, c := range b.classes {
		out = append(out, c.Name)
	}
	return out
}
