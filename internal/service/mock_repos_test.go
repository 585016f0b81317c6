package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"school-manager/internal/model"
	"school-manager/internal/repository"
	pkgerrors "school-manager/pkg/errors"
)

// ── Mock 花名册 ──

type mockClassRepo struct {
	classes []model.Class
	err     error
}

func (m *mockClassRepo) List(_ context.Context) ([]model.Class, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.Class(nil), m.classes...), nil
}

func (m *mockClassRepo) GetByName(_ context.Context, name string) (*model.Class, error) {
	for i := range m.classes {
		if m.classes[i].Name == name {
			c := m.classes[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type mockSubjectRepo struct {
	subjects []model.Subject
}

func (m *mockSubjectRepo) List(_ context.Context) ([]model.Subject, error) {
	return append([]model.Subject(nil), m.subjects...), nil
}

type mockTeacherRepo struct {
	teachers []model.Teacher
}

func (m *mockTeacherRepo) List(_ context.Context) ([]model.Teacher, error) {
	return append([]model.Teacher(nil), m.teachers...), nil
}

type mockClassroomRepo struct {
	classrooms []model.Classroom
}

func (m *mockClassroomRepo) List(_ context.Context) ([]model.Classroom, error) {
	return append([]model.Classroom(nil), m.classrooms...), nil
}

// ── Mock ScheduleEntryRepository ──
// 行为与 gorm 实现一致：查询时按 ID 关联花名册，插入时校验唯一键

type mockEntryRepo struct {
	rows   []model.ScheduleEntry
	nextID int

	classes    *mockClassRepo
	subjects   *mockSubjectRepo
	teachers   *mockTeacherRepo
	classrooms *mockClassroomRepo

	createErr  error
	markErr    error
	existsErr  error
	existCalls int
}

func sameDay(a, b time.Time) bool {
	return a.Format(model.DateLayout) == b.Format(model.DateLayout)
}

func (m *mockEntryRepo) withAssociations(e model.ScheduleEntry) model.ScheduleEntry {
	for i := range m.classes.classes {
		if m.classes.classes[i].ClassID == e.ClassID {
			c := m.classes.classes[i]
			e.Class = &c
		}
	}
	for i := range m.subjects.subjects {
		if m.subjects.subjects[i].SubjectID == e.SubjectID {
			s := m.subjects.subjects[i]
			e.Subject = &s
		}
	}
	for i := range m.teachers.teachers {
		if m.teachers.teachers[i].TeacherID == e.TeacherID {
			t := m.teachers.teachers[i]
			e.Teacher = &t
		}
	}
	for i := range m.classrooms.classrooms {
		if m.classrooms.classrooms[i].ClassroomID == e.ClassroomID {
			r := m.classrooms.classrooms[i]
			e.Classroom = &r
		}
	}
	return e
}

func (m *mockEntryRepo) ListByClassAndDate(_ context.Context, classID string, date time.Time, published bool) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for _, e := range m.rows {
		if e.ClassID == classID && sameDay(e.EntryDate, date) && e.IsPublished == published {
			out = append(out, m.withAssociations(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LessonNumber < out[j].LessonNumber })
	return out, nil
}

func (m *mockEntryRepo) ExistsAt(_ context.Context, date time.Time, lesson int, classID string) (bool, error) {
	m.existCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, e := range m.rows {
		if e.ClassID == classID && e.LessonNumber == lesson && sameDay(e.EntryDate, date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEntryRepo) DeleteByClassAndDate(_ context.Context, classID string, date time.Time) error {
	kept := m.rows[:0]
	for _, e := range m.rows {
		if e.ClassID == classID && sameDay(e.EntryDate, date) {
			continue
		}
		kept = append(kept, e)
	}
	m.rows = kept
	return nil
}

func (m *mockEntryRepo) BatchCreate(_ context.Context, entries []model.ScheduleEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, e := range entries {
		for _, existing := range m.rows {
			if existing.ClassID == e.ClassID && existing.LessonNumber == e.LessonNumber && sameDay(existing.EntryDate, e.EntryDate) {
				return pkgerrors.ErrDuplicateEntry
			}
		}
		m.nextID++
		e.EntryID = fmt.Sprintf("entry-%d", m.nextID)
		e.Class, e.Subject, e.Teacher, e.Classroom = nil, nil, nil, nil
		m.rows = append(m.rows, e)
	}
	return nil
}

func (m *mockEntryRepo) MarkPublished(_ context.Context, date time.Time, at time.Time) (int64, error) {
	if m.markErr != nil {
		return 0, m.markErr
	}
	var n int64
	for i := range m.rows {
		if sameDay(m.rows[i].EntryDate, date) {
			ts := at
			m.rows[i].IsPublished = true
			m.rows[i].PublishedAt = &ts
			n++
		}
	}
	return n, nil
}

func (m *mockEntryRepo) ListPublishedByDate(_ context.Context, date time.Time) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for _, e := range m.rows {
		if e.IsPublished && sameDay(e.EntryDate, date) {
			out = append(out, m.withAssociations(e))
		}
	}
	return out, nil
}

func (m *mockEntryRepo) LatestPublishedDate(_ context.Context) (*time.Time, error) {
	var latest *time.Time
	for i := range m.rows {
		e := m.rows[i]
		if !e.IsPublished {
			continue
		}
		if latest == nil || e.EntryDate.After(*latest) {
			d := e.EntryDate
			latest = &d
		}
	}
	return latest, nil
}

// count 某班某日的记录数
func (m *mockEntryRepo) count(classID string, date time.Time) int {
	n := 0
	for _, e := range m.rows {
		if e.ClassID == classID && sameDay(e.EntryDate, date) {
			n++
		}
	}
	return n
}

// ── 测试夹具 ──

type testFixture struct {
	repo    *repository.Repository
	classes *mockClassRepo
	entries *mockEntryRepo
}

// newTestFixture 按班级名创建花名册，学科 / 教师 / 教室固定
func newTestFixture(classNames ...string) *testFixture {
	classes := &mockClassRepo{}
	for _, name := range classNames {
		classes.classes = append(classes.classes, model.Class{ClassID: "cls-" + name, Name: name})
	}
	subjects := &mockSubjectRepo{subjects: []model.Subject{
		{SubjectID: "sub-math", Name: "数学"},
		{SubjectID: "sub-lang", Name: "语文"},
		{SubjectID: "sub-eng", Name: "英语"},
	}}
	teachers := &mockTeacherRepo{teachers: []model.Teacher{
		{TeacherID: "tch-wang", LastName: "王", FirstName: "伟"},
		{TeacherID: "tch-li", LastName: "李", FirstName: "娜", MiddleName: "梅"},
		{TeacherID: "tch-zhang", LastName: "张", FirstName: "强"},
	}}
	rooms := &mockClassroomRepo{classrooms: []model.Classroom{
		{ClassroomID: "room-201", Number: "201"},
		{ClassroomID: "room-101", Number: "101"},
		{ClassroomID: "room-102", Number: "102"},
	}}
	entries := &mockEntryRepo{classes: classes, subjects: subjects, teachers: teachers, classrooms: rooms}

	return &testFixture{
		repo: &repository.Repository{
			Class:         classes,
			Subject:       subjects,
			Teacher:       teachers,
			Classroom:     rooms,
			ScheduleEntry: entries,
		},
		classes: classes,
		entries: entries,
	}
}

// seed 直接写入一条记录，模拟其他写入方
func (f *testFixture) seed(className string, date time.Time, lesson int, published bool) {
	e := model.ScheduleEntry{
		EntryDate:    date,
		LessonNumber: lesson,
		StartTime:    "08:00",
		EndTime:      "08:45",
		ClassID:      "cls-" + className,
		SubjectID:    "sub-lang",
		TeacherID:    "tch-zhang",
		ClassroomID:  "room-201",
		IsPublished:  published,
	}
	if published {
		at := date.Add(-24 * time.Hour)
		e.PublishedAt = &at
	}
	f.entries.nextID++
	e.EntryID = fmt.Sprintf("seed-%d", f.entries.nextID)
	f.entries.rows = append(f.entries.rows, e)
}
