package schedule

import (
	"time"
)

// fakeLookup 内存花名册
type fakeLookup struct {
	subjects   map[string]string
	teachers   map[string]string
	classrooms map[string]string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		subjects:   map[string]string{"数学": "s-math", "语文": "s-lang"},
		teachers:   map[string]string{"张 伟": "t-zhang", "李 娜": "t-li"},
		classrooms: map[string]string{"101": "r-101", "102": "r-102"},
	}
}

func (f *fakeLookup) LookupSubject(name string) (string, bool) {
	id, ok := f.subjects[name]
	return id, ok
}

func (f *fakeLookup) LookupTeacher(name string) (string, bool) {
	id, ok := f.teachers[name]
	return id, ok
}

func (f *fakeLookup) LookupClassroom(number string) (string, bool) {
	id, ok := f.classrooms[number]
	return id, ok
}

var (
	testTeachers   = []string{"张 伟", "李 娜"}
	testClassrooms = []string{"101", "102"}
	testDate       = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
)

func testPeriods() PeriodTable {
	return PeriodTable{
		{"08:00", "08:45"}, {"08:50", "09:35"}, {"09:40", "10:25"}, {"10:30", "11:15"},
		{"11:20", "12:05"}, {"12:10", "12:55"}, {"13:00", "13:45"}, {"14:00", "14:45"},
	}
}

func newTestBoard(classes ...string) *Board {
	b := NewBoard(testPeriods(), newFakeLookup(), nil)
	refs := make([]ClassRef, 0, len(classes))
	for _, c := range classes {
		refs = append(refs, ClassRef{ID: "c-" + c, Name: c})
	}
	b.Reset(testDate, refs, testTeachers, testClassrooms)
	return b
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
