package schedule

import (
	"errors"
	"reflect"
	"testing"
)

func TestBoard_AddSlot_Limit(t *testing.T) {
	b := newTestBoard("5A")

	for i := 1; i <= MaxLessons; i++ {
		s, err := b.AddSlot("5A")
		if err != nil {
			t.Fatalf("第 %d 次追加失败: %v", i, err)
		}
		if s.Lesson() != i {
			t.Errorf("期望课节 %d，实际 %d", i, s.Lesson())
		}
		if s.Period() != testPeriods().For(i) {
			t.Errorf("第 %d 节时间不正确: %s", i, s.Period().Label())
		}
	}

	if _, err := b.AddSlot("5A"); !errors.Is(err, ErrSlotLimit) {
		t.Fatalf("第 9 次追加期望 ErrSlotLimit，实际: %v", err)
	}
	d, _ := b.Draft("5A")
	if len(d.Slots()) != MaxLessons {
		t.Errorf("拒绝后草稿应保持 8 节，实际 %d", len(d.Slots()))
	}
}

func TestBoard_Validation(t *testing.T) {
	empty := NewBoard(testPeriods(), newFakeLookup(), nil)
	if _, err := empty.AddSlot("5A"); !errors.Is(err, ErrNoDateSelected) {
		t.Errorf("未选日期期望 ErrNoDateSelected，实际: %v", err)
	}

	b := newTestBoard("5A")
	if _, err := b.AddSlot(""); !errors.Is(err, ErrEmptyClassName) {
		t.Errorf("空班级名期望 ErrEmptyClassName，实际: %v", err)
	}
	if _, err := b.AddSlot("9Z"); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("未知班级期望 ErrUnknownClass，实际: %v", err)
	}
	if _, err := b.Slot("5A", 1); !errors.Is(err, ErrLessonNotInDraft) {
		t.Errorf("空草稿取课节期望 ErrLessonNotInDraft，实际: %v", err)
	}
}

func TestBoard_RemoveSlot_ReleasesResources(t *testing.T) {
	b := newTestBoard("5A")
	s, _ := b.AddSlot("5A")
	s.AssignTeacher("张 伟")
	s.AssignClassroom("101")

	removed, err := b.RemoveSlot("5A")
	if err != nil || !removed {
		t.Fatalf("RemoveSlot 失败: removed=%v err=%v", removed, err)
	}
	if !b.Tracker().TeacherFree("张 伟", 1) || !b.Tracker().ClassroomFree("101", 1) {
		t.Error("移除后应归还教师与教室")
	}

	removed, _ = b.RemoveSlot("5A")
	if removed {
		t.Error("空草稿移除应返回 false")
	}
}

func TestBoard_ResetSortsClasses(t *testing.T) {
	b := newTestBoard("10A", "2B", "1A", "Лицей")
	want := []string{"1A", "2B", "10A", "Лицей"}
	if got := b.ClassNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestBoard_Restore(t *testing.T) {
	b := newTestBoard("5A", "5B")

	rec := Record{
		Lesson: 3, Start: "09:40", End: "10:25",
		Subject:   Ref{ID: "s-math", Name: "数学"},
		Teacher:   Ref{ID: "t-zhang", Name: "张 伟"},
		Classroom: Ref{ID: "r-101", Name: "101"},
	}
	if err := b.Restore("5A", rec); err != nil {
		t.Fatalf("Restore 失败: %v", err)
	}
	// 越界记录跳过
	if err := b.Restore("5A", Record{Lesson: 11}); err != nil {
		t.Fatalf("越界记录不应返回错误: %v", err)
	}

	d, _ := b.Draft("5A")
	if len(d.Slots()) != 1 {
		t.Fatalf("期望恢复 1 节，实际 %d", len(d.Slots()))
	}
	if !d.Saved() || !d.Owns(3) {
		t.Error("恢复后应为已保存且拥有第 3 节")
	}
	if b.Tracker().TeacherFree("张 伟", 3) {
		t.Error("恢复的课节应占用教师")
	}

	d2, _ := b.Draft("5B")
	if d2.Saved() {
		t.Error("没有记录的班级不应为已保存")
	}
	if b.AllSaved() {
		t.Error("5B 未保存时 AllSaved 应为 false")
	}
	if got := b.Unsaved(); !reflect.DeepEqual(got, []string{"5B"}) {
		t.Errorf("期望未保存 [5B]，实际 %v", got)
	}
}

func TestBoard_EditClearsSaved(t *testing.T) {
	b := newTestBoard("5A")
	b.MarkSaved("5A", nil)
	if !b.AllSaved() {
		t.Fatal("MarkSaved 后应全部已保存")
	}
	if _, err := b.AddSlot("5A"); err != nil {
		t.Fatal(err)
	}
	if b.AllSaved() {
		t.Error("追加课节后应变为未保存")
	}
	b.MarkSaved("5A", []int{1})
	b.MarkDirty("5A")
	if b.AllSaved() {
		t.Error("MarkDirty 后应变为未保存")
	}
}

func TestBoard_MarkSavedReplacesOwned(t *testing.T) {
	b := newTestBoard("5A")
	_ = b.Restore("5A", Record{Lesson: 1})
	_ = b.Restore("5A", Record{Lesson: 2})

	b.MarkSaved("5A", []int{1})
	d, _ := b.Draft("5A")
	if !d.Owns(1) || d.Owns(2) {
		t.Error("保存后拥有的课节应为本次写入的课节")
	}
}

func TestBoard_Clear(t *testing.T) {
	b := newTestBoard("5A", "5B")
	s, _ := b.AddSlot("5A")
	s.AssignTeacher("张 伟")
	b.MarkSaved("5A", []int{1})
	b.MarkSaved("5B", nil)

	b.Clear()

	for _, name := range b.ClassNames() {
		d, _ := b.Draft(name)
		if len(d.Slots()) != 0 || d.Saved() {
			t.Errorf("%s 清空后应无课节且未保存", name)
		}
	}
	if !b.Tracker().TeacherFree("张 伟", 1) {
		t.Error("清空后应归还资源")
	}
	if _, ok := b.Date(); !ok {
		t.Error("清空不应丢失日期")
	}
}

func TestBoard_AllSaved_NoClasses(t *testing.T) {
	b := newTestBoard()
	if b.AllSaved() {
		t.Error("没有班级时不允许发布")
	}
}

func TestBoard_MaxLessonAndGridEntries(t *testing.T) {
	b := newTestBoard("5A", "5B")
	if b.MaxLesson() != 1 {
		t.Errorf("无课节时最大课节应为 1，实际 %d", b.MaxLesson())
	}

	for i := 0; i < 3; i++ {
		_, _ = b.AddSlot("5B")
	}
	s, _ := b.Slot("5B", 2)
	s.SetSubject("数学")
	s.AssignTeacher("李 娜")
	s.AssignClassroom("102")

	if b.MaxLesson() != 3 {
		t.Errorf("期望最大课节 3，实际 %d", b.MaxLesson())
	}
	entries := b.GridEntries()
	if len(entries) != 1 || entries[0].Class != "5B" || entries[0].Lesson != 2 {
		t.Fatalf("只应输出完整课节，实际 %+v", entries)
	}
	if entries[0].Cell.Teacher != "李 娜" {
		t.Errorf("期望教师 李 娜，实际 %s", entries[0].Cell.Teacher)
	}
}
