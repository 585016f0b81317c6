package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"school-manager/config"
	"school-manager/internal/dto"
	"school-manager/internal/model"
	"school-manager/internal/repository"
	"school-manager/internal/schedule"
)

// ── 课表编辑模块业务错误 ──

var (
	ErrNotAllSaved       = errors.New("所有班级保存后才能发布")
	ErrPublishInProgress = errors.New("该日期课表正在发布，请稍后重试")
	ErrPublishFailed     = errors.New("发布课表失败")
)

// NotSavedError 发布前仍有班级未保存
type NotSavedError struct {
	Classes []string
}

func (e *NotSavedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrNotAllSaved.Error(), e.Classes)
}

func (e *NotSavedError) Unwrap() error { return ErrNotAllSaved }

// DateListener 某日课表记录变更后的回调
type DateListener func(ctx context.Context, date time.Time)

// ScheduleEditorService 课表编辑业务接口
//
// 同一时刻只有一份编辑会话（单管理员场景），所有操作串行执行
type ScheduleEditorService interface {
	// LoadForDate 切换日期并从库中载入该日未发布的草稿
	LoadForDate(ctx context.Context, date time.Time) (*dto.EditorStateResponse, error)
	// State 当前编辑状态
	State(ctx context.Context) (*dto.EditorStateResponse, error)
	// AddSlot 为班级追加一节课
	AddSlot(ctx context.Context, className string) (*dto.SlotResponse, error)
	// RemoveSlot 移除班级最后一节课
	RemoveSlot(ctx context.Context, className string) (*dto.EditorClassResponse, error)
	// UpdateSlot 修改草稿课节
	UpdateSlot(ctx context.Context, className string, lesson int, req *dto.UpdateSlotRequest) (*dto.UpdateSlotResponse, error)
	// Save 冲突检查后保存班级草稿
	Save(ctx context.Context, className string) (*dto.SaveClassResponse, error)
	// Publish 全部班级保存后发布当日课表并生成文档
	Publish(ctx context.Context) (*dto.PublishResponse, error)
	// OnPublished 注册发布回调
	OnPublished(fn DateListener)
	// OnSaved 注册保存回调，保存会连同已发布记录一起替换
	OnSaved(fn DateListener)
}

type scheduleEditorService struct {
	mu sync.Mutex

	cfg      *config.ScheduleConfig
	repo     *repository.Repository
	roster   RosterService
	checker  ConflictChecker
	exporter ExportService
	locker   Locker
	logger   *zap.Logger

	board     *schedule.Board
	lookup    *Roster
	listeners []DateListener
	onSaved   []DateListener
	now       func() time.Time
}

// NewScheduleEditorService 创建 ScheduleEditorService 实例，locker 可为 nil
func NewScheduleEditorService(
	cfg *config.ScheduleConfig,
	repo *repository.Repository,
	roster RosterService,
	exporter ExportService,
	locker Locker,
	logger *zap.Logger,
) ScheduleEditorService {
	s := &scheduleEditorService{
		cfg:      cfg,
		repo:     repo,
		roster:   roster,
		checker:  NewConflictChecker(repo.ScheduleEntry),
		exporter: exporter,
		locker:   locker,
		logger:   logger,
		lookup:   &Roster{},
		now:      time.Now,
	}
	s.board = schedule.NewBoard(PeriodTable(cfg.Periods), s, logger)
	return s
}

// PeriodTable 配置中的课节表
func PeriodTable(periods []config.PeriodConfig) schedule.PeriodTable {
	out := make(schedule.PeriodTable, 0, len(periods))
	for _, p := range periods {
		out = append(out, schedule.Period{Start: p.Start, End: p.End})
	}
	return out
}

// ── LookupPort：按当日载入的花名册查找 ──

func (s *scheduleEditorService) LookupSubject(name string) (string, bool) {
	return s.lookup.LookupSubject(name)
}

func (s *scheduleEditorService) LookupTeacher(name string) (string, bool) {
	return s.lookup.LookupTeacher(name)
}

func (s *scheduleEditorService) LookupClassroom(number string) (string, bool) {
	return s.lookup.LookupClassroom(number)
}

func (s *scheduleEditorService) OnPublished(fn DateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *scheduleEditorService) OnSaved(fn DateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSaved = append(s.onSaved, fn)
}

// ════════════════════════════════════════════════════════════
// LoadForDate: 切换日期
// ════════════════════════════════════════════════════════════

func (s *scheduleEditorService) LoadForDate(ctx context.Context, date time.Time) (*dto.EditorStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := s.roster.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.lookup = roster
	s.board.Reset(date, roster.Classes, roster.TeacherNames(), roster.ClassroomNumbers())

	for _, class := range s.board.Classes() {
		entries, err := s.repo.ScheduleEntry.ListByClassAndDate(ctx, class.ID, date, false)
		if err != nil {
			s.logger.Error("载入草稿失败", zap.String("class", class.Name), zap.Error(err))
			return nil, err
		}
		for _, e := range entries {
			if err := s.board.Restore(class.Name, entryToRecord(&e)); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Info("已切换编辑日期",
		zap.String("date", date.Format(model.DateLayout)),
		zap.Int("classes", len(s.board.Classes())),
	)
	return s.stateLocked(), nil
}

func (s *scheduleEditorService) State(_ context.Context) (*dto.EditorStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(), nil
}

// ════════════════════════════════════════════════════════════
// AddSlot / RemoveSlot / UpdateSlot
// ════════════════════════════════════════════════════════════

func (s *scheduleEditorService) AddSlot(_ context.Context, className string) (*dto.SlotResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.board.AddSlot(className)
	if err != nil {
		if errors.Is(err, schedule.ErrSlotLimit) {
			s.logger.Warn("课节已满，拒绝追加", zap.String("class", className))
		}
		return nil, err
	}
	resp := toSlotResponse(slot)
	return &resp, nil
}

func (s *scheduleEditorService) RemoveSlot(_ context.Context, className string) (*dto.EditorClassResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.board.RemoveSlot(className); err != nil {
		return nil, err
	}
	d, err := s.board.Draft(className)
	if err != nil {
		return nil, err
	}
	resp := toEditorClassResponse(d)
	return &resp, nil
}

func (s *scheduleEditorService) UpdateSlot(_ context.Context, className string, lesson int, req *dto.UpdateSlotRequest) (*dto.UpdateSlotResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.board.Slot(className, lesson)
	if err != nil {
		return nil, err
	}

	// 课节号先校验，失败时不做任何修改
	if req.LessonNumber != nil && !schedule.ValidLesson(*req.LessonNumber) {
		return nil, schedule.ErrLessonOutOfRange
	}

	results := make(map[string]string)
	if req.LessonNumber != nil {
		_ = slot.SetLessonNumber(*req.LessonNumber)
		results["lesson_number"] = schedule.AssignAssigned.String()
	}
	// 名称与花名册使用同一规范形式，可用性按名称记账
	if req.Subject != nil {
		results["subject"] = slot.SetSubject(schedule.NormalizeName(*req.Subject)).String()
	}
	if req.Teacher != nil {
		results["teacher"] = slot.AssignTeacher(schedule.NormalizeName(*req.Teacher)).String()
	}
	if req.Classroom != nil {
		results["classroom"] = slot.AssignClassroom(schedule.NormalizeName(*req.Classroom)).String()
	}
	if req.StartTime != nil || req.EndTime != nil {
		p := slot.Period()
		if req.StartTime != nil {
			p.Start = *req.StartTime
		}
		if req.EndTime != nil {
			p.End = *req.EndTime
		}
		slot.SetTimes(p.Start, p.End)
		results["time"] = schedule.AssignAssigned.String()
	}
	if req.IsReplacement != nil {
		slot.SetReplacement(*req.IsReplacement)
		results["is_replacement"] = schedule.AssignAssigned.String()
	}

	s.board.MarkDirty(className)
	return &dto.UpdateSlotResponse{Slot: toSlotResponse(slot), Results: results}, nil
}

// ════════════════════════════════════════════════════════════
// Save: 冲突检查 + 删除重建
// ════════════════════════════════════════════════════════════
//
// 冲突：库中 (日期, 课节, 班级) 已有记录，且该记录不是本草稿载入或写入的
// 任一冲突都会中止保存，不做任何写入

func (s *scheduleEditorService) Save(ctx context.Context, className string) (*dto.SaveClassResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.board.Draft(className)
	if err != nil {
		return nil, err
	}
	date, _ := s.board.Date()

	seen := make(map[int]bool, len(d.Slots()))
	for _, slot := range d.Slots() {
		lesson := slot.Lesson()
		// 草稿内重复课节同样视为冲突，否则删除后插入会违反唯一键
		if seen[lesson] && slot.Complete() {
			saveConflictTotal.Inc()
			return nil, &ConflictError{Class: className, Lesson: lesson}
		}
		if slot.Complete() {
			seen[lesson] = true
		}
		if d.Owns(lesson) {
			continue
		}
		exists, err := s.checker.HasEntry(ctx, date, lesson, d.Class.ID)
		if err != nil {
			s.logger.Error("冲突检查失败", zap.String("class", className), zap.Error(err))
			return nil, err
		}
		if exists {
			s.logger.Warn("保存被冲突阻止", zap.String("class", className), zap.Int("lesson", lesson))
			saveConflictTotal.Inc()
			return nil, &ConflictError{Class: className, Lesson: lesson}
		}
	}

	entries := make([]model.ScheduleEntry, 0, len(d.Slots()))
	written := make([]int, 0, len(d.Slots()))
	dropped := 0
	for _, slot := range d.Slots() {
		if !slot.Complete() {
			dropped++
			continue
		}
		entries = append(entries, model.ScheduleEntry{
			EntryDate:     date,
			LessonNumber:  slot.Lesson(),
			StartTime:     slot.Period().Start,
			EndTime:       slot.Period().End,
			ClassID:       d.Class.ID,
			SubjectID:     slot.Subject().ID,
			TeacherID:     slot.Teacher().ID,
			ClassroomID:   slot.Classroom().ID,
			IsReplacement: slot.IsReplacement(),
		})
		written = append(written, slot.Lesson())
	}

	// 删除与插入不在同一事务内，插入失败时该班当日记录可能已被清空
	if err := s.repo.ScheduleEntry.DeleteByClassAndDate(ctx, d.Class.ID, date); err != nil {
		s.logger.Error("删除旧课表记录失败", zap.String("class", className), zap.Error(err))
		return nil, err
	}
	if err := s.repo.ScheduleEntry.BatchCreate(ctx, entries); err != nil {
		s.logger.Error("写入课表记录失败", zap.String("class", className), zap.Error(err))
		return nil, err
	}

	s.board.MarkSaved(className, written)
	for _, fn := range s.onSaved {
		fn(ctx, date)
	}
	s.logger.Info("班级课表已保存",
		zap.String("class", className),
		zap.String("date", date.Format(model.DateLayout)),
		zap.Int("saved", len(entries)),
		zap.Int("dropped", dropped),
	)
	return &dto.SaveClassResponse{ClassName: className, Saved: len(entries), Dropped: dropped}, nil
}

// ── 状态转换 ──

func (s *scheduleEditorService) stateLocked() *dto.EditorStateResponse {
	resp := &dto.EditorStateResponse{
		Classes:      []dto.EditorClassResponse{},
		Availability: []dto.LessonAvailability{},
	}
	date, ok := s.board.Date()
	if !ok {
		return resp
	}
	resp.Date = date.Format(model.DateLayout)
	for _, class := range s.board.Classes() {
		d, err := s.board.Draft(class.Name)
		if err != nil {
			continue
		}
		resp.Classes = append(resp.Classes, toEditorClassResponse(d))
	}
	resp.AllSaved = s.board.AllSaved()

	tracker := s.board.Tracker()
	for n := 1; n <= schedule.MaxLessons; n++ {
		resp.Availability = append(resp.Availability, dto.LessonAvailability{
			LessonNumber: n,
			Teachers:     tracker.Teachers(n),
			Classrooms:   tracker.Classrooms(n),
		})
	}
	return resp
}

// entryToRecord 名称与花名册同样规范化，否则占用表按名称释放会落空
func entryToRecord(e *model.ScheduleEntry) schedule.Record {
	return schedule.Record{
		Lesson:        e.LessonNumber,
		Start:         e.StartTime,
		End:           e.EndTime,
		Subject:       schedule.Ref{ID: e.SubjectID, Name: schedule.NormalizeName(e.SubjectName())},
		Teacher:       schedule.Ref{ID: e.TeacherID, Name: schedule.NormalizeName(e.TeacherName())},
		Classroom:     schedule.Ref{ID: e.ClassroomID, Name: schedule.NormalizeName(e.ClassroomNumber())},
		IsReplacement: e.IsReplacement,
		IsPublished:   e.IsPublished,
	}
}

func toSlotResponse(slot *schedule.Slot) dto.SlotResponse {
	v := slot.View()
	return dto.SlotResponse{
		LessonNumber:  v.Lesson,
		StartTime:     v.Start,
		EndTime:       v.End,
		Subject:       dto.RefResponse{ID: v.Subject.ID, Name: v.Subject.Name},
		Teacher:       dto.RefResponse{ID: v.Teacher.ID, Name: v.Teacher.Name},
		Classroom:     dto.RefResponse{ID: v.Classroom.ID, Name: v.Classroom.Name},
		IsPublished:   v.IsPublished,
		IsReplacement: v.IsReplacement,
		Complete:      slot.Complete(),
	}
}

func toEditorClassResponse(d *schedule.ClassDraft) dto.EditorClassResponse {
	resp := dto.EditorClassResponse{
		ClassID: d.Class.ID,
		Name:    d.Class.Name,
		Saved:   d.Saved(),
		Slots:   make([]dto.SlotResponse, 0, len(d.Slots())),
	}
	for _, slot := range d.Slots() {
		resp.Slots = append(resp.Slots, toSlotResponse(slot))
	}
	return resp
}
