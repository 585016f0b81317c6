package service

import (
	"context"

	"go.uber.org/zap"

	"school-manager/internal/dto"
	"school-manager/internal/repository"
	"school-manager/internal/schedule"
)

// RosterService 花名册只读接口
type RosterService interface {
	// Snapshot 读取当前花名册
	Snapshot(ctx context.Context) (*Roster, error)
	// Get 花名册响应
	Get(ctx context.Context) (*dto.RosterResponse, error)
}

// Roster 花名册快照，同时提供按显示名查找
type Roster struct {
	Classes    []schedule.ClassRef
	Subjects   []schedule.Ref
	Teachers   []schedule.Ref
	Classrooms []schedule.Ref

	subjectIDs   map[string]string
	teacherIDs   map[string]string
	classroomIDs map[string]string
}

// 查找前按 schedule.NormalizeName 规范化，调用方传入规范化后的名称时结果一致

func (r *Roster) LookupSubject(name string) (string, bool) {
	id, ok := r.subjectIDs[schedule.NormalizeName(name)]
	return id, ok
}

func (r *Roster) LookupTeacher(name string) (string, bool) {
	id, ok := r.teacherIDs[schedule.NormalizeName(name)]
	return id, ok
}

func (r *Roster) LookupClassroom(number string) (string, bool) {
	id, ok := r.classroomIDs[schedule.NormalizeName(number)]
	return id, ok
}

// ClassNames 排序后的班级名
func (r *Roster) ClassNames() []string {
	return refNames(classRefsToRefs(r.Classes))
}

// TeacherNames 教师显示名，按花名册顺序
func (r *Roster) TeacherNames() []string { return refNames(r.Teachers) }

// ClassroomNumbers 教室号，按数字感知顺序
func (r *Roster) ClassroomNumbers() []string { return refNames(r.Classrooms) }

type rosterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(repo *repository.Repository, logger *zap.Logger) RosterService {
	return &rosterService{repo: repo, logger: logger}
}

func (s *rosterService) Snapshot(ctx context.Context) (*Roster, error) {
	classes, err := s.repo.Class.List(ctx)
	if err != nil {
		s.logger.Error("查询班级失败", zap.Error(err))
		return nil, err
	}
	subjects, err := s.repo.Subject.List(ctx)
	if err != nil {
		s.logger.Error("查询学科失败", zap.Error(err))
		return nil, err
	}
	teachers, err := s.repo.Teacher.List(ctx)
	if err != nil {
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	rooms, err := s.repo.Classroom.List(ctx)
	if err != nil {
		s.logger.Error("查询教室失败", zap.Error(err))
		return nil, err
	}

	r := &Roster{
		subjectIDs:   make(map[string]string, len(subjects)),
		teacherIDs:   make(map[string]string, len(teachers)),
		classroomIDs: make(map[string]string, len(rooms)),
	}

	classByName := make(map[string]string, len(classes))
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		classByName[c.Name] = c.ClassID
		names = append(names, c.Name)
	}
	for _, name := range schedule.SortClassNames(names) {
		r.Classes = append(r.Classes, schedule.ClassRef{ID: classByName[name], Name: name})
	}

	for _, sub := range subjects {
		name := schedule.NormalizeName(sub.Name)
		r.Subjects = append(r.Subjects, schedule.Ref{ID: sub.SubjectID, Name: name})
		r.subjectIDs[name] = sub.SubjectID
	}

	for _, t := range teachers {
		name := schedule.NormalizeName(t.FullName())
		if _, dup := r.teacherIDs[name]; dup {
			// 同名教师只取第一位，编辑器按显示名选择
			s.logger.Warn("教师显示名重复", zap.String("name", name), zap.String("teacher_id", t.TeacherID))
			continue
		}
		r.Teachers = append(r.Teachers, schedule.Ref{ID: t.TeacherID, Name: name})
		r.teacherIDs[name] = t.TeacherID
	}

	roomByNumber := make(map[string]string, len(rooms))
	numbers := make([]string, 0, len(rooms))
	for _, room := range rooms {
		number := schedule.NormalizeName(room.Number)
		roomByNumber[number] = room.ClassroomID
		numbers = append(numbers, number)
	}
	for _, n := range schedule.SortRoomNumbers(numbers) {
		r.Classrooms = append(r.Classrooms, schedule.Ref{ID: roomByNumber[n], Name: n})
		r.classroomIDs[n] = roomByNumber[n]
	}

	return r, nil
}

func (s *rosterService) Get(ctx context.Context) (*dto.RosterResponse, error) {
	r, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.RosterResponse{
		Classes:    toRefResponses(classRefsToRefs(r.Classes)),
		Subjects:   toRefResponses(r.Subjects),
		Teachers:   toRefResponses(r.Teachers),
		Classrooms: toRefResponses(r.Classrooms),
	}, nil
}

// ── 辅助函数 ──

func classRefsToRefs(classes []schedule.ClassRef) []schedule.Ref {
	out := make([]schedule.Ref, 0, len(classes))
	for _, c := range classes {
		out = append(out, schedule.Ref{ID: c.ID, Name: c.Name})
	}
	return out
}

func refNames(refs []schedule.Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}

func toRefResponses(refs []schedule.Ref) []dto.RefResponse {
	out := make([]dto.RefResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, dto.RefResponse{ID: r.ID, Name: r.Name})
	}
	return out
}
