package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"school-manager/config"
	"school-manager/internal/dto"
	"school-manager/internal/model"
	"school-manager/internal/repository"
	"school-manager/internal/schedule"
	"school-manager/pkg/redis"
)

// 查看页状态行
const (
	StatusNotCompiled = "课表尚未编排"
	StatusUnknownDate = "编排日期未知"
)

// ScheduleViewService 已发布课表查看接口
type ScheduleViewService interface {
	// GetPublished 某日已发布课表，未发布时返回空白模板
	GetPublished(ctx context.Context, date time.Time) (*dto.PublishedScheduleResponse, error)
	// Timetable 同 GetPublished，返回网格本身及是否存在已发布记录
	Timetable(ctx context.Context, date time.Time) (*schedule.Timetable, bool, error)
	// LatestPublishedDate 最近一次发布的日期
	LatestPublishedDate(ctx context.Context) (*dto.LatestPublishedResponse, error)
	// Invalidate 清除某日缓存，发布后调用
	Invalidate(ctx context.Context, date time.Time)
}

type scheduleViewService struct {
	repo    *repository.Repository
	roster  RosterService
	periods schedule.PeriodTable
	cache   Cache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewScheduleViewService 创建 ScheduleViewService 实例，cache 可为 nil
func NewScheduleViewService(
	cfg *config.ScheduleConfig,
	repo *repository.Repository,
	roster RosterService,
	cache Cache,
	logger *zap.Logger,
) ScheduleViewService {
	return &scheduleViewService{
		repo:    repo,
		roster:  roster,
		periods: PeriodTable(cfg.Periods),
		cache:   cache,
		ttl:     cfg.ViewCacheTTL,
		logger:  logger,
	}
}

// cachedTimetable 缓存中的结构，仅缓存已发布的网格
type cachedTimetable struct {
	Timetable schedule.Timetable `json:"timetable"`
}

func viewCacheKey(date time.Time) string {
	return "schedule:published:" + date.Format(model.DateLayout)
}

func (s *scheduleViewService) GetPublished(ctx context.Context, date time.Time) (*dto.PublishedScheduleResponse, error) {
	tt, _, err := s.Timetable(ctx, date)
	if err != nil {
		return nil, err
	}
	return toPublishedResponse(tt), nil
}

// ════════════════════════════════════════════════════════════
// Timetable: 已发布记录 → 矩形网格
// ════════════════════════════════════════════════════════════
//
// 列：记录中出现过的班级（排序后）
// 行：记录中出现过的课节，缺格补空
// 无记录：花名册全部班级 × 8 节的空白模板

func (s *scheduleViewService) Timetable(ctx context.Context, date time.Time) (*schedule.Timetable, bool, error) {
	if tt, ok := s.fromCache(ctx, date); ok {
		return tt, true, nil
	}

	entries, err := s.repo.ScheduleEntry.ListPublishedByDate(ctx, date)
	if err != nil {
		s.logger.Error("查询已发布课表失败", zap.String("date", date.Format(model.DateLayout)), zap.Error(err))
		return nil, false, err
	}

	if len(entries) == 0 {
		roster, err := s.roster.Snapshot(ctx)
		if err != nil {
			return nil, false, err
		}
		tt := schedule.EmptyGrid(date, roster.ClassNames(), s.periods)
		tt.Status = StatusNotCompiled
		return &tt, false, nil
	}

	grid := make([]schedule.GridEntry, 0, len(entries))
	var compiledAt *time.Time
	for i := range entries {
		e := &entries[i]
		grid = append(grid, schedule.GridEntry{
			Class:  e.ClassName(),
			Lesson: e.LessonNumber,
			Time:   schedule.Period{Start: e.StartTime, End: e.EndTime},
			Cell: schedule.Cell{
				Subject:       e.SubjectName(),
				Teacher:       e.TeacherName(),
				Classroom:     e.ClassroomNumber(),
				IsReplacement: e.IsReplacement,
			},
			IsPublished: e.IsPublished,
		})
		if e.PublishedAt != nil && (compiledAt == nil || e.PublishedAt.After(*compiledAt)) {
			compiledAt = e.PublishedAt
		}
	}

	tt := schedule.BuildPublishedGrid(date, grid, s.periods)
	if compiledAt != nil {
		tt.Status = CompiledStatus(*compiledAt)
	} else {
		tt.Status = StatusUnknownDate
	}

	s.toCache(ctx, date, &tt)
	return &tt, true, nil
}

func (s *scheduleViewService) LatestPublishedDate(ctx context.Context) (*dto.LatestPublishedResponse, error) {
	latest, err := s.repo.ScheduleEntry.LatestPublishedDate(ctx)
	if err != nil {
		s.logger.Error("查询最近发布日期失败", zap.Error(err))
		return nil, err
	}
	resp := &dto.LatestPublishedResponse{}
	if latest != nil {
		resp.Date = latest.Format(model.DateLayout)
	}
	return resp, nil
}

func (s *scheduleViewService) Invalidate(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, viewCacheKey(date)); err != nil {
		s.logger.Warn("清除课表缓存失败", zap.String("date", date.Format(model.DateLayout)), zap.Error(err))
	}
}

// ── 缓存 ──
// 缓存不可用时直接查库，不影响结果

func (s *scheduleViewService) fromCache(ctx context.Context, date time.Time) (*schedule.Timetable, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.GetBytes(ctx, viewCacheKey(date))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("读取课表缓存失败", zap.Error(err))
		}
		return nil, false
	}
	var cached cachedTimetable
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.Warn("课表缓存损坏，忽略", zap.Error(err))
		return nil, false
	}
	return &cached.Timetable, true
}

func (s *scheduleViewService) toCache(ctx context.Context, date time.Time, tt *schedule.Timetable) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(cachedTimetable{Timetable: *tt})
	if err != nil {
		s.logger.Warn("序列化课表缓存失败", zap.Error(err))
		return
	}
	if err := s.cache.SetBytes(ctx, viewCacheKey(date), data, s.ttl); err != nil {
		s.logger.Warn("写入课表缓存失败", zap.Error(err))
	}
}

func toPublishedResponse(tt *schedule.Timetable) *dto.PublishedScheduleResponse {
	resp := &dto.PublishedScheduleResponse{
		Date:    tt.Date.Format(model.DateLayout),
		Status:  tt.Status,
		Classes: tt.Classes,
		Rows:    make([]dto.TimetableRowResponse, 0, len(tt.Rows)),
	}
	if resp.Classes == nil {
		resp.Classes = []string{}
	}
	for _, r := range tt.Rows {
		row := dto.TimetableRowResponse{
			LessonNumber: r.Lesson,
			Time:         r.Time.Label(),
			Cells:        make([]dto.CellResponse, 0, len(r.Cells)),
		}
		for _, c := range r.Cells {
			row.Cells = append(row.Cells, dto.CellResponse{
				Subject:       c.Subject,
				Teacher:       c.Teacher,
				Classroom:     c.Classroom,
				IsReplacement: c.IsReplacement,
			})
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}
