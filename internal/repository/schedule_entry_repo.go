package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"school-manager/internal/model"
	pkgerrors "school-manager/pkg/errors"
)

// ScheduleEntryRepository 课表记录数据访问接口
type ScheduleEntryRepository interface {
	// ListByClassAndDate 按班级、日期和发布状态查询，按课节升序
	ListByClassAndDate(ctx context.Context, classID string, date time.Time, published bool) ([]model.ScheduleEntry, error)
	// ExistsAt 判断 (日期, 课节, 班级) 是否已有记录
	ExistsAt(ctx context.Context, date time.Time, lesson int, classID string) (bool, error)
	DeleteByClassAndDate(ctx context.Context, classID string, date time.Time) error
	BatchCreate(ctx context.Context, entries []model.ScheduleEntry) error
	// MarkPublished 将该日期全部记录置为已发布，返回影响行数
	MarkPublished(ctx context.Context, date time.Time, at time.Time) (int64, error)
	ListPublishedByDate(ctx context.Context, date time.Time) ([]model.ScheduleEntry, error)
	// LatestPublishedDate 最近一个已发布的日期，无发布记录时返回 nil
	LatestPublishedDate(ctx context.Context) (*time.Time, error)
}

type scheduleEntryRepo struct {
	db *gorm.DB
}

// NewScheduleEntryRepo 创建 ScheduleEntryRepository 实例
func NewScheduleEntryRepo(db *gorm.DB) ScheduleEntryRepository {
	return &scheduleEntryRepo{db: db}
}

func (r *scheduleEntryRepo) ListByClassAndDate(ctx context.Context, classID string, date time.Time, published bool) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Teacher").
		Preload("Classroom").
		Where("class_id = ? AND entry_date = ? AND is_published = ?", classID, dateParam(date), published).
		Order("lesson_number ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	normalizeTimes(entries)
	return entries, nil
}

func (r *scheduleEntryRepo) ExistsAt(ctx context.Context, date time.Time, lesson int, classID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("entry_date = ? AND lesson_number = ? AND class_id = ?", dateParam(date), lesson, classID).
		Count(&count).Error
	return count > 0, err
}

func (r *scheduleEntryRepo) DeleteByClassAndDate(ctx context.Context, classID string, date time.Time) error {
	return r.db.WithContext(ctx).
		Where("class_id = ? AND entry_date = ?", classID, dateParam(date)).
		Delete(&model.ScheduleEntry{}).Error
}

func (r *scheduleEntryRepo) BatchCreate(ctx context.Context, entries []model.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Omit("Class", "Subject", "Teacher", "Classroom").Create(&entries).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateEntry
	}
	return err
}

func (r *scheduleEntryRepo) MarkPublished(ctx context.Context, date time.Time, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("entry_date = ?", dateParam(date)).
		Updates(map[string]interface{}{
			"is_published": true,
			"published_at": at,
			"updated_at":   at,
		})
	return result.RowsAffected, result.Error
}

func (r *scheduleEntryRepo) ListPublishedByDate(ctx context.Context, date time.Time) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Subject").
		Preload("Teacher").
		Preload("Classroom").
		Where("entry_date = ? AND is_published = ?", dateParam(date), true).
		Order("lesson_number ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	normalizeTimes(entries)
	return entries, nil
}

func (r *scheduleEntryRepo) LatestPublishedDate(ctx context.Context) (*time.Time, error) {
	var entry model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Select("entry_date").
		Where("is_published = ?", true).
		Order("entry_date DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d := entry.EntryDate
	return &d, nil
}

// dateParam DATE 列按字符串比较，避免时区换算
func dateParam(date time.Time) string {
	return date.Format(model.DateLayout)
}

// normalizeTimes PostgreSQL TIME 读出为 HH:MM:SS，统一截成 HH:MM
func normalizeTimes(entries []model.ScheduleEntry) {
	for i := range entries {
		entries[i].StartTime = TrimClock(entries[i].StartTime)
		entries[i].EndTime = TrimClock(entries[i].EndTime)
	}
}

// TrimClock 去掉时间字符串的秒部分
func TrimClock(s string) string {
	if strings.Count(s, ":") == 2 {
		return s[:strings.LastIndex(s, ":")]
	}
	return s
}
