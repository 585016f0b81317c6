package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"school-manager/internal/repository"
)

// ErrSlotConflict 课节已存在课表记录
var ErrSlotConflict = errors.New("课节已存在课表记录")

// ConflictError 保存被冲突阻止，Lesson 为冲突课节
type ConflictError struct {
	Class  string
	Lesson int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("班级 %s 第 %d 节已存在课表记录，请修改后再保存", e.Class, e.Lesson)
}

func (e *ConflictError) Unwrap() error { return ErrSlotConflict }

// ConflictChecker 保存前的冲突查询
type ConflictChecker interface {
	// HasEntry (日期, 课节, 班级) 是否已有持久化记录
	HasEntry(ctx context.Context, date time.Time, lesson int, classID string) (bool, error)
}

type conflictChecker struct {
	entries repository.ScheduleEntryRepository
}

// NewConflictChecker 创建 ConflictChecker 实例
func NewConflictChecker(entries repository.ScheduleEntryRepository) ConflictChecker {
	return &conflictChecker{entries: entries}
}

func (c *conflictChecker) HasEntry(ctx context.Context, date time.Time, lesson int, classID string) (bool, error) {
	return c.entries.ExistsAt(ctx, date, lesson, classID)
}
