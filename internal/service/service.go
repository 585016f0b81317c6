package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"school-manager/config"
	"school-manager/internal/repository"
	"school-manager/pkg/redis"
)

// Locker 分布式锁，*redis.Client 实现
type Locker interface {
	AcquireLock(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// Cache 字节缓存，*redis.Client 实现
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Roster RosterService
	Editor ScheduleEditorService
	View   ScheduleViewService
	Export ExportService
}

// NewService 创建 Service 聚合，rdb 为 nil 时不使用缓存与发布锁
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		cache  Cache
		locker Locker
	)
	if rdb != nil {
		cache = rdb
		locker = rdb
	}

	roster := NewRosterService(repo, logger)
	view := NewScheduleViewService(&cfg.Schedule, repo, roster, cache, logger)
	export := NewExportService(&cfg.Schedule, view, logger)
	editor := NewScheduleEditorService(&cfg.Schedule, repo, roster, export, locker, logger)

	// 发布与保存都会改写当日记录，清除查看缓存
	editor.OnPublished(view.Invalidate)
	editor.OnSaved(view.Invalidate)

	return &Service{
		Roster: roster,
		Editor: editor,
		View:   view,
		Export: export,
	}
}
