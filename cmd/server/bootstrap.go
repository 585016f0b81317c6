package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-manager/config"
	"school-manager/internal/api/handler"
	"school-manager/internal/api/router"
	"school-manager/internal/repository"
	"school-manager/internal/service"
	"school-manager/pkg/database"
	"school-manager/pkg/jwt"
	"school-manager/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

// server 课表服务进程持有的连接与健康检查项
type server struct {
	cfg    *config.Config
	logger *zap.Logger

	db     *gorm.DB
	sqlDB  *sql.DB
	rdb    *redis.Client
	checks []handler.HealthCheck
}

// startupStep 启动步骤，按顺序执行，任一步失败即中止启动
type startupStep struct {
	name string
	run  func(*server) error
}

var startupSteps = []startupStep{
	{"数据库", (*server).openDatabase},
	{"数据库迁移", (*server).migrate},
	{"Redis", (*server).connectRedis},
	{"课表输出目录", (*server).prepareOutputDir},
}

func (s *server) start() error {
	for _, step := range startupSteps {
		begin := time.Now()
		if err := step.run(s); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		s.logger.Info("启动步骤完成", zap.String("step", step.name), zap.Duration("elapsed", time.Since(begin)))
	}
	return nil
}

func (s *server) openDatabase() error {
	db, err := database.NewDB(&s.cfg.Database, s.cfg.Log.Level, s.logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	s.db, s.sqlDB = db, sqlDB
	s.checks = append(s.checks, handler.HealthCheck{Name: "database", Required: true, Ping: sqlDB.PingContext})
	return nil
}

func (s *server) migrate() error {
	return database.RunMigrations(s.sqlDB, s.logger)
}

// connectRedis Redis 可选，不可用时课表缓存、发布锁与限流关闭
func (s *server) connectRedis() error {
	rdb, err := redis.NewClient(&s.cfg.Redis, s.logger)
	if err != nil {
		s.logger.Warn("Redis 连接失败，课表缓存、发布锁与限流将不可用", zap.Error(err))
		return nil
	}
	s.rdb = rdb
	s.checks = append(s.checks, handler.HealthCheck{Name: "redis", Ping: rdb.Ping})
	return nil
}

// prepareOutputDir 发布时才写文件，目录不可写要在启动时暴露
func (s *server) prepareOutputDir() error {
	dir := s.cfg.Schedule.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建 %s 失败: %w", dir, err)
	}
	s.logger.Info("课表文档输出目录", zap.String("dir", dir))
	return nil
}

// handler Repository → Service → Handler → Router
func (s *server) handler() http.Handler {
	svc := service.NewService(s.cfg, repository.NewRepository(s.db), s.rdb, s.logger)
	h := handler.NewHandler(svc, s.checks...)
	return router.Setup(s.cfg, h, jwt.NewManager(&s.cfg.Auth), s.rdb, s.logger)
}

// serve 阻塞至 ctx 取消后优雅关闭
func (s *server) serve(ctx context.Context, h http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("收到关闭信号，开始优雅关闭...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器关闭异常: %w", err)
	}
	return nil
}

func (s *server) close() {
	if s.sqlDB != nil {
		s.sqlDB.Close()
	}
	if s.rdb != nil {
		s.rdb.Close()
	}
}
