// schedulectl 课表管理命令行工具：迁移、查看与导出已发布课表
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-manager/config"
	"school-manager/internal/repository"
	"school-manager/internal/service"
	"school-manager/pkg/database"
	applogger "school-manager/pkg/logger"
	"school-manager/pkg/redis"
)

// app 命令共享的依赖，按需初始化
type app struct {
	configPath string

	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	rdb    *redis.Client
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}

	a.cfg, a.logger, a.db = cfg, logger, db
	return nil
}

// services 构建服务层，Redis 不可用时不使用缓存
func (a *app) services() *service.Service {
	rdb, err := redis.NewClient(&a.cfg.Redis, a.logger)
	if err != nil {
		a.logger.Warn("Redis 连接失败，跳过缓存", zap.Error(err))
		rdb = nil
	}
	a.rdb = rdb
	return service.NewService(a.cfg, repository.NewRepository(a.db), rdb, a.logger)
}

func (a *app) close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "schedulectl",
		Short:         "课表管理工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// token 命令不依赖数据库
			if cmd.Annotations["offline"] == "true" {
				cfg, err := config.Load(a.configPath)
				if err != nil {
					return fmt.Errorf("加载配置失败: %w", err)
				}
				a.cfg = cfg
				return nil
			}
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "配置文件路径")

	root.AddCommand(
		newMigrateCmd(a),
		newViewCmd(a),
		newLatestCmd(a),
		newExportCmd(a),
		newTokenCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
