// server 课表管理 HTTP 服务
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"school-manager/config"
	applogger "school-manager/pkg/logger"
)

func main() {
	if err := newServerCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newServerCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "启动课表编辑与查看 HTTP 服务",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			logger, err := applogger.NewLogger(&cfg.Log)
			if err != nil {
				return fmt.Errorf("初始化日志失败: %w", err)
			}
			defer logger.Sync()

			logger.Info("应用启动中...",
				zap.Int("port", cfg.Server.Port),
				zap.Int("periods", len(cfg.Schedule.Periods)),
				zap.String("timezone", cfg.Schedule.Timezone),
			)

			s := &server{cfg: cfg, logger: logger}
			defer s.close()
			if err := s.start(); err != nil {
				logger.Error("启动失败", zap.Error(err))
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := s.serve(ctx, s.handler()); err != nil {
				logger.Error("服务异常退出", zap.Error(err))
				return err
			}
			logger.Info("服务器已关闭")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "配置文件路径，默认查找 ./config/config.yaml")
	return cmd
}
