package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"school-manager/internal/model"
	"school-manager/internal/schedule"
	"school-manager/internal/service"
	"school-manager/pkg/database"
	"school-manager/pkg/jwt"
)

// ── migrate ──

func newMigrateCmd(a *app) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移（--down N 回滚 N 步）",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
			}
			if down > 0 {
				return database.RollbackMigrations(sqlDB, down, a.logger)
			}
			return database.RunMigrations(sqlDB, a.logger)
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "回滚步数")
	return cmd
}

// ── view ──

func newViewCmd(a *app) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "打印某日已发布课表",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}
			tt, _, err := a.services().View.Timetable(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printTimetable(cmd.OutOrStdout(), tt)
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "日期 YYYY-MM-DD")
	cmd.MarkFlagRequired("date")
	return cmd
}

// ── latest ──

func newLatestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "最近一次发布的日期",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.services().View.LatestPublishedDate(cmd.Context())
			if err != nil {
				return err
			}
			if resp.Date == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "尚无已发布课表")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Date)
			return nil
		},
	}
}

// ── export ──

func newExportCmd(a *app) *cobra.Command {
	var (
		dateStr string
		format  string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出某日已发布课表为 xlsx、pdf 或 ics",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}
			buf, filename, err := a.services().Export.ExportPublished(cmd.Context(), date, format)
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = a.cfg.Schedule.OutputDir
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("创建输出目录失败: %w", err)
			}
			path := filepath.Join(outDir, filename)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("写入文件失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "日期 YYYY-MM-DD")
	cmd.Flags().StringVar(&format, "format", service.FormatXLSX, "导出格式 xlsx|pdf|ics")
	cmd.Flags().StringVar(&outDir, "out", "", "输出目录，默认 schedule.output_dir")
	cmd.MarkFlagRequired("date")
	return cmd
}

// ── token ──

func newTokenCmd(a *app) *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:         "token",
		Short:       "签发调试用 Access Token",
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !jwt.ValidRole(role) {
				return fmt.Errorf("未知角色: %s", role)
			}
			token, err := jwt.NewManager(&a.cfg.Auth).GenerateAccessToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "cli", "用户 ID")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAdmin, "角色 admin|teacher|guest")
	return cmd
}

// ── 输出 ──

func parseDateFlag(s string) (time.Time, error) {
	date, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date 格式应为 YYYY-MM-DD: %q", s)
	}
	return date, nil
}

// printTimetable 以制表符对齐输出课表，一个单元格的多行内容用 " / " 连接
func printTimetable(w io.Writer, tt *schedule.Timetable) error {
	fmt.Fprintf(w, "%s  %s\n\n", tt.Date.Format(model.DateLayout), tt.Status)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"节次", "时间"}, tt.Classes...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range tt.Rows {
		cols := []string{fmt.Sprintf("%d", row.Lesson), row.Time.Label()}
		for _, cell := range row.Cells {
			text := strings.Join(cell.Lines(), " / ")
			if text == "" {
				text = "-"
			}
			cols = append(cols, text)
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}
