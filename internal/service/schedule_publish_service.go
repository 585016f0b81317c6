package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"school-manager/internal/dto"
	"school-manager/internal/model"
	"school-manager/internal/schedule"
)

// ════════════════════════════════════════════════════════════
// Publish: 发布当日课表
// ════════════════════════════════════════════════════════════
//
// 流程：
//  1. 校验：已选日期且全部班级已保存，否则不写任何文件与记录
//  2. 获取发布锁（Redis 可用时）
//  3. 按草稿生成课表网格，渲染 xlsx 与 pdf 到临时文件
//  4. 数据库中该日全部记录置为已发布
//  5. 临时文件改名为正式文件名
//  6. 通知监听方，清空草稿
//
// 第 3、4 步任一失败都会删除临时文件并保持数据库不变

func (s *scheduleEditorService) Publish(ctx context.Context) (*dto.PublishResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, ok := s.board.Date()
	if !ok {
		return nil, schedule.ErrNoDateSelected
	}
	if !s.board.AllSaved() {
		publishTotal.WithLabelValues(publishResultRejected).Inc()
		return nil, &NotSavedError{Classes: s.board.Unsaved()}
	}

	dateStr := date.Format(model.DateLayout)
	if s.locker != nil {
		token := uuid.NewString()
		lockName := "publish:" + dateStr
		acquired, err := s.locker.AcquireLock(ctx, lockName, token, s.cfg.PublishLock)
		if err != nil {
			// 锁服务不可用时按单管理员场景继续
			s.logger.Warn("获取发布锁失败，继续发布", zap.Error(err))
		} else if !acquired {
			publishTotal.WithLabelValues(publishResultRejected).Inc()
			return nil, ErrPublishInProgress
		} else {
			defer func() {
				if err := s.locker.ReleaseLock(context.Background(), lockName, token); err != nil {
					s.logger.Warn("释放发布锁失败", zap.Error(err))
				}
			}()
		}
	}

	now := s.now()
	tt := schedule.BuildDayGrid(date, s.board.ClassNames(), s.board.GridEntries(), s.board.MaxLesson(), s.board.Periods())
	tt.Status = CompiledStatus(now)

	// ── 渲染并写入临时文件 ──
	staged, err := s.stageDocuments(&tt)
	if err != nil {
		s.logger.Error("生成课表文档失败", zap.String("date", dateStr), zap.Error(err))
		publishTotal.WithLabelValues(publishResultFailed).Inc()
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	// ── 提交数据库状态 ──
	rows, err := s.repo.ScheduleEntry.MarkPublished(ctx, date, now)
	if err != nil {
		staged.discard(s.logger)
		s.logger.Error("更新发布状态失败", zap.String("date", dateStr), zap.Error(err))
		publishTotal.WithLabelValues(publishResultFailed).Inc()
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	// 数据库已提交，改名失败只能上报，草稿仍按已发布处理
	files, commitErr := staged.commit()
	if commitErr != nil {
		staged.discard(s.logger)
		s.logger.Error("课表文档落盘失败", zap.String("date", dateStr), zap.Error(commitErr))
	}

	for _, fn := range s.listeners {
		fn(ctx, date)
	}
	s.board.Clear()

	s.logger.Info("课表已发布",
		zap.String("date", dateStr),
		zap.Int64("rows", rows),
		zap.Strings("files", files),
	)

	if commitErr != nil {
		publishTotal.WithLabelValues(publishResultFailed).Inc()
		return nil, fmt.Errorf("%w: 文档落盘失败: %v", ErrPublishFailed, commitErr)
	}
	publishTotal.WithLabelValues(publishResultPublished).Inc()
	return &dto.PublishResponse{
		Date:        dateStr,
		Published:   rows,
		Files:       files,
		PublishedAt: now.Format(time.RFC3339),
	}, nil
}

// CompiledStatus 课表状态行
func CompiledStatus(at time.Time) string {
	return "课表编排于 " + at.Format("02.01.2006")
}

// ── 临时文件 ──

type stagedFile struct {
	tmp   string
	final string
}

type stagedDocuments struct {
	files []stagedFile
}

func (s *scheduleEditorService) stageDocuments(tt *schedule.Timetable) (*stagedDocuments, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	docs := &stagedDocuments{}
	renderers := []struct {
		format string
		render func(*schedule.Timetable) (*bytes.Buffer, error)
	}{
		{FormatXLSX, s.exporter.RenderXLSX},
		{FormatPDF, s.exporter.RenderPDF},
	}
	for _, r := range renderers {
		buf, err := r.render(tt)
		if err != nil {
			docs.discard(s.logger)
			return nil, err
		}
		name := ExportFileName(tt.Date, r.format)
		tmp, err := writeTemp(s.cfg.OutputDir, name, buf.Bytes())
		if err != nil {
			docs.discard(s.logger)
			return nil, err
		}
		docs.files = append(docs.files, stagedFile{tmp: tmp, final: filepath.Join(s.cfg.OutputDir, name)})
	}
	return docs, nil
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("写入临时文件失败: %w", err)
	}
	return f.Name(), nil
}

// commit 临时文件改名为正式文件，返回已落盘的路径
func (d *stagedDocuments) commit() ([]string, error) {
	var done []string
	var errs []error
	for i := range d.files {
		f := &d.files[i]
		if err := os.Rename(f.tmp, f.final); err != nil {
			errs = append(errs, err)
			continue
		}
		f.tmp = ""
		done = append(done, f.final)
	}
	return done, errors.Join(errs...)
}

// discard 删除尚未改名的临时文件
func (d *stagedDocuments) discard(logger *zap.Logger) {
	for _, f := range d.files {
		if f.tmp == "" {
			continue
		}
		if err := os.Remove(f.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("删除临时文件失败", zap.String("path", f.tmp), zap.Error(err))
		}
	}
}
