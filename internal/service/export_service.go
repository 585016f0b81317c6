package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-manager/config"
	"school-manager/internal/model"
	"school-manager/internal/schedule"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSchedule   = errors.New("该日期暂无已发布课表")
	ErrExportGenerateFail = errors.New("生成课表文档失败")
	ErrUnsupportedFormat  = errors.New("不支持的导出格式")
)

// 导出格式
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatICS  = "ics"
)

// ExportService 课表文档导出接口
//
// 设计说明：
//   - 发布时由编辑服务调用 RenderXLSX / RenderPDF 生成文档并落盘
//   - 下载接口按日期从已发布课表重新渲染，文档只读，不支持导入
//   - ics 只用于下载，发布时不落盘
//   - 返回 bytes.Buffer，由调用方决定写文件还是写 HTTP 响应
type ExportService interface {
	RenderXLSX(tt *schedule.Timetable) (*bytes.Buffer, error)
	RenderPDF(tt *schedule.Timetable) (*bytes.Buffer, error)
	RenderICS(tt *schedule.Timetable) (*bytes.Buffer, error)
	// ExportPublished 导出某日已发布课表，返回内容与建议文件名
	ExportPublished(ctx context.Context, date time.Time, format string) (*bytes.Buffer, string, error)
}

type exportService struct {
	view     ScheduleViewService
	fontPath string
	loc      *time.Location
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.ScheduleConfig, view ScheduleViewService, logger *zap.Logger) ExportService {
	if cfg.PDFFontPath == "" {
		logger.Warn("未配置 schedule.pdf_font_path，PDF 导出与发布将失败")
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		}
	}
	return &exportService{view: view, fontPath: cfg.PDFFontPath, loc: loc, logger: logger}
}

// ExportFileName 课表_2006-01-02.xlsx
func ExportFileName(date time.Time, format string) string {
	return fmt.Sprintf("课表_%s.%s", date.Format(model.DateLayout), format)
}

func (s *exportService) ExportPublished(ctx context.Context, date time.Time, format string) (*bytes.Buffer, string, error) {
	if format == "" {
		format = FormatXLSX
	}
	var render func(*schedule.Timetable) (*bytes.Buffer, error)
	switch format {
	case FormatXLSX:
		render = s.RenderXLSX
	case FormatPDF:
		render = s.RenderPDF
	case FormatICS:
		render = s.RenderICS
	default:
		return nil, "", ErrUnsupportedFormat
	}

	tt, published, err := s.view.Timetable(ctx, date)
	if err != nil {
		return nil, "", err
	}
	if !published {
		return nil, "", ErrExportNoSchedule
	}

	buf, err := render(tt)
	if err != nil {
		return nil, "", err
	}
	return buf, ExportFileName(date, format), nil
}

// ═══════════════════════════════════════════════════════════
// RenderXLSX: 课表网格导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：标题（合并）
//   - 第 2-3 行：表头，A 列课节（竖排）、B 列时间、其后每班一列
//   - 数据行：每课节一行，单元格为 学科 / 教师 / 教室 三行
//   - 末行：编排状态（合并）

const headerColor = "#4A2E5F"

func (s *exportService) RenderXLSX(tt *schedule.Timetable) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	lastCol := colName(1 + len(tt.Classes))

	// 列宽
	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "B", 13)
	if len(tt.Classes) > 0 {
		f.SetColWidth(sheetName, "C", lastCol, 24)
	}

	// 样式
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	darkStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 8, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	rotatedStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 8, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", TextRotation: 90},
		Border:    border,
	})
	captionStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 8},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		Border:    border,
	})
	classStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
		Border:    border,
	})
	footerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Size: 9},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", "课表 "+tt.Date.Format("02.01.2006"))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", cell(lastCol, 1), titleStyle)
	f.SetRowHeight(sheetName, 1, 24)

	// 表头
	f.SetCellValue(sheetName, "A2", "课节")
	f.MergeCell(sheetName, "A2", "A3")
	f.SetCellStyle(sheetName, "A2", "A3", rotatedStyle)
	f.SetCellValue(sheetName, "B2", "时间")
	f.MergeCell(sheetName, "B2", "B3")
	f.SetCellStyle(sheetName, "B2", "B3", darkStyle)
	for i, className := range tt.Classes {
		col := colName(2 + i)
		f.SetCellValue(sheetName, cell(col, 2), "学科\n教师")
		f.SetCellStyle(sheetName, cell(col, 2), cell(col, 2), captionStyle)
		f.SetCellValue(sheetName, cell(col, 3), "班级 "+className)
		f.SetCellStyle(sheetName, cell(col, 3), cell(col, 3), classStyle)
	}
	f.SetRowHeight(sheetName, 2, 24)

	// 数据行
	row := 4
	for _, r := range tt.Rows {
		f.SetCellValue(sheetName, cell("A", row), r.Lesson)
		f.SetCellStyle(sheetName, cell("A", row), cell("A", row), darkStyle)
		f.SetCellValue(sheetName, cell("B", row), r.Time.Label())
		f.SetCellStyle(sheetName, cell("B", row), cell("B", row), darkStyle)
		for i, c := range r.Cells {
			col := colName(2 + i)
			f.SetCellValue(sheetName, cell(col, row), strings.Join(c.Lines(), "\n"))
			f.SetCellStyle(sheetName, cell(col, row), cell(col, row), bodyStyle)
		}
		f.SetRowHeight(sheetName, row, 48)
		row++
	}

	// 状态行
	if tt.Status != "" {
		f.SetCellValue(sheetName, cell("A", row), tt.Status)
		f.MergeCell(sheetName, cell("A", row), cell(lastCol, row))
		f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), footerStyle)
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}
	return buf, nil
}

// ── 辅助函数 ──

// colName 0 → A
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
