package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"school-manager/internal/schedule"
)

// ═══════════════════════════════════════════════════════════
// RenderPDF: 课表网格导出为 PDF（A4 横向，单页）
// ═══════════════════════════════════════════════════════════

const (
	pdfMargin     = 10.0
	pdfLessonColW = 10.0
	pdfTimeColW   = 22.0
	pdfTitleH     = 10.0
	pdfHeaderRowH = 8.0
	pdfFooterH    = 8.0
	pdfMaxRowH    = 20.0
	pdfLineH      = 4.5
	pdfHeaderFont = 8.0
	pdfBodyFont   = 8.0
	pdfUTF8Family = "schedule"
)

// ErrPDFFontMissing 内置字体只覆盖 cp1252，中文与西里尔字符会被替换成占位符
var ErrPDFFontMissing = errors.New("未配置 UTF-8 字体 (schedule.pdf_font_path)")

var pdfHeaderRGB = [3]int{0x4A, 0x2E, 0x5F}

func (s *exportService) RenderPDF(tt *schedule.Timetable) (*bytes.Buffer, error) {
	if s.fontPath == "" {
		return nil, fmt.Errorf("%w: %w", ErrExportGenerateFail, ErrPDFFontMissing)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetCreationDate(tt.Date)

	family := pdfUTF8Family
	pdf.AddUTF8Font(family, "", s.fontPath)
	if err := pdf.Error(); err != nil {
		s.logger.Error("加载 PDF 字体失败", zap.String("font", s.fontPath), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	classW := 0.0
	if n := len(tt.Classes); n > 0 {
		classW = (pageW - 2*pdfMargin - pdfLessonColW - pdfTimeColW) / float64(n)
	}
	rowH := pdfMaxRowH
	if n := len(tt.Rows); n > 0 {
		avail := pageH - 2*pdfMargin - pdfTitleH - 2*pdfHeaderRowH - pdfFooterH
		if h := avail / float64(n); h < rowH {
			rowH = h
		}
	}

	x0 := pdfMargin
	y := pdfMargin

	// 标题
	pdf.SetFont(family, "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x0, y)
	pdf.CellFormat(pageW-2*pdfMargin, pdfTitleH, "课表 "+tt.Date.Format("02.01.2006"), "", 0, "C", false, 0, "")
	y += pdfTitleH

	// ── 表头 ──
	headerH := 2 * pdfHeaderRowH
	pdf.SetFont(family, "", pdfHeaderFont)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(pdfHeaderRGB[0], pdfHeaderRGB[1], pdfHeaderRGB[2])

	// 课节列：竖排文字
	pdf.Rect(x0, y, pdfLessonColW, headerH, "FD")
	pdf.SetTextColor(255, 255, 255)
	label := "课节"
	cx, cy := x0+pdfLessonColW/2, y+headerH/2
	pdf.TransformBegin()
	pdf.TransformRotate(90, cx, cy)
	pdf.Text(cx-pdf.GetStringWidth(label)/2, cy+1.5, label)
	pdf.TransformEnd()

	pdf.SetXY(x0+pdfLessonColW, y)
	pdf.CellFormat(pdfTimeColW, headerH, "时间", "1", 0, "C", true, 0, "")

	for i, className := range tt.Classes {
		x := x0 + pdfLessonColW + pdfTimeColW + float64(i)*classW
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(x, y)
		pdf.CellFormat(classW, pdfHeaderRowH, "学科 / 教师", "1", 0, "L", false, 0, "")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(x, y+pdfHeaderRowH)
		pdf.CellFormat(classW, pdfHeaderRowH, "班级 "+className, "1", 0, "C", true, 0, "")
	}
	y += headerH

	// ── 数据行 ──
	for _, r := range tt.Rows {
		pdf.SetFont(family, "", pdfHeaderFont)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(x0, y)
		pdf.CellFormat(pdfLessonColW, rowH, fmt.Sprintf("%d", r.Lesson), "1", 0, "C", true, 0, "")
		pdf.CellFormat(pdfTimeColW, rowH, r.Time.Label(), "1", 0, "C", true, 0, "")

		pdf.SetFont(family, "", pdfBodyFont)
		pdf.SetTextColor(0, 0, 0)
		for i, c := range r.Cells {
			x := x0 + pdfLessonColW + pdfTimeColW + float64(i)*classW
			pdf.Rect(x, y, classW, rowH, "D")
			for j, line := range c.Lines() {
				ly := y + 1 + float64(j)*pdfLineH
				if ly+pdfLineH > y+rowH {
					break
				}
				pdf.SetXY(x+1, ly)
				pdf.CellFormat(classW-2, pdfLineH, line, "", 0, "L", false, 0, "")
			}
		}
		y += rowH
	}

	// 状态行
	if tt.Status != "" {
		pdf.SetFont(family, "", pdfHeaderFont)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(x0, y+2)
		pdf.CellFormat(pageW-2*pdfMargin, pdfFooterH-2, tt.Status, "", 0, "C", false, 0, "")
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		s.logger.Error("写入 PDF 失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}
	return buf, nil
}
