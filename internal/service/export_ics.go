package service

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"school-manager/internal/model"
	"school-manager/internal/schedule"
)

// ═══════════════════════════════════════════════════════════
// RenderICS: 已发布课表导出为 iCalendar (RFC 5545)
// ═══════════════════════════════════════════════════════════
//
// 每个非空单元格生成一个 VEVENT：
//   - SUMMARY 班级与学科，LOCATION 教室，DESCRIPTION 教师
//   - 课节时间按 schedule.timezone 解释并以 UTC 输出
//   - UID 由日期、班级、课节组成，同一课节重复导出时日历端会覆盖而非新增

const icsProductID = "-//school-manager//schedule//ZH"

func (s *exportService) RenderICS(tt *schedule.Timetable) (*bytes.Buffer, error) {
	day := tt.Date.Format(model.DateLayout)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("课表 " + tt.Date.Format("02.01.2006"))
	cal.SetXWRTimezone(s.loc.String())

	stamp := time.Now().UTC()
	for _, row := range tt.Rows {
		start, err := time.ParseInLocation("2006-01-02 15:04", day+" "+row.Time.Start, s.loc)
		if err != nil {
			// 无时间的课节无法放入日历
			continue
		}
		end, err := time.ParseInLocation("2006-01-02 15:04", day+" "+row.Time.End, s.loc)
		if err != nil || !end.After(start) {
			continue
		}

		for i, c := range row.Cells {
			if c.Empty() {
				continue
			}
			className := tt.Classes[i]

			event := cal.AddEvent(fmt.Sprintf("%s-%s-%d@school-manager", day, className, row.Lesson))
			event.SetDtStampTime(stamp)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(fmt.Sprintf("班级 %s · %s", className, c.Subject))
			event.SetLocation("教室 " + c.Classroom)
			desc := "教师: " + c.Teacher
			if c.IsReplacement {
				desc += "（代课）"
			}
			event.SetDescription(desc)
		}
	}

	return bytes.NewBufferString(cal.Serialize()), nil
}
