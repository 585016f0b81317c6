package schedule

import "errors"

// 课表编排领域错误
var (
	ErrLessonOutOfRange = errors.New("课节编号必须在 1 到 8 之间")
	ErrSlotLimit        = errors.New("每个班级每天最多 8 节课")
	ErrEmptyClassName   = errors.New("班级名称不能为空")
	ErrUnknownClass     = errors.New("班级不存在")
	ErrNoDateSelected   = errors.New("请先选择课表日期")
	ErrLessonNotInDraft = errors.New("草稿中没有该课节")
)
