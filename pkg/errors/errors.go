package errors

import "errors"

// ErrDuplicateEntry 唯一键冲突：(日期, 课节, 班级) 已存在课表记录
var ErrDuplicateEntry = errors.New("课表记录已存在，请刷新后重试")
