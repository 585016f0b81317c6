package schedule

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName 花名册显示名的规范形式：NFC，去掉首尾空白，连续空白合并为一个空格
//
// 花名册与编辑请求两侧都经过此函数，组合字符与多余空格不会导致查找失败
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
