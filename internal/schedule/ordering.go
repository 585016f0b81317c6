package schedule

import (
	"sort"
	"strconv"
)

// SortClassNames 班级排序：有数字前缀的按数字升序、余下部分字典序；
// 无数字前缀的排在最后，按字典序
func SortClassNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		return classLess(out[i], out[j])
	})
	return out
}

func classLess(a, b string) bool {
	an, arest, aok := splitNumericPrefix(a)
	bn, brest, bok := splitNumericPrefix(b)
	switch {
	case aok && !bok:
		return true
	case !aok && bok:
		return false
	case aok && bok && an != bn:
		return an < bn
	case aok && bok && arest != brest:
		return arest < brest
	}
	return a < b
}

// splitNumericPrefix "10A" → (10, "A", true)
func splitNumericPrefix(s string) (int, string, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, s, false
	}
	return n, s[end:], true
}

// SortRoomNumbers 教室号排序同班级规则（"2" < "10" < "体育馆"）
func SortRoomNumbers(numbers []string) []string {
	return SortClassNames(numbers)
}
