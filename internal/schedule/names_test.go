package schedule

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"王 伟", "王 伟"},
		{"  李  娜\t梅 ", "李 娜 梅"},
		{"", ""},
		// й 的分解形式 (и + U+0306) 合并为单个码点
		{"Серге\u0438\u0306", "Серге\u0439"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) 期望 %q，实际: %q", tt.in, tt.want, got)
		}
	}
}
