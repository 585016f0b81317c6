package repository

import "testing"

func TestTrimClock(t *testing.T) {
	cases := map[string]string{
		"08:00:00": "08:00",
		"14:45":    "14:45",
		"":         "",
	}
	for in, want := range cases {
		if got := TrimClock(in); got != want {
			t.Errorf("TrimClock(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
}
