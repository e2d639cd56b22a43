package util

import (
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"YES", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"garbage", true}, // falls back to default
		{"", true},
	}
	for _, tc := range cases {
		t.Setenv("TEST_BOOL", tc.value)
		if got := ParseBoolEnv("TEST_BOOL", true); got != tc.want {
			t.Errorf("ParseBoolEnv(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := ParseIntEnv("TEST_INT", 7); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	t.Setenv("TEST_INT", "not-a-number")
	if got := ParseIntEnv("TEST_INT", 7); got != 7 {
		t.Errorf("Expected default 7, got %d", got)
	}
	if got := ParseIntEnv("TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("Expected default 7 for unset variable, got %d", got)
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("TEST_DUR", "90m")
	if got := ParseDurationEnv("TEST_DUR", time.Hour); got != 90*time.Minute {
		t.Errorf("Expected 90m, got %v", got)
	}
	t.Setenv("TEST_DUR", "soon")
	if got := ParseDurationEnv("TEST_DUR", time.Hour); got != time.Hour {
		t.Errorf("Expected default 1h, got %v", got)
	}
}
