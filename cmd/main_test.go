package main

import (
	"testing"

	"github.com/rs/zerolog"

	"posts-api/config"
)

func TestNewLogger(t *testing.T) {
	cases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, c := range cases {
		logger := newLogger(config.LogConfig{Level: c.level})
		if got := logger.GetLevel(); got != c.want {
			t.Errorf("newLogger(%q).GetLevel() = %s, want %s", c.level, got, c.want)
		}
	}

	if got := newLogger(config.LogConfig{Level: "error", Pretty: true}).GetLevel(); got != zerolog.ErrorLevel {
		t.Errorf("pretty logger level = %s, want error", got)
	}
}
