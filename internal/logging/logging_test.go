package logging

import (
	"sync"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		expected LogLevel
	}{
		{"Debug via LOG_LEVEL", "LOG_LEVEL", "debug", LevelDebug},
		{"Info via LOG_LEVEL", "LOG_LEVEL", "info", LevelInfo},
		{"Warn via LOG_LEVEL", "LOG_LEVEL", "warn", LevelWarn},
		{"Warning alias", "LOG_LEVEL", "warning", LevelWarn},
		{"Error via LOG_LEVEL", "LOG_LEVEL", "error", LevelError},
		{"Case insensitive", "LOG_LEVEL", "ERROR", LevelError},
		{"Default is info", "LOG_LEVEL", "bogus", LevelInfo},
		{"DEBUG env wins", "DEBUG", "1", LevelDebug},
		{"DEBUG true", "DEBUG", "true", LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// initLevel runs once per process, so reset the guard per case.
			levelOnce = sync.Once{}
			t.Setenv(tt.envVar, tt.envValue)

			if got := GetLevel(); got != tt.expected {
				t.Errorf("GetLevel() = %v, want %v", got, tt.expected)
			}
		})
	}

	levelOnce = sync.Once{}
}

func TestIsDebugEnabled(t *testing.T) {
	levelOnce = sync.Once{}
	t.Setenv("LOG_LEVEL", "debug")
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled() = false with LOG_LEVEL=debug")
	}

	levelOnce = sync.Once{}
	t.Setenv("LOG_LEVEL", "info")
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true with LOG_LEVEL=info")
	}

	levelOnce = sync.Once{}
}
