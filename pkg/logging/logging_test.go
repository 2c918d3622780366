package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.InfoLevel, false},
		{"trace", zerolog.TraceLevel, true},
		{" DEBUG ", zerolog.DebugLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		raw    string
		want   bool
		wantOK bool
	}{
		{"", false, false},
		{"1", true, true},
		{"false", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		got, ok := parseBool(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseBool(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDefaultConfigProfiles(t *testing.T) {
	if cfg := defaultConfig(ProfileTest); cfg.Level != zerolog.DebugLevel || cfg.Timestamp {
		t.Errorf("test profile = %+v, want debug without timestamps", cfg)
	}
	if cfg := defaultConfig(ProfileRuntime); cfg.Level != zerolog.InfoLevel || !cfg.Timestamp {
		t.Errorf("runtime profile = %+v, want info with timestamps", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "true")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel || cfg.Timestamp || !cfg.NoColor {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestNewFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: zerolog.WarnLevel, NoColor: true, Out: &buf})
	l.Info().Msg("hidden")
	l.Warn().Str("port", "/dev/ttyUSB0").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "port=/dev/ttyUSB0") {
		t.Errorf("warn message missing: %q", out)
	}
}
