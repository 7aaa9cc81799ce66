package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("toggled") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("toggled") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("toggled") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("toggled") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("wrote output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("read map.json")
	got := buf.String()
	if !strings.Contains(got, "read map.json (") || !strings.Contains(got, "s)") {
		t.Errorf("progress line = %q", got)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should give the default logger")
	}
	l := newLogger(&bytes.Buffer{}, log.DebugLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("logger not carried by the context")
	}
}
