package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ivm/pkg/version"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	// Test that it can log
	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestLoggerTimestampsOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogInfo)
	logger.Info("Downloading version 0.8.0")

	if !strings.HasPrefix(buf.String(), "INFO") {
		t.Errorf("info output should start with the level, got %q", buf.String())
	}

	buf.Reset()
	setLevel(logger, LogDebug)
	logger.Debug("acquired lock")

	if !timestamp.MatchString(buf.String()) {
		t.Errorf("debug output should start with a timestamp, got %q", buf.String())
	}
}

var (
	timestamp    = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)
	installedMsg = regexp.MustCompile(`Version 0\.8\.0 has been installed \(\d+(\.\d+)?m?s\)`)
)

func TestInstallTimer(t *testing.T) {
	var buf bytes.Buffer
	timer := startInstallTimer(newLogger(&buf, LogInfo))

	time.Sleep(10 * time.Millisecond)
	timer.done(version.New(0, 8, 0))

	if !installedMsg.MatchString(buf.String()) {
		t.Errorf("unexpected output %q", buf.String())
	}
}
