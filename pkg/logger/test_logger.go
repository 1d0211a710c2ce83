package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger that echoes to the test output and keeps every
// entry for later assertions.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

func NewTestLogger(t testing.TB) *TestLogger {
	obsCore, observed := observer.New(zapcore.DebugLevel)
	testCore := zaptest.NewLogger(t, zaptest.Level(zapcore.DebugLevel)).Core()

	l := zap.New(zapcore.NewTee(testCore, obsCore)).Named(LoggerName)
	return &TestLogger{
		Logger:   &Logger{Logger: l},
		observed: observed,
	}
}

// GetLogs returns captured messages in order.
func (tl *TestLogger) GetLogs() []string {
	entries := tl.observed.All()
	logs := make([]string, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, e.Message)
	}
	return logs
}

// Entries returns captured entries including their structured fields.
func (tl *TestLogger) Entries() []observer.LoggedEntry {
	return tl.observed.All()
}
