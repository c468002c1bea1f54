package common

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

// testLogWriter funnels log records into testing.T.Log, so node output only
// surfaces when a test fails.
type testLogWriter struct {
	t testing.TB
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// NewTestLogger returns a debug-level logrus Logger writing through t.Log.
func NewTestLogger(t testing.TB) *logrus.Logger {
	logger := logrus.New()
	logger.Out = &testLogWriter{t: t}
	logger.Level = logrus.DebugLevel
	return logger
}
