package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNameToLevel(t *testing.T) {
	tests := []struct {
		name  string
		want  Level
		valid bool
	}{
		{"disabled", LevelDisabled, true},
		{"error", LevelError, true},
		{"warn", LevelWarn, true},
		{"info", LevelInfo, true},
		{"debug", LevelDebug, true},
		{"trace", LevelTrace, true},
		{"bogus", LevelDisabled, false},
	}
	for _, test := range tests {
		got, ok := NameToLevel(test.name)
		if got != test.want || ok != test.valid {
			t.Errorf("NameToLevel(%q) = (%v, %v), want (%v, %v)", test.name, got, ok, test.want, test.valid)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelInfo.String() != "info" {
		t.Errorf("LevelInfo.String() = %q, want info", LevelInfo.String())
	}
	if Level(99).String() != "unknown" {
		t.Errorf("Level(99).String() = %q, want unknown", Level(99).String())
	}
}

func TestLoggerGatesByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn, &buf)

	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Errorf("Info logged at LevelWarn: %q", buf.String())
	}

	logger.Warnf("disk at %d%%", 90)
	if !strings.Contains(buf.String(), "disk at 90%") {
		t.Errorf("Warnf output = %q, want it to contain the formatted message", buf.String())
	}
}

func TestNilLoggerIsSilentAndSafe(t *testing.T) {
	var logger *Logger
	logger.Info("nothing should panic")
	logger.Warnf("still nothing: %d", 1)
}

func TestSubloggerInheritsLevelAndNestsPrefix(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(LevelInfo, &buf)
	child := root.Sublogger("engine")
	grandchild := child.Sublogger("store")

	grandchild.Info("hello")
	out := buf.String()
	if !strings.Contains(out, "[engine.store] hello") {
		t.Errorf("Sublogger output = %q, want it to contain [engine.store] hello", out)
	}
}

func TestRootLoggerIsDisabledByDefault(t *testing.T) {
	if RootLogger.enabled(LevelError) {
		t.Error("RootLogger should not have any level enabled")
	}
}

func TestDebugWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelDebug, &buf)
	w := logger.DebugWriter()

	if _, err := w.Write([]byte("first\nsecond\nthird")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("DebugWriter output = %q, want it to contain both complete lines", out)
	}
	if strings.Contains(out, "third") {
		t.Error("DebugWriter should not have flushed the unterminated fragment yet")
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "third") {
		t.Error("DebugWriter should flush the trailing fragment once its newline arrives")
	}
}

func TestDebugWriterDiscardedWhenLevelTooLow(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo, &buf)
	w := logger.DebugWriter()
	if _, err := w.Write([]byte("ignored\n")); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected DebugWriter to discard output below LevelDebug, got %q", buf.String())
	}
}
