package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	})
	return &buf
}

func TestInfo_Success_Warn_Error_NoPanic(t *testing.T) {
	buf := captureOutput(t)

	Info("TAG", "message")
	Success("TAG", "message")
	Warn("TAG", "message")
	Error("TAG", "message")

	if got := strings.Count(buf.String(), "message"); got != 4 {
		t.Errorf("logged %d lines containing message, want 4", got)
	}
}

func TestDebug_HiddenAtInfo(t *testing.T) {
	buf := captureOutput(t)

	Debug("TICK", "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message written at info level")
	}

	SetLevel("debug")
	Debug("TICK", "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug message missing at debug level")
	}
}

func TestSetLevel_UnknownFallsBackToInfo(t *testing.T) {
	buf := captureOutput(t)

	SetLevel("chatty")
	Debug("X", "nope")
	Info("X", "yes")
	out := buf.String()
	if strings.Contains(out, "nope") || !strings.Contains(out, "yes") {
		t.Errorf("unexpected output after unknown level: %q", out)
	}
}

func TestBanner_NoPanic(t *testing.T) {
	buf := captureOutput(t)

	Banner("v1.0.0")
	Banner("")

	if !strings.Contains(buf.String(), "v1.0.0") {
		t.Error("banner missing version")
	}
	if !strings.Contains(buf.String(), "dev") {
		t.Error("empty version should render as dev")
	}
}

func TestSectionAndStats_NoPanic(t *testing.T) {
	buf := captureOutput(t)
	Section("Test")
	Stats("key", 42)
	if !strings.Contains(buf.String(), "Test") || !strings.Contains(buf.String(), "42") {
		t.Errorf("section/stats output = %q", buf.String())
	}
}
