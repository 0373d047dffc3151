package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_DebugWritesRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.With("component", "api").Debug("request", "method", "GET", "status", 200)

	line := buf.String()
	for _, want := range []string{"DEBUG", "request", "component=api", "method=GET", "status=200"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("expected trailing newline, got %q", line)
	}
}

func TestNew_NoDebugDiscards(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Error("boom")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestPrettyHandler_Group(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true).WithGroup("http")

	logger.Info("done", "status", 201)

	if !strings.Contains(buf.String(), "http.status=201") {
		t.Errorf("expected grouped key, got %q", buf.String())
	}
}
