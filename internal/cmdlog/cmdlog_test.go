package cmdlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"coinit/internal/logging"
)

func TestRunLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)

	if err := Run("check", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := Run("once", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped command error, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "check_ok") || !strings.Contains(out, "once_error") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
