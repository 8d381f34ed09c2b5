package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	Get().Info(context.Background(), "hello", String("k", "v"), Bool("ok", true))
	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "k=v") || !strings.Contains(out, "ok=true") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "source=") || !strings.Contains(out, "logger_test.go") {
		t.Errorf("expected caller source in output: %q", out)
	}
}

func TestLoggerJSONAndNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithJSON(true)); err != nil {
		t.Fatalf("init: %v", err)
	}

	Named("worker").Warn(context.Background(), "slow",
		Int("n", 3), Float64("score", 91.5), Duration("took", time.Second), Any("ids", []string{"a"}), Error(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if rec["level"] != "WARN" || rec["msg"] != "slow" {
		t.Errorf("unexpected record: %v", rec)
	}
	group, ok := rec["worker"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields grouped under logger name: %v", rec)
	}
	if group["n"] != float64(3) || group["error"] != "boom" {
		t.Errorf("unexpected group: %v", group)
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("init: %v", err)
	}
	ctx := context.Background()

	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level: %q", buf.String())
	}

	for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("level %q: %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug should pass at debug level: %q", buf.String())
	}
	if Slog() == nil {
		t.Error("expected underlying slog logger")
	}
}
