package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"loupe/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerPullsJobAndStageForward(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("frames extracted",
		String(FieldJobID, "a1b2c3d4e5f6"),
		String(FieldStage, "extracting frames"),
		Int("frames", 240),
	)

	line := buf.String()
	if !strings.Contains(line, "a1b2c3d4") {
		t.Fatalf("expected shortened job id in output: %q", line)
	}
	if !strings.Contains(line, "[extracting frames]") {
		t.Fatalf("expected stage marker in output: %q", line)
	}
	if !strings.Contains(line, "frames=240") {
		t.Fatalf("expected remaining attrs in output: %q", line)
	}
}

func TestWithContextStampsFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, lvl))

	ctx := services.WithJobID(context.Background(), "deadbeef")
	ctx = services.WithStage(ctx, "encoding video")
	WithContext(ctx, base).Info("pass 1 complete")

	line := buf.String()
	if !strings.Contains(line, "deadbeef") || !strings.Contains(line, "[encoding video]") {
		t.Fatalf("expected context fields in output: %q", line)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
