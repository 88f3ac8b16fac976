package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponentReplacesField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentHTTP}).With(FieldRequestID, "abc")

	logger.WithComponent(ComponentBets).Info("saved")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("expected exactly one component field, got %q", out)
	}
	if !strings.Contains(out, "component=bets") || !strings.Contains(out, "request_id=abc") {
		t.Fatalf("unexpected record %q", out)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentTrades})
	ctx := NewContext(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatal("FromContext did not return the stored logger")
	}
	if got := FromContext(context.Background()); got == nil || got.Component() != ComponentApp {
		t.Fatalf("fallback logger = %+v", got)
	}

	LogError(ctx, "delete failed", errors.New("boom"), ComponentStorage, OpDelete, NewFields().WithRecord("trade", 9))
	out := buf.String()
	for _, want := range []string{"level=ERROR", "component=storage", "error=boom", "operation=delete", "record_id=9"} {
		if !strings.Contains(out, want) {
			t.Errorf("record %q is missing %q", out, want)
		}
	}
}
