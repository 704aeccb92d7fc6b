package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerNilHandlers(t *testing.T) {
	h := newFanoutHandler(nil, nil)
	if _, ok := h.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler for all nil handlers, got %T", h)
	}
}

func TestNewFanoutHandlerFiltersNil(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)

	h := newFanoutHandler(nil, inner, nil)
	if h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var warnBuf, debugBuf bytes.Buffer
	warnOnly := slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	everything := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(newFanoutHandler(warnOnly, everything))
	logger.Debug("polling hub")
	logger.Warn("hub not reachable")

	if strings.Contains(warnBuf.String(), "polling hub") {
		t.Fatalf("warn handler received debug record: %s", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "hub not reachable") {
		t.Fatalf("warn handler missed warning: %s", warnBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "polling hub") || !strings.Contains(debugBuf.String(), "hub not reachable") {
		t.Fatalf("debug handler missed records: %s", debugBuf.String())
	}
}

func TestFanoutHandlerWithAttrsPropagates(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	logger := slog.New(h).With(String(FieldRunID, "run-1"))
	logger.Info("checked")

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), `"run_id":"run-1"`) {
			t.Fatalf("%s handler missing run_id: %s", name, buf.String())
		}
	}

	if err := h.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "direct", 0)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
}
