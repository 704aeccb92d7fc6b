package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hbstatus/internal/config"
	"hbstatus/internal/logging"
)

const userAgent = "hbstatus/0.1.0"

// Request is one notification to deliver.
type Request struct {
	Title        string
	Body         string
	ActionLabel  string
	ActionTarget string
	// Sound is a notification sound name; empty means silent.
	Sound string
}

// Dispatcher delivers notification requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) error
	Name() string
}

// Envelope returns a request carrying the configured title, action, and sound.
// Callers fill in Body.
func Envelope(cfg *config.Config) Request {
	return Request{
		Title:        cfg.Notifications.Title,
		ActionLabel:  cfg.Notifications.ActionText,
		ActionTarget: cfg.ActionTarget(),
		Sound:        cfg.Notifications.Sound,
	}
}

// NewDispatcher builds a dispatcher backed by ntfy when configured.
// When no ntfy topic is configured, alerts are written to the log instead.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) Dispatcher {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return &logDispatcher{logger: logging.NewComponentLogger(logger, "notifications")}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyDispatcher{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Test sends a fixed request through d so users can verify delivery.
func Test(ctx context.Context, d Dispatcher, envelope Request) error {
	req := envelope
	req.Body = "🧪 hbstatus notification test"
	return d.Dispatch(ctx, req)
}

type ntfyDispatcher struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyDispatcher) Name() string { return "ntfy" }

func (n *ntfyDispatcher) Dispatch(ctx context.Context, data Request) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.Title != "" {
		req.Header.Set("Title", data.Title)
	}
	if action := actionHeader(data); action != "" {
		req.Header.Set("Actions", action)
	}
	req.Header.Set("Tags", strings.Join(tagsFor(data), ","))
	if priority := priorityFor(data.Sound); priority != "default" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func actionHeader(data Request) string {
	if data.ActionTarget == "" {
		return ""
	}
	label := data.ActionLabel
	if label == "" {
		label = "Open"
	}
	// ntfy separates action fields with commas.
	label = strings.ReplaceAll(label, ",", " ")
	return fmt.Sprintf("view, %s, %s", label, data.ActionTarget)
}

func tagsFor(data Request) []string {
	tags := []string{"hbstatus"}
	if data.Sound != "" {
		tags = append(tags, data.Sound)
	}
	return tags
}

func priorityFor(sound string) string {
	switch sound {
	case "":
		return "low"
	case "failure", "alert", "piano_error":
		return "high"
	default:
		return "default"
	}
}

type logDispatcher struct {
	logger *slog.Logger
}

func (l *logDispatcher) Name() string { return "log" }

func (l *logDispatcher) Dispatch(ctx context.Context, data Request) error {
	logging.WithContext(ctx, l.logger).Info("notification",
		logging.String(logging.FieldEventType, "notification_logged"),
		logging.String("title", data.Title),
		logging.String("body", data.Body),
		logging.String("action", data.ActionTarget),
		logging.String("sound", data.Sound))
	return nil
}

type noopDispatcher struct{}

// Noop returns a dispatcher that drops every request.
func Noop() Dispatcher { return noopDispatcher{} }

func (noopDispatcher) Name() string                            { return "noop" }
func (noopDispatcher) Dispatch(context.Context, Request) error { return nil }
