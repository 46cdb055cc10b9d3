package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tether/internal/config"
)

const userAgent = "Tether/0.1.0"

// Service defines the notification surface exposed to the batch workflow.
type Service interface {
	NotifyRunStarted(ctx context.Context, sessionCount int) error
	NotifyRunCompleted(ctx context.Context, completed, failed, skipped int, duration time.Duration) error
	NotifySessionFailed(ctx context.Context, sessionLabel string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		runEvents:     cfg.Notifications.RunComplete,
		failureEvents: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	runEvents     bool
	failureEvents bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, sessionCount int) error {
	if !n.runEvents {
		return nil
	}
	data := payload{
		title:   "Tether - Run Started",
		message: fmt.Sprintf("Started converting %d queued sessions", sessionCount),
		tags:    []string{"tether", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, completed, failed, skipped int, duration time.Duration) error {
	if !n.runEvents {
		return nil
	}

	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Tether - Run Complete"
		message = fmt.Sprintf("✅ Run complete: %d converted, %d skipped in %s", completed, skipped, durationText)
	} else {
		title = "Tether - Run Complete (with errors)"
		message = fmt.Sprintf("Run complete: %d converted, %d failed, %d skipped in %s", completed, failed, skipped, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"tether", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionFailed(ctx context.Context, sessionLabel string, err error) error {
	if !n.failureEvents {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("❌ Session failed")
	if sessionLabel = strings.TrimSpace(sessionLabel); sessionLabel != "" {
		builder.WriteString(": ")
		builder.WriteString(sessionLabel)
	}
	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(err.Error()))
	}

	data := payload{
		title:    "Tether - Session Failed",
		message:  builder.String(),
		tags:     []string{"tether", "session", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Tether - Test",
		message:  "Notification system test",
		tags:     []string{"tether", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int) error { return nil }

func (noopService) NotifyRunCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}

func (noopService) NotifySessionFailed(context.Context, string, error) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
