package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tether/internal/notifications"
	"tether/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.NotifyRunStarted(context.Background(), 10); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsMessages(t *testing.T) {
	tests := []struct {
		name           string
		publish        func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "run started",
			publish: func(svc notifications.Service) error {
				return svc.NotifyRunStarted(context.Background(), 42)
			},
			expectTitle:   "Tether - Run Started",
			expectMessage: "Started converting 42 queued sessions",
			expectTags:    "tether,run,started",
		},
		{
			name: "run completed clean",
			publish: func(svc notifications.Service) error {
				return svc.NotifyRunCompleted(context.Background(), 40, 0, 2, 90*time.Second)
			},
			expectTitle:   "Tether - Run Complete",
			expectMessage: "✅ Run complete: 40 converted, 2 skipped in 1m30s",
			expectTags:    "tether,run,completed",
		},
		{
			name: "run completed with failures",
			publish: func(svc notifications.Service) error {
				return svc.NotifyRunCompleted(context.Background(), 38, 3, 1, time.Minute)
			},
			expectTitle:   "Tether - Run Complete (with errors)",
			expectMessage: "Run complete: 38 converted, 3 failed, 1 skipped in 1m0s",
			expectTags:    "tether,run,completed",
		},
		{
			name: "session failed",
			publish: func(svc notifications.Service) error {
				return svc.NotifySessionFailed(context.Background(), "FP/PR/95.259 04/18/19", errors.New("session not found"))
			},
			expectTitle:    "Tether - Session Failed",
			expectMessage:  "❌ Session failed: FP/PR/95.259 04/18/19\nsession not found",
			expectTags:     "tether,session,error",
			expectPriority: "high",
		},
		{
			name: "test notification",
			publish: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Tether - Test",
			expectMessage:  "Notification system test",
			expectTags:     "tether,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))

			svc := notifications.NewService(cfg)
			if err := tc.publish(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSuppressesGatedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	cfg.Notifications.RunComplete = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(cfg)
	if err := svc.NotifyRunStarted(context.Background(), 5); err != nil {
		t.Fatalf("expected suppressed run start to return nil, got %v", err)
	}
	if err := svc.NotifyRunCompleted(context.Background(), 5, 0, 0, time.Second); err != nil {
		t.Fatalf("expected suppressed run complete to return nil, got %v", err)
	}
	if err := svc.NotifySessionFailed(context.Background(), "label", errors.New("boom")); err != nil {
		t.Fatalf("expected suppressed failure to return nil, got %v", err)
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))

	svc := notifications.NewService(cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
