package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legendastv/internal/config"
	"legendastv/internal/media"
)

const userAgent = "legendastv/0.1.0"

// Event names a resolution milestone.
type Event string

const (
	EventSearchingTitles  Event = "searching_titles"
	EventReleaseFallback  Event = "release_fallback"
	EventTitleConfirmed   Event = "title_confirmed"
	EventDownloading      Event = "downloading"
	EventSubtitleSaved    Event = "subtitle_saved"
	EventSubtitleNotFound Event = "subtitle_not_found"
	EventBatchCompleted   Event = "batch_completed"
	EventError            Event = "error"
	EventTest             Event = "test"
)

// Payload carries the values rendered into an event message.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when a topic is
// configured, and a noop implementation otherwise.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	endpoint := topic
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		endpoint = strings.TrimRight(cfg.Notifications.NtfyServer, "/") + "/" + strings.TrimLeft(topic, "/")
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		progress: cfg.Notifications.Progress,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	progress bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled(event) {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventTest:
		return true
	case EventError:
		return n.errors
	default:
		return n.progress
	}
}

// render builds the ntfy message for event. Unknown events are dropped.
func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventSearchingTitles:
		return message{
			title: "Legendas.TV - Searching",
			body:  fmt.Sprintf("Searching titles for %s", SearchLabel(payload.String("title"), payload.Int("season"))),
			tags:  []string{"legendastv", "search"},
		}, true
	case EventReleaseFallback:
		body := fmt.Sprintf("Searching subtitles by release: %s", payload.String("release"))
		if reason := payload.String("reason"); reason != "" {
			body = fmt.Sprintf("%s (%s)", body, reason)
		}
		return message{
			title: "Legendas.TV - Release Search",
			body:  body,
			tags:  []string{"legendastv", "search", "fallback"},
		}, true
	case EventTitleConfirmed:
		label := payload.String("title")
		if year := payload.String("year"); year != "" {
			label = fmt.Sprintf("%s (%s)", label, year)
		}
		return message{
			title: "Legendas.TV - Title Found",
			body:  fmt.Sprintf("🎬 Title found: %s", label),
			tags:  []string{"legendastv", "title", "found"},
		}, true
	case EventDownloading:
		return message{
			title: "Legendas.TV - Downloading",
			body:  fmt.Sprintf("Downloading subtitle: %s", payload.String("release")),
			tags:  []string{"legendastv", "download"},
		}, true
	case EventSubtitleSaved:
		return message{
			title:    "Legendas.TV - Subtitle Saved",
			body:     fmt.Sprintf("✅ Subtitle saved: %s", payload.String("path")),
			tags:     []string{"legendastv", "subtitle", "saved"},
			priority: "high",
		}, true
	case EventSubtitleNotFound:
		return message{
			title: "Legendas.TV - No Subtitle",
			body:  fmt.Sprintf("No subtitle found for %s", payload.String("video")),
			tags:  []string{"legendastv", "subtitle", "missing"},
		}, true
	case EventBatchCompleted:
		duration := time.Duration(payload.Int("duration_seconds")) * time.Second
		body := fmt.Sprintf("Batch complete: %d subtitles saved in %s", payload.Int("resolved"), duration)
		title := "Legendas.TV - Batch Complete"
		if failed := payload.Int("failed"); failed > 0 {
			title = "Legendas.TV - Batch Complete (with errors)"
			body = fmt.Sprintf("Batch complete: %d saved, %d missing, %d failed in %s",
				payload.Int("resolved"), payload.Int("not_found"), failed, duration)
		}
		return message{title: title, body: body, tags: []string{"legendastv", "batch", "completed"}}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payload.String("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := payload.String("error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Legendas.TV - Error",
			body:     builder.String(),
			tags:     []string{"legendastv", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Legendas.TV - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"legendastv", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

// SearchLabel renders a title search subject, adding the season as an
// English ordinal ("Lost 2nd Season") when one is known.
func SearchLabel(title string, season int) string {
	title = strings.TrimSpace(title)
	if season <= 0 {
		return title
	}
	return fmt.Sprintf("%s %s Season", title, media.SeasonOrdinal(season))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

// String returns the payload value for key as trimmed text.
func (p Payload) String(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Int returns the payload value for key as an int, or 0.
func (p Payload) Int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
