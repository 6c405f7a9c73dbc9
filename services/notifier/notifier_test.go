package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	messages []string
	err      error
}

func (r *recordingNotifier) Send(subject, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, message)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subjects)
}

func TestNtfyNotifier_Send(t *testing.T) {
	var gotPath, gotTitle, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	n := &NtfyNotifier{Topic: "lyrics-alerts", Server: srv.URL}
	if err := n.Send("Provider down", "details"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if gotPath != "/lyrics-alerts" || gotTitle != "Provider down" || gotBody != "details" {
		t.Errorf("Unexpected request: path=%q title=%q body=%q", gotPath, gotTitle, gotBody)
	}
}

func TestNtfyNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := &NtfyNotifier{Topic: "x", Server: srv.URL}
	if err := n.Send("s", "m"); err == nil {
		t.Error("Expected error for 403")
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var gotPath string
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer srv.Close()

	n := &TelegramNotifier{BotToken: "TOKEN", ChatID: "42", APIBase: srv.URL}
	if err := n.Send("Subject", "Body"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if payload["chat_id"] != "42" || payload["text"] != "*Subject*\n\nBody" {
		t.Errorf("Unexpected payload %v", payload)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		n    Notifier
		want string
	}{
		{&EmailNotifier{}, "email"},
		{&TelegramNotifier{}, "telegram"},
		{&NtfyNotifier{}, "ntfy"},
		{&recordingNotifier{}, "unknown"},
	}
	for _, tt := range tests {
		if got := Name(tt.n); got != tt.want {
			t.Errorf("Name(%T) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestAlertHandler_Cooldown(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &recordingNotifier{}
	h := NewAlertHandler(AlertConfig{
		Notifiers:        []Notifier{rec},
		CooldownDuration: time.Minute,
		Now:              func() time.Time { return now },
	})

	down := func(name string) *Event {
		return NewEvent(EventProviderDown, SeverityCritical, "").
			WithData("name", name).
			WithData("failures", 5).
			WithData("cooldown", "5m0s")
	}

	h.HandleEvent(down("lrclib"))
	h.HandleEvent(down("lrclib"))
	if rec.count() != 1 {
		t.Fatalf("Expected the repeat to be suppressed, got %d alerts", rec.count())
	}

	h.HandleEvent(down("netease"))
	if rec.count() != 2 {
		t.Errorf("Expected a different provider to alert independently, got %d alerts", rec.count())
	}

	now = now.Add(time.Minute)
	h.HandleEvent(down("lrclib"))
	if rec.count() != 3 {
		t.Errorf("Expected an alert after the cooldown, got %d alerts", rec.count())
	}

	h.ResetCooldowns()
	h.HandleEvent(down("lrclib"))
	if rec.count() != 4 {
		t.Errorf("Expected an alert after ResetCooldowns, got %d alerts", rec.count())
	}

	if !strings.Contains(rec.subjects[0], "lrclib") || !strings.Contains(rec.messages[0], "5 consecutive failures") {
		t.Errorf("Unexpected alert text: %q / %q", rec.subjects[0], rec.messages[0])
	}
}

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		name        string
		event       *Event
		wantSubject string
		wantMessage string
	}{
		{
			name:        "All providers down",
			event:       NewEvent(EventAllProvidersDown, SeverityCritical, "").WithData("providers", []string{"a", "b"}),
			wantSubject: "🚨 All Providers DOWN",
			wantMessage: "a, b",
		},
		{
			name:        "Recovered",
			event:       NewEvent(EventProviderRecovered, SeverityInfo, "").WithData("name", "kugou"),
			wantSubject: "ℹ️ Provider kugou recovered",
			wantMessage: "kugou circuit breaker closed",
		},
		{
			name:        "Server started",
			event:       NewEvent(EventServerStarted, SeverityInfo, "").WithData("port", "8080").WithData("providers", []string{"lrclib"}),
			wantSubject: "ℹ️ Server started",
			wantMessage: "port 8080",
		},
		{
			name:  "Unknown event",
			event: NewEvent("something_else", SeverityInfo, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, message := formatAlert(tt.event)
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if !strings.Contains(message, tt.wantMessage) {
				t.Errorf("message %q does not contain %q", message, tt.wantMessage)
			}
		})
	}
}

func TestEventBus_Publish(t *testing.T) {
	bus := NewEventBus()
	specific := make(chan *Event, 1)
	all := make(chan *Event, 2)
	bus.Subscribe(EventProviderDown, func(e *Event) { specific <- e })
	bus.SubscribeAll(func(e *Event) { all <- e })

	bus.PublishProviderRecovered("lrclib")
	bus.PublishProviderDown("lrclib", 3, time.Minute)

	select {
	case e := <-specific:
		if e.Type != EventProviderDown || e.Data["failures"] != 3 {
			t.Errorf("Unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for the typed subscriber")
	}

	for i := 0; i < 2; i++ {
		select {
		case <-all:
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for event %d on SubscribeAll", i+1)
		}
	}
}

func TestEventBus_NilIsNoop(t *testing.T) {
	var bus *EventBus
	bus.PublishServerStarted("8080", nil)
}
