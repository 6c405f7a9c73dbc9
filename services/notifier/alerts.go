package notifier

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"lyrics-sync-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	// Default cooldown between alerts of the same type
	DefaultAlertCooldown = 15 * time.Minute
)

// AlertHandler turns events into notifications. Repeats of the same event
// for the same provider are suppressed for the cooldown.
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[string]time.Time
	cooldownDuration time.Duration
	now              func() time.Time
	mu               sync.Mutex
}

// AlertConfig holds configuration for the alert handler
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
	Now              func() time.Time
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown == 0 {
		cooldown = DefaultAlertCooldown
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[string]time.Time),
		cooldownDuration: cooldown,
		now:              now,
	}
}

// Start subscribes the handler to bus
func (h *AlertHandler) Start(bus *EventBus) {
	bus.SubscribeAll(h.HandleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotifier, h.cooldownDuration, len(h.notifiers))
}

// HandleEvent formats event and sends it unless it is cooling down
func (h *AlertHandler) HandleEvent(event *Event) {
	subject, message := formatAlert(event)
	if subject == "" {
		return
	}

	if !h.shouldAlert(cooldownKey(event)) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotifier, event.Type)
		return
	}

	h.sendAlert(subject, message)
}

func cooldownKey(event *Event) string {
	if name, ok := event.Data["name"].(string); ok {
		return string(event.Type) + ":" + name
	}
	return string(event.Type)
}

func (h *AlertHandler) shouldAlert(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	last, exists := h.cooldowns[key]
	if !exists || now.Sub(last) >= h.cooldownDuration {
		h.cooldowns[key] = now
		return true
	}
	return false
}

// ResetCooldowns lets every event alert again immediately
func (h *AlertHandler) ResetCooldowns() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cooldowns = make(map[string]time.Time)
}

func formatAlert(event *Event) (subject, message string) {
	switch event.Type {
	case EventProviderDown:
		name, _ := event.Data["name"].(string)
		failures, _ := event.Data["failures"].(int)
		cooldown, _ := event.Data["cooldown"].(string)
		subject = fmt.Sprintf("Provider %s DOWN", name)
		message = fmt.Sprintf(
			"The %s circuit breaker tripped after %d consecutive failures.\n\n"+
				"It will be skipped for %s. Other providers keep serving lyrics.",
			name, failures, cooldown)

	case EventAllProvidersDown:
		names := getStringSlice(event.Data, "providers")
		subject = "All Providers DOWN"
		message = fmt.Sprintf(
			"Every lyrics provider is unavailable: %s.\n\n"+
				"Only cached lyrics can be served until a breaker closes.",
			strings.Join(names, ", "))

	case EventProviderRecovered:
		name, _ := event.Data["name"].(string)
		subject = fmt.Sprintf("Provider %s recovered", name)
		message = fmt.Sprintf("The %s circuit breaker closed and requests are flowing again.", name)

	case EventServerStarted:
		port, _ := event.Data["port"].(string)
		names := getStringSlice(event.Data, "providers")
		subject = "Server started"
		message = fmt.Sprintf("Listening on port %s with providers: %s", port, strings.Join(names, ", "))

	default:
		return "", ""
	}

	switch event.Severity {
	case SeverityCritical:
		subject = "🚨 " + subject
	case SeverityWarning:
		subject = "⚠️ " + subject
	case SeverityInfo:
		subject = "ℹ️ " + subject
	}
	return subject, message
}

func (h *AlertHandler) sendAlert(subject, message string) {
	if len(h.notifiers) == 0 {
		log.Warnf("%s No notifiers configured, skipping alert: %s", logcolors.LogNotifier, subject)
		return
	}

	log.Infof("%s Sending alert: %s", logcolors.LogNotifier, subject)

	successCount := 0
	for _, n := range h.notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Errorf("%s Failed to send alert via %s: %v", logcolors.LogNotifier, Name(n), err)
		} else {
			successCount++
		}
	}

	if successCount > 0 {
		log.Infof("%s Alert sent via %d/%d notifiers", logcolors.LogNotifier, successCount, len(h.notifiers))
	}
}

func getStringSlice(data map[string]interface{}, key string) []string {
	if val, ok := data[key].([]string); ok {
		return val
	}
	return nil
}
