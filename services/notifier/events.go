package notifier

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Critical events
	EventProviderDown     EventType = "provider_down"
	EventAllProvidersDown EventType = "all_providers_down"

	// Info events
	EventProviderRecovered EventType = "provider_recovered"
	EventServerStarted     EventType = "server_started"
)

// Severity represents the severity level of an event
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Event represents a system event
type Event struct {
	Type      EventType
	Severity  Severity
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, severity Severity, message string) *Event {
	return &Event{
		Type:      eventType,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithData adds data to the event (chainable)
func (e *Event) WithData(key string, value interface{}) *Event {
	e.Data[key] = value
	return e
}

// EventHandler is a function that handles events
type EventHandler func(event *Event)

// EventBus fans events out to subscribers. Handlers run on their own
// goroutines so a slow notifier never blocks the publisher.
type EventBus struct {
	handlers    map[EventType][]EventHandler
	allHandlers []EventHandler
	mu          sync.RWMutex
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]EventHandler)}
}

// Subscribe adds a handler for a specific event type
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll adds a handler that receives all events
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Publish sends an event to all subscribed handlers. A nil bus drops it.
func (b *EventBus) Publish(event *Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, handler := range b.handlers[event.Type] {
		go handler(event)
	}
	for _, handler := range b.allHandlers {
		go handler(event)
	}
}

// PublishProviderDown reports a provider whose circuit breaker opened
func (b *EventBus) PublishProviderDown(name string, failures int, cooldown time.Duration) {
	b.Publish(NewEvent(EventProviderDown, SeverityCritical,
		"Provider circuit breaker opened after consecutive failures").
		WithData("name", name).
		WithData("failures", failures).
		WithData("cooldown", cooldown.String()))
}

// PublishProviderRecovered reports a provider whose breaker closed again
func (b *EventBus) PublishProviderRecovered(name string) {
	b.Publish(NewEvent(EventProviderRecovered, SeverityInfo,
		"Provider circuit breaker closed").
		WithData("name", name))
}

// PublishAllProvidersDown reports that every provider is unavailable, so
// only cached lyrics can be served
func (b *EventBus) PublishAllProvidersDown(names []string) {
	b.Publish(NewEvent(EventAllProvidersDown, SeverityCritical,
		"All lyrics providers are unavailable").
		WithData("providers", names))
}

// PublishServerStarted reports a successful start
func (b *EventBus) PublishServerStarted(port string, providers []string) {
	b.Publish(NewEvent(EventServerStarted, SeverityInfo,
		"Server started successfully").
		WithData("port", port).
		WithData("providers", providers))
}
