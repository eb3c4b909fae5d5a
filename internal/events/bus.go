// Package events provides an in-process publish/subscribe bus used to fan
// out analysis results to interested listeners (SSE streams, workers).
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType identifies the category of an event on the bus.
type EventType string

const (
	EventTriggerFired      EventType = "trigger_fired"
	EventAnalysisComplete  EventType = "analysis_complete"
	EventHarvestScanDone   EventType = "harvest_scan_complete"
	EventScheduleGenerated EventType = "schedule_generated"
	EventBackupCompleted   EventType = "backup_completed"
)

// Event is a single message on the bus. Data payloads are the typed
// structs defined in event_data.go.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Bus fans events out to subscribers. Subscribers that fall behind have
// events dropped rather than blocking publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	bufferSize  int
	logger      zerolog.Logger
}

// NewBus creates an event bus with the given per-subscriber buffer size.
func NewBus(bufferSize int, logger zerolog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[string]chan Event),
		bufferSize:  bufferSize,
		logger:      logger.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its ID and channel.
// The channel is closed when Unsubscribe is called with the returned ID.
func (b *Bus) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	b.logger.Debug().Str("subscriber_id", id).Msg("Subscriber registered")
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	if ok {
		close(ch)
		b.logger.Debug().Str("subscriber_id", id).Msg("Subscriber removed")
	}
}

// Publish delivers an event to all current subscribers. Slow subscribers
// with full buffers are skipped.
func (b *Bus) Publish(eventType EventType, data interface{}) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Warn().
				Str("subscriber_id", id).
				Str("event_type", string(eventType)).
				Msg("Subscriber buffer full, event dropped")
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
