package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/feedback-pulse/internal/datatypes"
	"github.com/formbricks/feedback-pulse/internal/observability"
)

const (
	// eventChanBufferSize bounds queued events; when full, new events are dropped and counted.
	eventChanBufferSize = 1024
	fanOutTimeout       = 10 * time.Second
)

// Event is an in-process notification that something happened to a feedback record.
type Event struct {
	ID        uuid.UUID
	Type      datatypes.EventType
	Timestamp time.Time
	Data      any
}

// MessagePublisher publishes events to background providers without blocking the caller.
type MessagePublisher interface {
	PublishEvent(ctx context.Context, eventType datatypes.EventType, data any)
}

// eventPublisher is implemented by providers that receive a full Event.
type eventPublisher interface {
	PublishEvent(ctx context.Context, event Event)
}

// MessagePublisherManager fans each event out to every registered provider on a single goroutine.
type MessagePublisherManager struct {
	eventChan chan Event
	providers []eventPublisher
	metrics   observability.EventMetrics
	wg        sync.WaitGroup
}

// NewMessagePublisherManager starts the fan-out goroutine. metrics may be nil.
func NewMessagePublisherManager(metrics observability.EventMetrics) *MessagePublisherManager {
	m := &MessagePublisherManager{
		eventChan: make(chan Event, eventChanBufferSize),
		metrics:   metrics,
	}

	m.wg.Add(1)

	go m.run()

	return m
}

// RegisterProvider adds a provider. Must be called before the first PublishEvent.
func (m *MessagePublisherManager) RegisterProvider(provider eventPublisher) {
	m.providers = append(m.providers, provider)
}

// PublishEvent queues an event. It never blocks; a full queue drops the event.
func (m *MessagePublisherManager) PublishEvent(ctx context.Context, eventType datatypes.EventType, data any) {
	event := Event{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	select {
	case m.eventChan <- event:
		if m.metrics != nil {
			m.metrics.SetChannelDepth(len(m.eventChan))
		}
	default:
		if m.metrics != nil {
			m.metrics.RecordEventDiscarded(ctx, eventType.String())
		}

		slog.WarnContext(ctx, "event channel full, event dropped", "event_id", event.ID, "event_type", eventType.String())
	}
}

func (m *MessagePublisherManager) run() {
	defer m.wg.Done()

	for event := range m.eventChan {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), fanOutTimeout)

		for _, provider := range m.providers {
			provider.PublishEvent(ctx, event)
		}

		cancel()

		if m.metrics != nil {
			m.metrics.RecordFanOutDuration(ctx, time.Since(start), event.Type.String())
			m.metrics.SetChannelDepth(len(m.eventChan))
		}
	}
}

// Shutdown stops accepting events and waits until queued events are delivered.
func (m *MessagePublisherManager) Shutdown() {
	close(m.eventChan)
	m.wg.Wait()
}
