package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// InMemoryJournal keeps events in process memory.
// Subscribers are notified synchronously on the appending goroutine.
type InMemoryJournal struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	allEvents   []Event
	mutex       sync.RWMutex
	notifyMutex sync.Mutex
	now         func() time.Time
	logger      *zap.Logger
}

func NewInMemoryJournal(logger *zap.Logger) *InMemoryJournal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryJournal{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		now:         time.Now,
		logger:      logger,
	}
}

var _ Journal = (*InMemoryJournal)(nil)

func (j *InMemoryJournal) Append(streamID string, event Event) (Event, error) {
	j.mutex.Lock()
	stored := record{
		EventType:     event.Type(),
		Stream:        streamID,
		EventData:     event.Data(),
		RecordedAt:    event.Timestamp(),
		StreamVersion: len(j.streams[streamID]) + 1,
		Sequence:      len(j.allEvents),
	}
	if stored.RecordedAt.IsZero() {
		stored.RecordedAt = j.now()
	}
	j.streams[streamID] = append(j.streams[streamID], stored)
	j.allEvents = append(j.allEvents, stored)
	handlers := append([]EventHandler(nil), j.subscribers[stored.EventType]...)
	j.mutex.Unlock()

	j.notify(handlers, stored)
	return stored, nil
}

func (j *InMemoryJournal) ReadStream(streamID string, fromVersion int) ([]Event, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	stream, exists := j.streams[streamID]
	if !exists {
		return []Event{}, nil
	}
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(stream) {
		return []Event{}, nil
	}
	return append([]Event(nil), stream[fromVersion-1:]...), nil
}

func (j *InMemoryJournal) ReadAll(fromPosition int) ([]Event, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(j.allEvents) {
		return []Event{}, nil
	}
	return append([]Event(nil), j.allEvents[fromPosition:]...), nil
}

func (j *InMemoryJournal) Subscribe(eventTypes []string, handler EventHandler) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	for _, eventType := range eventTypes {
		j.subscribers[eventType] = append(j.subscribers[eventType], handler)
	}
	return nil
}

// Len returns the number of events in the journal
func (j *InMemoryJournal) Len() int {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	return len(j.allEvents)
}

func (j *InMemoryJournal) notify(handlers []EventHandler, event Event) {
	j.notifyMutex.Lock()
	defer j.notifyMutex.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(event.Type()) {
			continue
		}
		if err := h.Handle(event); err != nil {
			j.logger.Warn("event handler failed",
				zap.String("type", event.Type()),
				zap.String("stream", event.StreamID()),
				zap.Error(err))
		}
	}
}
