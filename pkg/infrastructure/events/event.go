package events

import (
	"time"
)

type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
	Position() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// Journal is an append-only log of projection events, one stream per reference
type Journal interface {
	Append(streamID string, event Event) (Event, error)
	ReadStream(streamID string, fromVersion int) ([]Event, error)
	ReadAll(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
}

type record struct {
	EventType     string      `json:"type"`
	Stream        string      `json:"stream"`
	EventData     interface{} `json:"data"`
	RecordedAt    time.Time   `json:"recorded_at"`
	StreamVersion int         `json:"version"`
	Sequence      int         `json:"position"`
}

func (r record) Type() string         { return r.EventType }
func (r record) StreamID() string     { return r.Stream }
func (r record) Data() interface{}    { return r.EventData }
func (r record) Timestamp() time.Time { return r.RecordedAt }
func (r record) Version() int         { return r.StreamVersion }
func (r record) Position() int        { return r.Sequence }

// NewEvent builds an unsequenced event; the journal assigns version and position on append
func NewEvent(eventType, streamID string, data interface{}) Event {
	return record{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
	}
}

// HandlerFunc adapts a function to EventHandler for the given event types
type HandlerFunc struct {
	Types []string
	Fn    func(Event) error
}

func (h HandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

func (h HandlerFunc) CanHandle(eventType string) bool {
	if len(h.Types) == 0 {
		return true
	}
	for _, t := range h.Types {
		if t == eventType {
			return true
		}
	}
	return false
}
