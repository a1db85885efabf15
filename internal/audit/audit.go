package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// Action enumerates audited authentication events.
type Action string

const (
	ActionLogin               Action = "LOGIN"
	ActionLoginFailed         Action = "LOGIN_FAILED"
	ActionPinValidated        Action = "PIN_VALIDATED"
	ActionPinFailed           Action = "PIN_FAILED"
	ActionPinExpired          Action = "PIN_EXPIRED"
	ActionMaxAttemptsExceeded Action = "MAX_ATTEMPTS_EXCEEDED"
	ActionLogout              Action = "LOGOUT"
)

const (
	EntityOperator = "OPERATOR"
	EntitySession  = "SESSION"
	EntityPin      = "PIN"
)

// Event is one append-only audit entry. OperatorID is zero for failures
// that happen before the operator is known.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Action     Action            `json:"action"`
	OperatorID int64             `json:"operator_id,omitempty"`
	Username   string            `json:"username,omitempty"`
	EntityType string            `json:"entity_type,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Sink persists audit events. Errors are reported to the dispatcher, which
// logs and drops them.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Write(context.Context, Event) error { return nil }

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Write(ctx context.Context, event Event) error { return f(ctx, event) }

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Write(ctx context.Context, event Event) error {
	select {
	case s.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Write(ctx context.Context, event Event) error {
	if s == nil || s.writer == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.writer.Write(data)
	return err
}

// MultiSink fans every event out to all sinks and joins their errors.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
