// Package audit publishes portal actions as events.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	EventLogin          = "user_logged_in"
	EventRegister       = "user_registered"
	EventLogout         = "user_logged_out"
	EventQuotaUpdated   = "quota_updated"
	EventStatusUpdated  = "request_status_updated"
	EventRequestCreated = "request_submitted"
	EventRequestUpdated = "request_updated"
	EventRequestDeleted = "request_deleted"
)

type Event struct {
	Type    string    `json:"type"`
	Actor   string    `json:"actor"`
	Subject string    `json:"subject,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
	return nil
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *Recorder) Close() error { return nil }

// Emit stamps and publishes ev. Failures are logged, never returned.
func Emit(ctx context.Context, p Publisher, l *slog.Logger, ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		l.Warn("audit_publish_failed", "type", ev.Type, "error", err)
	}
}
