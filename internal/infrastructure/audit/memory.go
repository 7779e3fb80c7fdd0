package audit

import (
	"context"
	"sync"

	"parish/internal/core/id"
	"parish/internal/domain"
)

// Recorder keeps emitted events in memory for inspection in tests.
type Recorder struct {
	mu     sync.RWMutex
	events []domain.AuditEvent
}

var _ domain.AuditEmitter = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (r *Recorder) Events() []domain.AuditEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.AuditEvent{}, r.events...)
}

// ByEntity returns events emitted for a specific record.
func (r *Recorder) ByEntity(entityID id.ID) []domain.AuditEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AuditEvent
	for _, ev := range r.events {
		if ev.EntityID == entityID {
			out = append(out, ev)
		}
	}
	return out
}
