// Package audit provides Audit Emitter implementations: a logging
// emitter, an in-memory recorder for tests, and a PostgreSQL emitter
// that persists entries with compressed payloads.
package audit

import (
	"context"

	"parish/internal/domain"
	"parish/pkg/logger"
)

// LogEmitter writes every audit event to the structured log. Suitable
// where an external audit pipeline tails the log stream.
type LogEmitter struct {
	log *logger.Logger
}

var _ domain.AuditEmitter = (*LogEmitter)(nil)

// NewLogEmitter creates a logging emitter.
func NewLogEmitter(log *logger.Logger) *LogEmitter {
	return &LogEmitter{log: log.WithComponent("audit")}
}

func (e *LogEmitter) Emit(ctx context.Context, event domain.AuditEvent) error {
	e.log.WithContext(ctx).Infow("audit",
		"actor_id", event.ActorID,
		"entity_type", event.EntityType,
		"entity_id", event.EntityID.String(),
		"action", event.Action,
		"before_status", event.BeforeStatus,
		"after_status", event.AfterStatus,
		"at", event.At,
	)
	return nil
}
