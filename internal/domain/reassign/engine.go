// Package reassign repoints dependent records at a replacement target
// so their referenced parent can be archived.
package reassign

import (
	"context"
	"time"

	"parish/internal/core/apperror"
	"parish/internal/core/entity"
	"parish/internal/core/id"
	"parish/internal/domain"
	"parish/internal/domain/dependency"
	"parish/pkg/logger"
)

// Engine validates a replacement target and applies it to each
// dependent. Reassignment updates the foreign key and bumps the
// version; it never changes the dependent's status.
type Engine struct {
	store domain.Store
	audit domain.AuditEmitter
}

// NewEngine creates a reassignment engine.
func NewEngine(store domain.Store, audit domain.AuditEmitter) *Engine {
	return &Engine{store: store, audit: audit}
}

// Reassign points the relation of every dependent at replacementID and
// returns the number of updated records.
//
// The replacement must be active, of the same type as the record being
// deleted, and not the record being deleted itself.
func (e *Engine) Reassign(ctx context.Context, deps []dependency.Ref, rel entity.Relation, original *entity.Record, replacementID id.ID, actor string) (int, error) {
	if id.IsNil(replacementID) {
		return 0, apperror.NewValidation("replacement target id is required")
	}
	if replacementID == original.ID {
		return 0, apperror.NewValidation("replacement target must be different from the record being deleted").
			WithDetail("id", original.ID.String())
	}

	replacement, err := e.store.Get(ctx, replacementID)
	if err != nil {
		return 0, err
	}
	if replacement.Type != original.Type {
		return 0, apperror.NewValidation("replacement target has wrong type").
			WithDetail("expected", string(original.Type)).
			WithDetail("got", string(replacement.Type))
	}
	if !replacement.IsActive() {
		// a deleted record is never a valid target of a new reference
		return 0, apperror.NewNotActive(string(replacement.Type), replacement.ID.String(), string(replacement.Status))
	}

	count := 0
	for _, ref := range deps {
		dep, err := e.store.Get(ctx, ref.ID)
		if err != nil {
			return count, err
		}
		dep.SetForeignKey(rel, replacementID)
		if err := e.store.Save(ctx, dep, dep.Version); err != nil {
			return count, err
		}
		count++

		if err := e.audit.Emit(ctx, domain.AuditEvent{
			ActorID:      actor,
			EntityType:   dep.Type,
			EntityID:     dep.ID,
			Action:       domain.AuditActionReassign,
			BeforeStatus: dep.Status,
			AfterStatus:  dep.Status,
			At:           time.Now().UTC(),
			Details: map[string]string{
				"relation": string(rel),
				"from":     original.ID.String(),
				"to":       replacementID.String(),
			},
		}); err != nil {
			logger.Warn(ctx, "audit emit failed", "entity_id", dep.ID, "error", err)
		}
	}

	return count, nil
}
