// Package lifecycle enforces the record status state machine:
//
//	active  --archive--> deleted
//	deleted --restore--> active
//	deleted --purge-->   purged (terminal)
//
// No edge goes from active to purged directly, and no edge leaves
// purged. Dependents are mutated only as a side effect of a parent's
// transition, never spontaneously.
package lifecycle

import (
	"context"
	"time"

	"parish/internal/core/apperror"
	"parish/internal/core/entity"
	"parish/internal/core/id"
	"parish/internal/core/security"
	"parish/internal/domain"
	"parish/internal/domain/dependency"
	"parish/internal/domain/reassign"
	"parish/internal/metrics"
	"parish/pkg/logger"
)

// ArchiveOptions controls dependency handling during archive.
type ArchiveOptions struct {
	// Cascade authorizes archiving blocking dependents together with
	// the parent. Cascading dependents are archived regardless.
	Cascade bool

	// ReplacementID is the target that reassignable dependents are
	// repointed to. Required when reassignable dependents exist; the
	// core never guesses one.
	ReplacementID id.ID
}

// Manager coordinates lifecycle transitions against the entity store.
type Manager struct {
	store    domain.Store
	audit    domain.AuditEmitter
	resolver *dependency.Resolver
	engine   *reassign.Engine
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Config wires the manager's collaborators. Metrics is optional.
type Config struct {
	Store    domain.Store
	Audit    domain.AuditEmitter
	Resolver *dependency.Resolver
	Engine   *reassign.Engine
	Metrics  *metrics.Metrics
}

// NewManager creates a lifecycle manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		store:    cfg.Store,
		audit:    cfg.Audit,
		resolver: cfg.Resolver,
		engine:   cfg.Engine,
		metrics:  cfg.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Archive soft-deletes a record. Blocking dependents refuse the
// transition unless opts.Cascade is set; cascading dependents are
// archived hop-by-hop before the parent; reassignable dependents are
// repointed to opts.ReplacementID first.
//
// The blocking check runs before any mutation, so a refusal leaves
// zero side effects.
func (m *Manager) Archive(ctx context.Context, recordID id.ID, actor string, opts ArchiveOptions) (*entity.Record, error) {
	rec, err := m.store.Get(ctx, recordID)
	if err != nil {
		return nil, m.fail(err)
	}
	if rec.Protected {
		return nil, m.fail(apperror.NewProtectedEntity(string(rec.Type), rec.ID.String()))
	}
	if !rec.Status.CanTransition(entity.StatusDeleted) {
		return nil, m.fail(apperror.NewNotActive(string(rec.Type), rec.ID.String(), string(rec.Status)))
	}

	summary, err := m.resolver.Resolve(ctx, rec.ID, rec.Type)
	if err != nil {
		return nil, m.fail(err)
	}

	if summary.BlockingCount() > 0 && !opts.Cascade {
		return nil, m.fail(apperror.NewDependencyConflict(string(rec.Type), rec.ID.String(), summary.BlockingCount()))
	}

	if len(summary.Reassignable) > 0 {
		if id.IsNil(opts.ReplacementID) {
			affected := make([]string, 0, len(summary.Reassignable))
			for _, ref := range summary.Reassignable {
				affected = append(affected, ref.ID.String())
			}
			return nil, m.fail(apperror.NewReassignmentRequired(string(rec.Type), rec.ID.String(), affected))
		}
		for rel, refs := range groupByRelation(summary.Reassignable) {
			count, err := m.engine.Reassign(ctx, refs, rel, rec, opts.ReplacementID, actor)
			if err != nil {
				return nil, m.fail(err)
			}
			if m.metrics != nil {
				m.metrics.AddReassignments(count)
			}
		}
	}

	// Dependents are resolved before the parent transitions. Cascades
	// recurse one hop at a time through the same archive path, so each
	// child's own dependents are resolved in turn.
	cascade := summary.Cascading
	if opts.Cascade {
		cascade = append(cascade, summary.Blocking...)
	}
	childOpts := ArchiveOptions{Cascade: opts.Cascade}
	for _, ref := range cascade {
		if _, err := m.Archive(ctx, ref.ID, actor, childOpts); err != nil {
			if apperror.IsNotActive(err) {
				// already archived through another path in this cascade
				continue
			}
			return nil, m.fail(err)
		}
	}

	before := rec.Status
	rec.Archive(actor, m.now())
	if err := m.store.Save(ctx, rec, rec.Version); err != nil {
		return nil, m.fail(err)
	}

	m.emit(ctx, rec, domain.AuditActionArchive, before, actor)
	if m.metrics != nil {
		m.metrics.IncrementArchives()
	}
	return rec, nil
}

// Restore transitions an archived record back to active. Restoring a
// record that is already active fails with a not-deleted error, not a
// silent success. A purged record no longer resolves, so restoring it
// fails with not-found.
func (m *Manager) Restore(ctx context.Context, recordID id.ID, actor string) (*entity.Record, error) {
	rec, err := m.store.Get(ctx, recordID)
	if err != nil {
		return nil, m.fail(err)
	}
	if !rec.Status.CanTransition(entity.StatusActive) {
		return nil, m.fail(apperror.NewNotDeleted(string(rec.Type), rec.ID.String(), string(rec.Status)))
	}

	before := rec.Status
	rec.Restore()
	if err := m.store.Save(ctx, rec, rec.Version); err != nil {
		return nil, m.fail(err)
	}

	m.emit(ctx, rec, domain.AuditActionRestore, before, actor)
	if m.metrics != nil {
		m.metrics.IncrementRestores()
	}
	return rec, nil
}

// Purge permanently removes an archived record. Admin only, and only
// reachable from deleted: an active record must be archived first.
// Purge refuses while any active record still references the target.
func (m *Manager) Purge(ctx context.Context, recordID id.ID, actor string) error {
	if err := security.RequireAdmin(ctx); err != nil {
		return m.fail(err)
	}

	rec, err := m.store.Get(ctx, recordID)
	if err != nil {
		return m.fail(err)
	}
	if rec.Protected {
		return m.fail(apperror.NewProtectedEntity(string(rec.Type), rec.ID.String()))
	}
	if !rec.Status.CanTransition(entity.StatusPurged) {
		// defense in depth: archive first
		return m.fail(apperror.NewNotActive(string(rec.Type), rec.ID.String(), string(rec.Status)).
			WithDetail("hint", "record must be archived before purge"))
	}

	summary, err := m.resolver.Resolve(ctx, rec.ID, rec.Type)
	if err != nil {
		return m.fail(err)
	}
	if summary.HasObligations() {
		obligations := len(summary.Blocking) + len(summary.Cascading) + len(summary.Reassignable)
		return m.fail(apperror.NewDependencyConflict(string(rec.Type), rec.ID.String(), obligations))
	}

	if err := m.store.Delete(ctx, rec.ID); err != nil {
		return m.fail(err)
	}

	before := rec.Status
	rec.Status = entity.StatusPurged
	m.emit(ctx, rec, domain.AuditActionPurge, before, actor)
	if m.metrics != nil {
		m.metrics.IncrementPurges()
	}
	return nil
}

// GetDependents exposes the dependency summary for a record without
// mutating anything, so callers can preview the effect of a delete.
func (m *Manager) GetDependents(ctx context.Context, recordID id.ID, typ entity.Type) (*dependency.Summary, error) {
	return m.resolver.Resolve(ctx, recordID, typ)
}

func (m *Manager) emit(ctx context.Context, rec *entity.Record, action domain.AuditAction, before entity.Status, actor string) {
	err := m.audit.Emit(ctx, domain.AuditEvent{
		ActorID:      actor,
		EntityType:   rec.Type,
		EntityID:     rec.ID,
		Action:       action,
		BeforeStatus: before,
		AfterStatus:  rec.Status,
		At:           m.now(),
	})
	if err != nil {
		// fire-and-forget: delivery guarantees belong to the emitter
		logger.Warn(ctx, "audit emit failed", "entity_id", rec.ID, "action", action, "error", err)
	}
}

func (m *Manager) fail(err error) error {
	if m.metrics != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			m.metrics.IncrementFailures(appErr.Code)
		}
	}
	return err
}

func groupByRelation(refs []dependency.Ref) map[entity.Relation][]dependency.Ref {
	grouped := make(map[entity.Relation][]dependency.Ref)
	for _, ref := range refs {
		grouped[ref.Relation] = append(grouped[ref.Relation], ref)
	}
	return grouped
}
