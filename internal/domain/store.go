// Package domain defines the collaborator contracts the lifecycle core
// consumes: the Entity Store (persistence) and the Audit Emitter
// (write-only event sink). The core never assumes a storage technology
// beyond these interfaces.
package domain

import (
	"context"
	"time"

	"parish/internal/core/entity"
	"parish/internal/core/id"
)

// Store owns canonical records for every entity type.
//
// Implementations must enforce optimistic concurrency: Save fails with
// apperror.CodeConcurrentModification when the stored version differs
// from expectedVersion. Transport failures surface as
// apperror.CodeStoreUnavailable; the core does not retry.
type Store interface {
	// Get retrieves a record by id. A purged record never resolves;
	// implementations return apperror.CodeNotFound.
	Get(ctx context.Context, recordID id.ID) (*entity.Record, error)

	// GetByForeignKey enumerates records of childType whose relation
	// points at targetID, regardless of status. Callers filter by
	// status as needed.
	GetByForeignKey(ctx context.Context, childType entity.Type, rel entity.Relation, targetID id.ID) ([]*entity.Record, error)

	// List enumerates records matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*entity.Record, error)

	// Save writes the record. expectedVersion 0 inserts a new record;
	// any other value updates and must fail on version mismatch. On
	// success the stored version is expectedVersion+1 (or 1 on insert)
	// and the passed record is updated to match.
	Save(ctx context.Context, record *entity.Record, expectedVersion int) error

	// Delete removes the record permanently (hard delete).
	Delete(ctx context.Context, recordID id.ID) error
}

// ListFilter narrows Store.List.
type ListFilter struct {
	Type           entity.Type
	IncludeDeleted bool
}

// AuditAction represents the type of audited lifecycle mutation.
type AuditAction string

const (
	AuditActionArchive  AuditAction = "archive"
	AuditActionRestore  AuditAction = "restore"
	AuditActionPurge    AuditAction = "purge"
	AuditActionReassign AuditAction = "reassign"
)

// AuditEvent is the structured record of a single mutation.
type AuditEvent struct {
	ActorID      string            `json:"actorId"`
	EntityType   entity.Type       `json:"entityType"`
	EntityID     id.ID             `json:"entityId"`
	Action       AuditAction       `json:"action"`
	BeforeStatus entity.Status     `json:"beforeStatus"`
	AfterStatus  entity.Status     `json:"afterStatus"`
	At           time.Time         `json:"at"`
	Details      map[string]string `json:"details,omitempty"`
}

// AuditEmitter receives every mutation. Delivery guarantees belong to
// the collaborator; the core treats Emit as fire-and-forget and only
// logs failures.
type AuditEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
