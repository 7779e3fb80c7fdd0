// Package entity defines the record model shared by every entity type
// of the congregation: households, members, children, groups, roles,
// funds, contributions, events, announcements and documents.
package entity

import (
	"time"

	"parish/internal/core/id"
)

// Status is the lifecycle state of a record.
// purged is terminal; no transition leaves it.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
	StatusPurged  Status = "purged"
)

// CanTransition reports whether the lifecycle state machine permits
// moving from s to next:
//
//	active  --archive--> deleted
//	deleted --restore--> active
//	deleted --purge-->   purged (terminal)
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusDeleted
	case StatusDeleted:
		return next == StatusActive || next == StatusPurged
	default:
		return false
	}
}

// Record is the canonical shape of every stored entity.
// Type-specific fields live in Attributes; relations to other records
// live in ForeignKeys keyed by relation name.
type Record struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Type identifies the entity type (household, member, role, ...)
	Type Type `db:"entity_type" json:"type"`

	// Status is the lifecycle state
	Status Status `db:"status" json:"status"`

	// DeletedAt/DeletedBy are set on archive and cleared on restore
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	DeletedBy string     `db:"deleted_by" json:"deletedBy,omitempty"`

	// Version for optimistic locking (incremented on each write)
	Version int `db:"version" json:"version"`

	// Protected marks system records (the built-in admin role) that
	// never transition to deleted or purged
	Protected bool `db:"protected" json:"protected"`

	// ChurchID identifies the owning tenant
	ChurchID string `db:"church_id" json:"churchId"`

	// ForeignKeys maps relation name to the referenced record id
	ForeignKeys map[Relation]id.ID `db:"foreign_keys" json:"foreignKeys,omitempty"`

	// Attributes stores type-specific fields (JSONB in PostgreSQL)
	Attributes map[string]any `db:"attributes" json:"attributes,omitempty"`
}

// New creates an active record of the given type with a generated ID.
func New(typ Type, churchID string) *Record {
	return &Record{
		ID:       id.New(),
		Type:     typ,
		Status:   StatusActive,
		Version:  1,
		ChurchID: churchID,
	}
}

// IsActive reports whether the record is in the active state.
func (r *Record) IsActive() bool {
	return r.Status == StatusActive
}

// IsDeleted reports whether the record is archived.
func (r *Record) IsDeleted() bool {
	return r.Status == StatusDeleted
}

// Archive transitions the record to deleted.
func (r *Record) Archive(actor string, at time.Time) {
	r.Status = StatusDeleted
	r.DeletedAt = &at
	r.DeletedBy = actor
}

// Restore transitions the record back to active.
func (r *Record) Restore() {
	r.Status = StatusActive
	r.DeletedAt = nil
	r.DeletedBy = ""
}

// ForeignKey returns the referenced id for a relation, or the nil id.
func (r *Record) ForeignKey(rel Relation) id.ID {
	if r.ForeignKeys == nil {
		return id.Nil()
	}
	return r.ForeignKeys[rel]
}

// SetForeignKey points a relation at a target record.
func (r *Record) SetForeignKey(rel Relation, target id.ID) {
	if r.ForeignKeys == nil {
		r.ForeignKeys = make(map[Relation]id.ID)
	}
	r.ForeignKeys[rel] = target
}

// SetAttribute is a convenience method for setting type-specific fields.
func (r *Record) SetAttribute(key string, value any) *Record {
	if r.Attributes == nil {
		r.Attributes = make(map[string]any)
	}
	r.Attributes[key] = value
	return r
}
