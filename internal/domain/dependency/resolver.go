package dependency

import (
	"context"
	"fmt"

	"parish/internal/core/apperror"
	"parish/internal/core/entity"
	"parish/internal/core/id"
	"parish/internal/domain"
)

// Ref identifies a dependent record and the relation through which it
// references the parent.
type Ref struct {
	ID       id.ID
	Type     entity.Type
	Relation entity.Relation
}

// Summary classifies the active dependents of a record. Dependents that
// are already deleted impose no obligation and appear in no bucket.
type Summary struct {
	Blocking     []Ref
	Cascading    []Ref
	Reassignable []Ref
}

// BlockingCount returns the number of blocking dependents.
func (s *Summary) BlockingCount() int {
	return len(s.Blocking)
}

// HasObligations reports whether any bucket is non-empty.
func (s *Summary) HasObligations() bool {
	return len(s.Blocking)+len(s.Cascading)+len(s.Reassignable) > 0
}

// ReassignableIDs returns the ids of reassignable dependents.
func (s *Summary) ReassignableIDs() []id.ID {
	ids := make([]id.ID, 0, len(s.Reassignable))
	for _, ref := range s.Reassignable {
		ids = append(ids, ref.ID)
	}
	return ids
}

// Resolver computes one-hop dependent sets from the entity store.
// It never recurses transitively: cascades are applied hop-by-hop by
// the caller re-invoking Resolve on each cascaded child.
type Resolver struct {
	store  domain.Store
	policy *Policy
}

// NewResolver creates a resolver over the given store and policy.
// The policy is validated eagerly so a misconfigured table fails at
// wiring time, not mid-delete.
func NewResolver(store domain.Store, policy *Policy) (*Resolver, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{store: store, policy: policy}, nil
}

// Resolve enumerates the active records referencing recordID and
// classifies each by the policy table.
func (r *Resolver) Resolve(ctx context.Context, recordID id.ID, typ entity.Type) (*Summary, error) {
	summary := &Summary{}

	for _, edge := range ModeledRelations() {
		if edge.Parent != typ {
			continue
		}
		rule, ok := r.policy.Rule(edge)
		if !ok {
			return nil, apperror.NewInternal(
				fmt.Errorf("no cascade rule for relation %s.%s -> %s", edge.Child, edge.Relation, edge.Parent))
		}

		dependents, err := r.store.GetByForeignKey(ctx, edge.Child, edge.Relation, recordID)
		if err != nil {
			return nil, err
		}

		for _, dep := range dependents {
			if !dep.IsActive() {
				// already-deleted dependents impose no obligation
				continue
			}
			if dep.ID == recordID {
				// self-reference guard: one hop only
				continue
			}
			ref := Ref{ID: dep.ID, Type: dep.Type, Relation: edge.Relation}
			switch rule {
			case RuleBlocking:
				summary.Blocking = append(summary.Blocking, ref)
			case RuleCascading:
				summary.Cascading = append(summary.Cascading, ref)
			case RuleReassignable:
				summary.Reassignable = append(summary.Reassignable, ref)
			}
		}
	}

	return summary, nil
}
