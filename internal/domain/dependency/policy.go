// Package dependency computes and classifies the dependents of a record
// that is about to be archived or purged. Classification is driven by a
// static policy table, the single source of truth for cascade behavior.
package dependency

import (
	"fmt"

	"parish/internal/core/apperror"
	"parish/internal/core/entity"
)

// Rule classifies how a relation behaves when its target is deleted.
type Rule string

const (
	// RuleBlocking refuses the delete unless cascade is explicitly authorized.
	RuleBlocking Rule = "blocking"

	// RuleCascading archives the dependent together with its parent.
	RuleCascading Rule = "cascading"

	// RuleReassignable requires repointing the dependent to a replacement
	// target before the delete proceeds.
	RuleReassignable Rule = "reassignable"
)

// Edge is a modeled foreign-key relationship: a record of Child type
// holds a Relation pointing at a record of Parent type.
type Edge struct {
	Child    entity.Type
	Relation entity.Relation
	Parent   entity.Type
}

// ModeledRelations lists every foreign-key edge of the schema. The
// resolver consults only these; the policy table must cover all of them.
func ModeledRelations() []Edge {
	return []Edge{
		{Child: entity.TypeMember, Relation: entity.RelationHousehold, Parent: entity.TypeHousehold},
		{Child: entity.TypeChild, Relation: entity.RelationHousehold, Parent: entity.TypeHousehold},
		{Child: entity.TypeMember, Relation: entity.RelationRole, Parent: entity.TypeRole},
		{Child: entity.TypeEvent, Relation: entity.RelationGroup, Parent: entity.TypeGroup},
		{Child: entity.TypeContribution, Relation: entity.RelationFund, Parent: entity.TypeFund},
		{Child: entity.TypeContribution, Relation: entity.RelationContributor, Parent: entity.TypeMember},
	}
}

// Policy maps modeled edges to their delete behavior.
type Policy struct {
	rules map[Edge]Rule
}

// NewPolicy builds a policy from explicit rules.
func NewPolicy(rules map[Edge]Rule) *Policy {
	copied := make(map[Edge]Rule, len(rules))
	for e, r := range rules {
		copied[e] = r
	}
	return &Policy{rules: copied}
}

// DefaultPolicy returns the production cascade policy.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Edge]Rule{
		{Child: entity.TypeMember, Relation: entity.RelationHousehold, Parent: entity.TypeHousehold}:   RuleBlocking,
		{Child: entity.TypeChild, Relation: entity.RelationHousehold, Parent: entity.TypeHousehold}:    RuleCascading,
		{Child: entity.TypeMember, Relation: entity.RelationRole, Parent: entity.TypeRole}:             RuleReassignable,
		{Child: entity.TypeEvent, Relation: entity.RelationGroup, Parent: entity.TypeGroup}:            RuleCascading,
		{Child: entity.TypeContribution, Relation: entity.RelationFund, Parent: entity.TypeFund}:       RuleBlocking,
		{Child: entity.TypeContribution, Relation: entity.RelationContributor, Parent: entity.TypeMember}: RuleCascading,
	})
}

// Rule looks up the behavior for an edge.
func (p *Policy) Rule(edge Edge) (Rule, bool) {
	r, ok := p.rules[edge]
	return r, ok
}

// Validate checks that every modeled relation has a rule. An unmapped
// relation is a configuration error, not a silent pass.
func (p *Policy) Validate() error {
	for _, edge := range ModeledRelations() {
		if _, ok := p.rules[edge]; !ok {
			return apperror.NewInternal(
				fmt.Errorf("no cascade rule for relation %s.%s -> %s", edge.Child, edge.Relation, edge.Parent))
		}
	}
	return nil
}
