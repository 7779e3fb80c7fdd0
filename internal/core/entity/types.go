package entity

// Type identifies an entity type.
type Type string

const (
	TypeHousehold    Type = "household"
	TypeMember       Type = "member"
	TypeChild        Type = "child"
	TypeGroup        Type = "group"
	TypeEvent        Type = "event"
	TypeRole         Type = "role"
	TypeFund         Type = "fund"
	TypeContribution Type = "contribution"
	TypeAnnouncement Type = "announcement"
	TypeDocument     Type = "document"
)

// Relation names a foreign key held by a dependent record.
type Relation string

const (
	RelationHousehold   Relation = "household"
	RelationRole        Relation = "role"
	RelationGroup       Relation = "group"
	RelationFund        Relation = "fund"
	RelationContributor Relation = "contributor"
)
