package dependency_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parish/internal/core/entity"
	"parish/internal/domain/dependency"
	"parish/internal/infrastructure/storage/memory"
)

func TestResolver_ClassifiesDependents(t *testing.T) {
	store := memory.NewStore()
	household := entity.New(entity.TypeHousehold, "church-1")
	memberA := entity.New(entity.TypeMember, "church-1")
	memberA.SetForeignKey(entity.RelationHousehold, household.ID)
	memberB := entity.New(entity.TypeMember, "church-1")
	memberB.SetForeignKey(entity.RelationHousehold, household.ID)
	child := entity.New(entity.TypeChild, "church-1")
	child.SetForeignKey(entity.RelationHousehold, household.ID)
	store.Seed(household, memberA, memberB, child)

	resolver, err := dependency.NewResolver(store, dependency.DefaultPolicy())
	require.NoError(t, err)

	summary, err := resolver.Resolve(context.Background(), household.ID, household.Type)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.BlockingCount())
	assert.Len(t, summary.Cascading, 1)
	assert.Empty(t, summary.Reassignable)
	assert.Equal(t, child.ID, summary.Cascading[0].ID)
}

func TestResolver_ExcludesDeletedDependents(t *testing.T) {
	store := memory.NewStore()
	household := entity.New(entity.TypeHousehold, "church-1")
	member := entity.New(entity.TypeMember, "church-1")
	member.SetForeignKey(entity.RelationHousehold, household.ID)
	member.Archive("someone", time.Now().UTC())
	store.Seed(household, member)

	resolver, err := dependency.NewResolver(store, dependency.DefaultPolicy())
	require.NoError(t, err)

	summary, err := resolver.Resolve(context.Background(), household.ID, household.Type)
	require.NoError(t, err)

	// an already-deleted dependent imposes no obligation
	assert.Equal(t, 0, summary.BlockingCount())
	assert.False(t, summary.HasObligations())
}

func TestResolver_ReassignableBucket(t *testing.T) {
	store := memory.NewStore()
	role := entity.New(entity.TypeRole, "church-1")
	var holders []*entity.Record
	for i := 0; i < 5; i++ {
		m := entity.New(entity.TypeMember, "church-1")
		m.SetForeignKey(entity.RelationRole, role.ID)
		holders = append(holders, m)
	}
	store.Seed(role)
	store.Seed(holders...)

	resolver, err := dependency.NewResolver(store, dependency.DefaultPolicy())
	require.NoError(t, err)

	summary, err := resolver.Resolve(context.Background(), role.ID, role.Type)
	require.NoError(t, err)

	assert.Len(t, summary.Reassignable, 5)
	assert.Len(t, summary.ReassignableIDs(), 5)
}

func TestNewResolver_RejectsIncompletePolicy(t *testing.T) {
	store := memory.NewStore()
	incomplete := dependency.NewPolicy(map[dependency.Edge]dependency.Rule{})

	_, err := dependency.NewResolver(store, incomplete)
	assert.Error(t, err)
}

func TestResolver_OneHopOnly(t *testing.T) {
	// archiving a household must not transitively resolve the member's
	// own dependents; cascades go hop-by-hop through the caller
	store := memory.NewStore()
	household := entity.New(entity.TypeHousehold, "church-1")
	member := entity.New(entity.TypeMember, "church-1")
	member.SetForeignKey(entity.RelationHousehold, household.ID)
	contribution := entity.New(entity.TypeContribution, "church-1")
	contribution.SetForeignKey(entity.RelationContributor, member.ID)
	store.Seed(household, member, contribution)

	resolver, err := dependency.NewResolver(store, dependency.DefaultPolicy())
	require.NoError(t, err)

	summary, err := resolver.Resolve(context.Background(), household.ID, household.Type)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.BlockingCount())
	assert.Empty(t, summary.Cascading, "grandchildren must not appear in a one-hop resolve")
}
