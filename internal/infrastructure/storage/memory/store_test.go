package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parish/internal/core/apperror"
	"parish/internal/core/entity"
	"parish/internal/core/id"
	"parish/internal/domain"
	"parish/internal/infrastructure/storage/memory"
)

func TestStore_InsertAndGet(t *testing.T) {
	store := memory.NewStore()
	rec := entity.New(entity.TypeMember, "church-1")
	rec.SetAttribute("first_name", "Ada")

	require.NoError(t, store.Save(context.Background(), rec, 0))
	assert.Equal(t, 1, rec.Version)

	got, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "Ada", got.Attributes["first_name"])
}

func TestStore_GetUnknown(t *testing.T) {
	store := memory.NewStore()
	_, err := store.Get(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestStore_InsertTwiceConflicts(t *testing.T) {
	store := memory.NewStore()
	rec := entity.New(entity.TypeMember, "church-1")
	require.NoError(t, store.Save(context.Background(), rec, 0))

	err := store.Save(context.Background(), rec, 0)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestStore_VersionedUpdate(t *testing.T) {
	store := memory.NewStore()
	rec := entity.New(entity.TypeGroup, "church-1")
	store.Seed(rec)

	rec.SetAttribute("name", "Youth Group")
	require.NoError(t, store.Save(context.Background(), rec, 1))
	assert.Equal(t, 2, rec.Version)

	got, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Youth Group", got.Attributes["name"])
}

func TestStore_StaleVersionConflicts(t *testing.T) {
	store := memory.NewStore()
	rec := entity.New(entity.TypeGroup, "church-1")
	store.Seed(rec)
	require.NoError(t, store.Save(context.Background(), rec, 1))

	stale := entity.New(entity.TypeGroup, "church-1")
	stale.ID = rec.ID
	err := store.Save(context.Background(), stale, 1)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestStore_UpdateUnknown(t *testing.T) {
	store := memory.NewStore()
	rec := entity.New(entity.TypeGroup, "church-1")
	err := store.Save(context.Background(), rec, 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestStore_GetByForeignKey(t *testing.T) {
	store := memory.NewStore()
	household := entity.New(entity.TypeHousehold, "church-1")
	m1 := entity.New(entity.TypeMember, "church-1")
	m1.SetForeignKey(entity.RelationHousehold, household.ID)
	m2 := entity.New(entity.TypeMember, "church-1")
	m2.SetForeignKey(entity.RelationHousehold, household.ID)
	// same relation target but the wrong child type
	child := entity.New(entity.TypeChild, "church-1")
	child.SetForeignKey(entity.RelationHousehold, household.ID)
	// right type, different household
	other := entity.New(entity.TypeMember, "church-1")
	other.SetForeignKey(entity.RelationHousehold, id.New())
	store.Seed(household, m1, m2, child, other)

	got, err := store.GetByForeignKey(context.Background(), entity.TypeMember, entity.RelationHousehold, household.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestStore_ListFilters(t *testing.T) {
	store := memory.NewStore()
	active := entity.New(entity.TypeFund, "church-1")
	deleted := entity.New(entity.TypeFund, "church-1")
	deleted.Archive("user-1", time.Now().UTC())
	otherType := entity.New(entity.TypeRole, "church-1")
	store.Seed(active, deleted, otherType)

	funds, err := store.List(context.Background(), domain.ListFilter{Type: entity.TypeFund})
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, active.ID, funds[0].ID)

	all, err := store.List(context.Background(), domain.ListFilter{Type: entity.TypeFund, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_Delete(t *testing.T) {
	store := memory.NewStore()
	rec := entity.New(entity.TypeGroup, "church-1")
	store.Seed(rec)

	require.NoError(t, store.Delete(context.Background(), rec.ID))
	_, err := store.Get(context.Background(), rec.ID)
	assert.True(t, apperror.IsNotFound(err))

	assert.True(t, apperror.IsNotFound(store.Delete(context.Background(), rec.ID)))
}

func TestStore_GetReturnsCopies(t *testing.T) {
	store := memory.NewStore()
	rec := entity.New(entity.TypeMember, "church-1")
	rec.SetForeignKey(entity.RelationRole, id.New())
	store.Seed(rec)

	first, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	first.Status = entity.StatusDeleted
	first.SetForeignKey(entity.RelationRole, id.New())

	second, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, second.Status, "mutating a returned record must not affect the store")
	assert.Equal(t, rec.ForeignKey(entity.RelationRole), second.ForeignKey(entity.RelationRole))
}
