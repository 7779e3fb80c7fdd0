package reassign_test

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
	"parish/internal/domain/dependency"
	"parish/internal/domain/reassign"
	"parish/internal/infrastructure/audit"
	"parish/internal/infrastructure/storage/memory"
)

type fixture struct {
	store    *memory.Store
	audit    *audit.Recorder
	engine   *reassign.Engine
	role     *entity.Record
	replacer *entity.Record
	holders  []*entity.Record
}

func newFixture(t *testing.T, holderCount int) *fixture {
	t.Helper()
	store := memory.NewStore()
	recorder := audit.NewRecorder()

	role := entity.New(entity.TypeRole, "church-1")
	replacer := entity.New(entity.TypeRole, "church-1")
	store.Seed(role, replacer)

	var holders []*entity.Record
	for i := 0; i < holderCount; i++ {
		m := entity.New(entity.TypeMember, "church-1")
		m.SetForeignKey(entity.RelationRole, role.ID)
		holders = append(holders, m)
	}
	store.Seed(holders...)

	return &fixture{
		store:    store,
		audit:    recorder,
		engine:   reassign.NewEngine(store, recorder),
		role:     role,
		replacer: replacer,
		holders:  holders,
	}
}

func (f *fixture) refs() []dependency.Ref {
	var refs []dependency.Ref
	for _, h := range f.holders {
		refs = append(refs, dependency.Ref{ID: h.ID, Type: h.Type, Relation: entity.RelationRole})
	}
	return refs
}

func TestEngine_ReassignsEveryDependent(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	count, err := f.engine.Reassign(ctx, f.refs(), entity.RelationRole, f.role, f.replacer.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	for _, h := range f.holders {
		got, err := f.store.Get(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, f.replacer.ID, got.ForeignKey(entity.RelationRole), "holder must reference the replacement")
		assert.Equal(t, entity.StatusActive, got.Status, "reassignment must not change status")
		assert.Equal(t, h.Version+1, got.Version, "reassignment must bump the version")
	}

	events := f.audit.Events()
	assert.Len(t, events, 5)
	for _, ev := range events {
		assert.Equal(t, domain.AuditActionReassign, ev.Action)
	}
}

func TestEngine_RejectsMissingReplacement(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.engine.Reassign(context.Background(), f.refs(), entity.RelationRole, f.role, id.Nil(), "admin-1")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestEngine_RejectsSelfReplacement(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.engine.Reassign(context.Background(), f.refs(), entity.RelationRole, f.role, f.role.ID, "admin-1")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestEngine_RejectsWrongTypeReplacement(t *testing.T) {
	f := newFixture(t, 1)
	group := entity.New(entity.TypeGroup, "church-1")
	f.store.Seed(group)

	_, err := f.engine.Reassign(context.Background(), f.refs(), entity.RelationRole, f.role, group.ID, "admin-1")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestEngine_RejectsDeletedReplacement(t *testing.T) {
	// a deleted record must never become the target of a new reference
	f := newFixture(t, 1)
	f.replacer.Archive("someone", time.Now().UTC())
	f.store.Seed(f.replacer)

	_, err := f.engine.Reassign(context.Background(), f.refs(), entity.RelationRole, f.role, f.replacer.ID, "admin-1")
	assert.True(t, apperror.IsNotActive(err))
}

func TestEngine_RejectsUnknownReplacement(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.engine.Reassign(context.Background(), f.refs(), entity.RelationRole, f.role, id.New(), "admin-1")
	assert.True(t, apperror.IsNotFound(err))
}
