package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/validators"
	"archboard-backend/domain/core/valueobjects"
	pkgerrors "archboard-backend/pkg/errors"
)

func newPropertyFixture() (*PropertyStore, *recordingBus) {
	bus := &recordingBus{}
	store := NewPropertyStore(validators.NewPropertyValidator(), bus, zap.NewNop())
	return store, bus
}

func TestPropertyStore_DefineAndGet(t *testing.T) {
	ctx := context.Background()
	store, bus := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "owner", "platform-team", defaultMeta()))

	prop, ok := store.Get(element, "owner")
	require.True(t, ok)
	assert.Equal(t, "owner", prop.Key)
	assert.Equal(t, "platform-team", prop.Value)
	assert.Equal(t, entities.PropertyTypeText, prop.Type)
	assert.Equal(t, 1, bus.countOf("property.changed"))
}

func TestPropertyStore_DefineDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "owner", "platform-team", defaultMeta()))

	err := store.Define(ctx, element, "owner", "other-team", defaultMeta())
	require.Error(t, err)

	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationDuplicateKey))

	// The original value survives the rejected redefinition
	prop, _ := store.Get(element, "owner")
	assert.Equal(t, "platform-team", prop.Value)
}

func TestPropertyStore_DefineCollectsAllViolations(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "owner", "x", defaultMeta()))

	// Duplicate key and an invalid key character in one shot: both reported
	err := store.Define(ctx, element, "owner", "y", defaultMeta())
	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationDuplicateKey))

	err = store.Define(ctx, element, "bad key!", "y", defaultMeta())
	violations, ok = pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationInvalidType))
}

func TestPropertyStore_UpdateMissingKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	err := store.Update(ctx, element, "owner", "anyone")
	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationNotFound))
}

func TestPropertyStore_UpdateReadOnly(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	meta := defaultMeta()
	meta.ReadOnly = true
	require.NoError(t, store.Define(ctx, element, "created_by", "importer", meta))

	err := store.Update(ctx, element, "created_by", "someone-else")
	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationReadOnly))

	prop, _ := store.Get(element, "created_by")
	assert.Equal(t, "importer", prop.Value)
}

func TestPropertyStore_UpdateTypeMismatch(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "replicas", 3, defaultMeta()))

	err := store.Update(ctx, element, "replicas", "three")
	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationInvalidType))
}

func TestPropertyStore_RemoveMissingKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()

	err := store.Remove(ctx, valueobjects.NewElementID(), "owner")
	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationNotFound))
}

func TestPropertyStore_ReAddedKeyOrdersAfterSurvivors(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "first", "a", defaultMeta()))
	require.NoError(t, store.Define(ctx, element, "second", "b", defaultMeta()))
	require.NoError(t, store.Remove(ctx, element, "first"))
	require.NoError(t, store.Define(ctx, element, "first", "a2", defaultMeta()))

	props := store.List(element)
	require.Len(t, props, 2)
	assert.Equal(t, "second", props[0].Key)
	assert.Equal(t, "first", props[1].Key)
	assert.Greater(t, props[1].Order, props[0].Order)
}

func TestPropertyStore_ListSortedByDefinitionOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	keys := []string{"zeta", "alpha", "mid"}
	for _, key := range keys {
		require.NoError(t, store.Define(ctx, element, key, "v", defaultMeta()))
	}

	props := store.List(element)
	require.Len(t, props, 3)
	for i, key := range keys {
		assert.Equal(t, key, props[i].Key)
	}
}

func TestPropertyStore_HistoryTracksLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "owner", "a", defaultMeta()))
	require.NoError(t, store.Update(ctx, element, "owner", "b"))
	require.NoError(t, store.Remove(ctx, element, "owner"))

	history := store.History(element)
	require.Len(t, history, 3)
	assert.Equal(t, PropertyAdded, history[0].Kind)
	assert.Nil(t, history[0].OldValue)
	assert.Equal(t, "a", history[0].Value)

	// Updates carry both sides so the change can be undone
	assert.Equal(t, PropertyUpdated, history[1].Kind)
	assert.Equal(t, "a", history[1].OldValue)
	assert.Equal(t, "b", history[1].Value)

	// The removal records what was lost
	assert.Equal(t, PropertyRemoved, history[2].Kind)
	assert.Equal(t, "b", history[2].OldValue)
	assert.Nil(t, history[2].Value)
}

func TestPropertyStore_ReorderMovesProperty(t *testing.T) {
	ctx := context.Background()
	store, bus := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "owner", "platform-team", defaultMeta()))
	require.NoError(t, store.Define(ctx, element, "tier", "critical", defaultMeta()))
	bus.reset()

	require.NoError(t, store.Reorder(ctx, element, "owner", 10))

	props := store.List(element)
	require.Len(t, props, 2)
	assert.Equal(t, "tier", props[0].Key)
	assert.Equal(t, "owner", props[1].Key)

	// The value and the change history are untouched
	prop, _ := store.Get(element, "owner")
	assert.Equal(t, "platform-team", prop.Value)
	assert.Len(t, store.History(element), 2)

	assert.Equal(t, 1, bus.countOf("property.changed"))

	// Keys defined after the reorder still sort last
	require.NoError(t, store.Define(ctx, element, "region", "eu-west-1", defaultMeta()))
	props = store.List(element)
	require.Len(t, props, 3)
	assert.Equal(t, "region", props[2].Key)
}

func TestPropertyStore_ReorderMissingKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()

	err := store.Reorder(ctx, valueobjects.NewElementID(), "owner", 3)
	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationNotFound))
}

func TestPropertyStore_RemoveAll(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	require.NoError(t, store.Define(ctx, element, "owner", "a", defaultMeta()))
	require.NoError(t, store.Define(ctx, element, "tier", "gold", defaultMeta()))

	store.RemoveAll(element)

	assert.Equal(t, 0, store.Count(element))
	assert.Nil(t, store.History(element))
}

func TestPropertyStore_RulesEnforcedOnUpdate(t *testing.T) {
	ctx := context.Background()
	store, _ := newPropertyFixture()
	element := valueobjects.NewElementID()

	min, max := 1.0, 10.0
	meta := defaultMeta()
	meta.Rules = entities.PropertyRules{MinValue: &min, MaxValue: &max}
	require.NoError(t, store.Define(ctx, element, "replicas", 3, meta))

	err := store.Update(ctx, element, "replicas", 50)
	violations, ok := pkgerrors.AsViolations(err)
	require.True(t, ok)
	assert.True(t, violations.Has(pkgerrors.ViolationRange))

	require.NoError(t, store.Update(ctx, element, "replicas", 5))
}
