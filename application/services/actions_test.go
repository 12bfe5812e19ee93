package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"archboard-backend/domain/core/valueobjects"
)

func TestAvailabilityFor(t *testing.T) {
	single := ActionSet{
		ShowEdit:   true,
		ShowDelete: true,
		CanEdit:    true,
		CanDelete:  true,
		CanConnect: true,
	}

	tests := []struct {
		classification Classification
		want           ActionSet
	}{
		{ClassificationNone, ActionSet{}},
		{ClassificationSingle, single},
		{ClassificationMultipleSameType, ActionSet{}},
		{ClassificationMixedType, ActionSet{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.classification), func(t *testing.T) {
			got := AvailabilityFor(tt.classification)
			assert.Equal(t, tt.want, got)

			// A button is never enabled while hidden
			assert.Equal(t, got.ShowEdit, got.CanEdit)
			assert.Equal(t, got.ShowDelete, got.CanDelete)
		})
	}
}

func TestActionAvailability_TracksSelection(t *testing.T) {
	ctx := context.Background()
	renderer := newFakeRenderer()
	bus := &recordingBus{}
	selection := NewSelectionCoordinator("scene-1", renderer, bus, zap.NewNop())
	availability := NewActionAvailability(selection)

	assert.Equal(t, ActionSet{}, availability.Current())

	ref := valueobjects.NodeRef(valueobjects.NewElementID())
	selection.Select(ctx, ref)
	assert.Equal(t, AvailabilityFor(ClassificationSingle), availability.Current())

	selection.Select(ctx, valueobjects.NodeRef(valueobjects.NewElementID()))
	assert.Equal(t, ActionSet{}, availability.Current())

	selection.Clear(ctx)
	assert.Equal(t, ActionSet{}, availability.Current())
}
