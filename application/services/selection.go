package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
)

// Classification summarizes the shape of the current selection
type Classification string

const (
	ClassificationNone             Classification = "none"
	ClassificationSingle           Classification = "single"
	ClassificationMultipleSameType Classification = "multiple-same-type"
	ClassificationMixedType        Classification = "mixed-type"
)

// SelectionCoordinator owns the selected set for one scene.
// Select and Deselect are idempotent: repeating an operation that is already
// in effect changes nothing and emits nothing.
type SelectionCoordinator struct {
	sceneID  string
	selected []valueobjects.ElementRef
	renderer ports.Renderer
	bus      ports.EventPublisher
	logger   *zap.Logger
}

// NewSelectionCoordinator creates a selection coordinator for a scene
func NewSelectionCoordinator(
	sceneID string,
	renderer ports.Renderer,
	bus ports.EventPublisher,
	logger *zap.Logger,
) *SelectionCoordinator {
	return &SelectionCoordinator{
		sceneID:  sceneID,
		selected: []valueobjects.ElementRef{},
		renderer: renderer,
		bus:      bus,
		logger:   logger,
	}
}

// Select adds an element to the selection. Selecting an element that is
// already selected is a no-op.
func (c *SelectionCoordinator) Select(ctx context.Context, ref valueobjects.ElementRef) {
	if c.IsSelected(ref) {
		return
	}

	c.selected = append(c.selected, ref)

	if err := c.renderer.RequestIndicator(ctx, ref); err != nil {
		c.logger.Warn("failed to show selection indicator",
			zap.String("element", ref.String()),
			zap.Error(err),
		)
	}

	c.publishChanged(ctx)
}

// Deselect removes an element from the selection. Deselecting an element
// that is not selected is a no-op.
func (c *SelectionCoordinator) Deselect(ctx context.Context, ref valueobjects.ElementRef) {
	idx := c.indexOf(ref)
	if idx < 0 {
		return
	}

	wasNonEmpty := len(c.selected) > 0
	c.selected = append(c.selected[:idx], c.selected[idx+1:]...)

	if err := c.renderer.RemoveIndicator(ctx, ref); err != nil {
		c.logger.Warn("failed to remove selection indicator",
			zap.String("element", ref.String()),
			zap.Error(err),
		)
	}

	c.publishChanged(ctx)

	if wasNonEmpty && len(c.selected) == 0 {
		c.publishCleared(ctx)
	}
}

// Toggle flips the selection state of an element
func (c *SelectionCoordinator) Toggle(ctx context.Context, ref valueobjects.ElementRef) {
	if c.IsSelected(ref) {
		c.Deselect(ctx, ref)
	} else {
		c.Select(ctx, ref)
	}
}

// Replace clears the selection and selects exactly the given element
func (c *SelectionCoordinator) Replace(ctx context.Context, ref valueobjects.ElementRef) {
	if len(c.selected) == 1 && c.selected[0].Equals(ref) {
		return
	}

	for _, existing := range c.selected {
		if existing.Equals(ref) {
			continue
		}
		if err := c.renderer.RemoveIndicator(ctx, existing); err != nil {
			c.logger.Warn("failed to remove selection indicator",
				zap.String("element", existing.String()),
				zap.Error(err),
			)
		}
	}

	wasSelected := c.IsSelected(ref)
	c.selected = []valueobjects.ElementRef{ref}

	if !wasSelected {
		if err := c.renderer.RequestIndicator(ctx, ref); err != nil {
			c.logger.Warn("failed to show selection indicator",
				zap.String("element", ref.String()),
				zap.Error(err),
			)
		}
	}

	c.publishChanged(ctx)
}

// Clear empties the selection. The cleared notification is emitted exactly
// once per transition from non-empty to empty; clearing an empty selection
// emits nothing.
func (c *SelectionCoordinator) Clear(ctx context.Context) {
	if len(c.selected) == 0 {
		return
	}

	for _, ref := range c.selected {
		if err := c.renderer.RemoveIndicator(ctx, ref); err != nil {
			c.logger.Warn("failed to remove selection indicator",
				zap.String("element", ref.String()),
				zap.Error(err),
			)
		}
	}

	c.selected = []valueobjects.ElementRef{}

	c.publishChanged(ctx)
	c.publishCleared(ctx)
}

// IsSelected reports whether the element is currently selected
func (c *SelectionCoordinator) IsSelected(ref valueobjects.ElementRef) bool {
	return c.indexOf(ref) >= 0
}

// Selected returns the selected elements in selection order
func (c *SelectionCoordinator) Selected() []valueobjects.ElementRef {
	out := make([]valueobjects.ElementRef, len(c.selected))
	copy(out, c.selected)
	return out
}

// Count returns the number of selected elements
func (c *SelectionCoordinator) Count() int {
	return len(c.selected)
}

// Classify summarizes the current selection shape
func (c *SelectionCoordinator) Classify() Classification {
	switch len(c.selected) {
	case 0:
		return ClassificationNone
	case 1:
		return ClassificationSingle
	}

	first := c.selected[0].Type
	for _, ref := range c.selected[1:] {
		if ref.Type != first {
			return ClassificationMixedType
		}
	}
	return ClassificationMultipleSameType
}

func (c *SelectionCoordinator) indexOf(ref valueobjects.ElementRef) int {
	for i, existing := range c.selected {
		if existing.Equals(ref) {
			return i
		}
	}
	return -1
}

func (c *SelectionCoordinator) publishChanged(ctx context.Context) {
	event := events.NewSelectionChanged(c.sceneID, c.Selected(), string(c.Classify()), time.Now())
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish selection change", zap.Error(err))
	}
}

func (c *SelectionCoordinator) publishCleared(ctx context.Context) {
	event := events.NewSelectionCleared(c.sceneID, time.Now())
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish selection cleared", zap.Error(err))
	}
}
