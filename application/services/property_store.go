package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/validators"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
	pkgerrors "archboard-backend/pkg/errors"
)

// PropertyChangeKind classifies one entry in a property history
type PropertyChangeKind string

const (
	PropertyAdded     PropertyChangeKind = "added"
	PropertyUpdated   PropertyChangeKind = "updated"
	PropertyRemoved   PropertyChangeKind = "removed"
	PropertyReordered PropertyChangeKind = "reordered"
)

// PropertyChange is one entry in an element's property history. Updates
// carry both the old and the new value so the change can be undone; removals
// carry the removed value as OldValue.
type PropertyChange struct {
	Kind     PropertyChangeKind `json:"kind"`
	Key      string             `json:"key"`
	OldValue interface{}        `json:"old_value,omitempty"`
	Value    interface{}        `json:"value,omitempty"`
	At       time.Time          `json:"at"`
}

// propertyCollection holds the properties of one element. The order counter
// only ever increases, so a key that is removed and added again always sorts
// after every surviving property.
type propertyCollection struct {
	props     map[string]entities.Property
	nextOrder int64
	history   []PropertyChange
}

// PropertyStore owns the typed key/value properties of every element in one
// scene. Validation collects all violations before rejecting an operation,
// so callers see the complete list at once.
type PropertyStore struct {
	collections map[valueobjects.ElementID]*propertyCollection
	validator   *validators.PropertyValidator
	bus         ports.EventPublisher
	logger      *zap.Logger
}

// NewPropertyStore creates a property store
func NewPropertyStore(validator *validators.PropertyValidator, bus ports.EventPublisher, logger *zap.Logger) *PropertyStore {
	return &PropertyStore{
		collections: make(map[valueobjects.ElementID]*propertyCollection),
		validator:   validator,
		bus:         bus,
		logger:      logger,
	}
}

// Define adds a new property to an element. The key must not already exist.
// On failure the returned error is a ViolationList carrying every violation
// found, not just the first.
func (s *PropertyStore) Define(ctx context.Context, elementID valueobjects.ElementID, key string, value interface{}, meta entities.PropertyMeta) error {
	violations := s.validator.ValidateKey(key)

	coll := s.collection(elementID)
	if _, exists := coll.props[key]; exists {
		violations = append(violations, pkgerrors.NewViolation(
			pkgerrors.ViolationDuplicateKey, key, "property key already exists"))
	}

	propType := entities.DetectPropertyType(value)
	violations = append(violations, s.validator.ValidateValue(key, value, propType, meta)...)

	if !violations.Empty() {
		return violations
	}

	prop := entities.NewProperty(key, value, meta).WithOrder(coll.nextOrder)
	coll.nextOrder++
	coll.props[key] = prop
	coll.appendHistory(PropertyAdded, key, nil, value)

	s.publish(ctx, elementID, key, string(PropertyAdded), value)

	return nil
}

// Update changes the value of an existing property. The new value is checked
// against the property's declared type and rules; all violations are
// collected before the operation is rejected.
func (s *PropertyStore) Update(ctx context.Context, elementID valueobjects.ElementID, key string, value interface{}) error {
	coll := s.collection(elementID)

	prop, exists := coll.props[key]
	if !exists {
		return pkgerrors.ViolationList{pkgerrors.NewViolation(
			pkgerrors.ViolationNotFound, key, "property does not exist")}
	}

	var violations pkgerrors.ViolationList
	if prop.Meta.ReadOnly {
		violations = append(violations, pkgerrors.NewViolation(
			pkgerrors.ViolationReadOnly, key, "property is read-only"))
	}

	violations = append(violations, s.validator.ValidateValue(key, value, prop.Type, prop.Meta)...)

	if !violations.Empty() {
		return violations
	}

	previous := prop.Value
	prop.Value = value
	prop.UpdatedAt = time.Now()
	coll.props[key] = prop
	coll.appendHistory(PropertyUpdated, key, previous, value)

	s.publish(ctx, elementID, key, string(PropertyUpdated), value)

	return nil
}

// Remove deletes a property from an element. The element's order counter is
// untouched, so re-adding the key later yields a strictly greater order.
func (s *PropertyStore) Remove(ctx context.Context, elementID valueobjects.ElementID, key string) error {
	coll := s.collection(elementID)

	prop, exists := coll.props[key]
	if !exists {
		return pkgerrors.ViolationList{pkgerrors.NewViolation(
			pkgerrors.ViolationNotFound, key, "property does not exist")}
	}

	delete(coll.props, key)
	coll.appendHistory(PropertyRemoved, key, prop.Value, nil)

	s.publish(ctx, elementID, key, string(PropertyRemoved), nil)

	return nil
}

// Reorder moves a property to a new display position. The value and the
// change history are untouched; only the sort order changes. The order
// counter stays monotonic, so keys defined afterwards still sort last.
func (s *PropertyStore) Reorder(ctx context.Context, elementID valueobjects.ElementID, key string, newOrder int64) error {
	coll := s.collection(elementID)

	prop, exists := coll.props[key]
	if !exists {
		return pkgerrors.ViolationList{pkgerrors.NewViolation(
			pkgerrors.ViolationNotFound, key, "property does not exist")}
	}

	prop.Order = newOrder
	coll.props[key] = prop
	if newOrder >= coll.nextOrder {
		coll.nextOrder = newOrder + 1
	}

	s.publish(ctx, elementID, key, string(PropertyReordered), newOrder)

	return nil
}

// Get returns a property by key
func (s *PropertyStore) Get(elementID valueobjects.ElementID, key string) (entities.Property, bool) {
	coll, ok := s.collections[elementID]
	if !ok {
		return entities.Property{}, false
	}
	prop, exists := coll.props[key]
	return prop, exists
}

// List returns the element's properties sorted by ascending order of
// definition
func (s *PropertyStore) List(elementID valueobjects.ElementID) []entities.Property {
	coll, ok := s.collections[elementID]
	if !ok {
		return nil
	}

	props := make([]entities.Property, 0, len(coll.props))
	for _, prop := range coll.props {
		props = append(props, prop)
	}
	sort.Slice(props, func(i, j int) bool {
		return props[i].Order < props[j].Order
	})
	return props
}

// History returns the element's property change history, oldest first
func (s *PropertyStore) History(elementID valueobjects.ElementID) []PropertyChange {
	coll, ok := s.collections[elementID]
	if !ok {
		return nil
	}
	out := make([]PropertyChange, len(coll.history))
	copy(out, coll.history)
	return out
}

// RemoveAll drops every property and the history for an element. Called
// during element deletion.
func (s *PropertyStore) RemoveAll(elementID valueobjects.ElementID) {
	delete(s.collections, elementID)
}

// Count returns how many properties an element carries
func (s *PropertyStore) Count(elementID valueobjects.ElementID) int {
	coll, ok := s.collections[elementID]
	if !ok {
		return 0
	}
	return len(coll.props)
}

func (s *PropertyStore) collection(elementID valueobjects.ElementID) *propertyCollection {
	coll, ok := s.collections[elementID]
	if !ok {
		coll = &propertyCollection{props: make(map[string]entities.Property)}
		s.collections[elementID] = coll
	}
	return coll
}

func (c *propertyCollection) appendHistory(kind PropertyChangeKind, key string, oldValue, value interface{}) {
	c.history = append(c.history, PropertyChange{
		Kind:     kind,
		Key:      key,
		OldValue: oldValue,
		Value:    value,
		At:       time.Now(),
	})
}

func (s *PropertyStore) publish(ctx context.Context, elementID valueobjects.ElementID, key, change string, value interface{}) {
	event := events.NewPropertyChanged(elementID, key, change, value, time.Now())
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish property change",
			zap.String("elementID", elementID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
