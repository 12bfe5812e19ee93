package entities

import (
	"time"
)

// PropertyType describes the value shape of a property
type PropertyType string

const (
	PropertyTypeText    PropertyType = "text"
	PropertyTypeNumber  PropertyType = "number"
	PropertyTypeBoolean PropertyType = "boolean"
	PropertyTypeArray   PropertyType = "array"
	PropertyTypeObject  PropertyType = "object"
)

// DetectPropertyType infers the property type from a Go value
func DetectPropertyType(value interface{}) PropertyType {
	switch value.(type) {
	case string:
		return PropertyTypeText
	case float64, float32, int, int32, int64:
		return PropertyTypeNumber
	case bool:
		return PropertyTypeBoolean
	case []interface{}, []string, []float64:
		return PropertyTypeArray
	default:
		return PropertyTypeObject
	}
}

// PropertyRules holds the optional validation constraints for a property.
// Nil pointers mean the constraint is not applied.
type PropertyRules struct {
	MinValue  *float64                `json:"min_value,omitempty"`
	MaxValue  *float64                `json:"max_value,omitempty"`
	MinLength *int                    `json:"min_length,omitempty"`
	MaxLength *int                    `json:"max_length,omitempty"`
	MinItems  *int                    `json:"min_items,omitempty"`
	MaxItems  *int                    `json:"max_items,omitempty"`
	Predicate func(interface{}) error `json:"-"`
}

// PropertyMeta carries display and validation metadata for a property
type PropertyMeta struct {
	Category string        `json:"category,omitempty"`
	Required bool          `json:"required"`
	ReadOnly bool          `json:"read_only"`
	Rules    PropertyRules `json:"rules"`
}

// Property is a typed key/value pair attached to a diagram element.
// Order is assigned by the store and only ever increases within an element,
// so re-adding a removed key always sorts after surviving properties.
type Property struct {
	Key       string       `json:"key"`
	Value     interface{}  `json:"value"`
	Type      PropertyType `json:"type"`
	Order     int64        `json:"order"`
	Meta      PropertyMeta `json:"meta"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewProperty creates a property, inferring the type from the value
func NewProperty(key string, value interface{}, meta PropertyMeta) Property {
	return Property{
		Key:       key,
		Value:     value,
		Type:      DetectPropertyType(value),
		Meta:      meta,
		UpdatedAt: time.Now(),
	}
}

// WithOrder returns a copy of the property carrying the given order
func (p Property) WithOrder(order int64) Property {
	p.Order = order
	return p
}
