package validators

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archboard-backend/domain/core/entities"
	"archboard-backend/pkg/errors"
)

func TestPropertyValidator_ValidateKey(t *testing.T) {
	v := NewPropertyValidator()

	tests := []struct {
		name string
		key  string
		want []errors.ViolationCode
	}{
		{"valid", "deployment.region", nil},
		{"empty", "  ", []errors.ViolationCode{errors.ViolationRequired}},
		{"invalid characters", "has spaces", []errors.ViolationCode{errors.ViolationInvalidType}},
		{"too long", strings.Repeat("k", 200), []errors.ViolationCode{errors.ViolationRange}},
		{
			"too long and invalid",
			strings.Repeat("!", 200),
			[]errors.ViolationCode{errors.ViolationRange, errors.ViolationInvalidType},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := v.ValidateKey(tt.key)
			require.Len(t, violations, len(tt.want))
			for _, code := range tt.want {
				assert.True(t, violations.Has(code), "expected %s", code)
			}
		})
	}
}

func TestPropertyValidator_ValidateValueTypeMismatch(t *testing.T) {
	v := NewPropertyValidator()

	violations := v.ValidateValue("replicas", "three", entities.PropertyTypeNumber, entities.PropertyMeta{})
	assert.True(t, violations.Has(errors.ViolationInvalidType))
}

func TestPropertyValidator_CollectsEveryViolation(t *testing.T) {
	v := NewPropertyValidator()

	min := 5
	meta := entities.PropertyMeta{
		Required: true,
		Rules: entities.PropertyRules{
			MinLength: &min,
			Predicate: func(value interface{}) error {
				return fmt.Errorf("never acceptable")
			},
		},
	}

	// Short, blank, and predicate-rejected at once: all three reported
	violations := v.ValidateValue("note", "  ", entities.PropertyTypeText, meta)
	assert.True(t, violations.Has(errors.ViolationRange))
	assert.True(t, violations.Has(errors.ViolationRequired))
	assert.True(t, violations.Has(errors.ViolationCustom))
	assert.Len(t, violations, 3)
}

func TestPropertyValidator_NumberRules(t *testing.T) {
	v := NewPropertyValidator()

	min, max := 1.0, 10.0
	meta := entities.PropertyMeta{Rules: entities.PropertyRules{MinValue: &min, MaxValue: &max}}

	assert.True(t, v.ValidateValue("n", 0, entities.PropertyTypeNumber, meta).Has(errors.ViolationRange))
	assert.True(t, v.ValidateValue("n", 11.5, entities.PropertyTypeNumber, meta).Has(errors.ViolationRange))
	assert.Empty(t, v.ValidateValue("n", 5, entities.PropertyTypeNumber, meta))
}

func TestPropertyValidator_ArrayRules(t *testing.T) {
	v := NewPropertyValidator()

	minItems, maxItems := 1, 2
	meta := entities.PropertyMeta{Rules: entities.PropertyRules{MinItems: &minItems, MaxItems: &maxItems}}

	assert.True(t, v.ValidateValue("tags", []string{}, entities.PropertyTypeArray, meta).Has(errors.ViolationRange))
	assert.True(t, v.ValidateValue("tags", []string{"a", "b", "c"}, entities.PropertyTypeArray, meta).Has(errors.ViolationRange))
	assert.Empty(t, v.ValidateValue("tags", []string{"a"}, entities.PropertyTypeArray, meta))
}

func TestPropertyValidator_NilValue(t *testing.T) {
	v := NewPropertyValidator()

	assert.Empty(t, v.ValidateValue("note", nil, entities.PropertyTypeText, entities.PropertyMeta{}))
	assert.True(t, v.ValidateValue("note", nil, entities.PropertyTypeText,
		entities.PropertyMeta{Required: true}).Has(errors.ViolationRequired))
}

func TestSceneValidator(t *testing.T) {
	v := NewSceneValidator(nil)

	assert.Error(t, v.ValidateSceneName(" "))
	assert.NoError(t, v.ValidateSceneName("Payment Platform"))
	assert.Error(t, v.ValidateSceneName(strings.Repeat("x", 500)))

	assert.NoError(t, v.ValidateSceneDescription("short"))
	assert.Error(t, v.ValidateSceneDescription(strings.Repeat("x", 5000)))

	assert.NoError(t, v.ValidateNodeCount(10))
	assert.Error(t, v.ValidateNodeCount(100000))
	assert.NoError(t, v.ValidateEdgeCount(10))
	assert.Error(t, v.ValidateEdgeCount(100000))
}

func TestEdgeValidator(t *testing.T) {
	v := NewEdgeValidator()

	assert.ErrorIs(t, v.ValidateEndpoints("", "b"), errors.ErrEdgeEndpointMissing)
	assert.ErrorIs(t, v.ValidateEndpoints("a", "a"), errors.ErrSelfLoopRejected)
	assert.NoError(t, v.ValidateEndpoints("a", "b"))
}
