package validators

import (
	"fmt"
	"regexp"
	"strings"

	"archboard-backend/domain/config"
	"archboard-backend/domain/core/entities"
	"archboard-backend/pkg/errors"
)

// PropertyValidator validates property-related domain rules.
// Every check runs to completion so callers receive the full set of
// violations in one pass, never just the first.
type PropertyValidator struct {
	keyMaxLength int
	keyPattern   *regexp.Regexp
}

// NewPropertyValidator creates a property validator with default rules
func NewPropertyValidator() *PropertyValidator {
	return NewPropertyValidatorWithConfig(config.DefaultDomainConfig())
}

// NewPropertyValidatorWithConfig creates a property validator from configuration
func NewPropertyValidatorWithConfig(cfg *config.DomainConfig) *PropertyValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &PropertyValidator{
		keyMaxLength: cfg.MaxPropertyKeyLength,
		keyPattern:   regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`),
	}
}

// ValidateKey validates a property key and returns every violation found
func (v *PropertyValidator) ValidateKey(key string) errors.ViolationList {
	var violations errors.ViolationList

	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		violations = append(violations, errors.NewViolation(
			errors.ViolationRequired, "key", "property key cannot be empty"))
		return violations
	}

	if len(trimmed) > v.keyMaxLength {
		violations = append(violations, errors.NewViolation(
			errors.ViolationRange, "key",
			fmt.Sprintf("property key exceeds maximum length of %d characters", v.keyMaxLength)))
	}

	if !v.keyPattern.MatchString(trimmed) {
		violations = append(violations, errors.NewViolation(
			errors.ViolationInvalidType, "key", "property key contains invalid characters"))
	}

	return violations
}

// ValidateValue validates a value against the property's declared type and
// rules. All applicable checks run; nothing short-circuits.
func (v *PropertyValidator) ValidateValue(key string, value interface{}, propType entities.PropertyType, meta entities.PropertyMeta) errors.ViolationList {
	var violations errors.ViolationList

	if value == nil {
		if meta.Required {
			violations = append(violations, errors.NewViolation(
				errors.ViolationRequired, key, "property value is required"))
		}
		return violations
	}

	detected := entities.DetectPropertyType(value)
	if detected != propType {
		violations = append(violations, errors.NewViolation(
			errors.ViolationInvalidType, key,
			fmt.Sprintf("expected %s value, got %s", propType, detected)))
	}

	rules := meta.Rules

	switch propType {
	case entities.PropertyTypeText:
		if s, ok := value.(string); ok {
			length := len(s)
			if rules.MinLength != nil && length < *rules.MinLength {
				violations = append(violations, errors.NewViolation(
					errors.ViolationRange, key,
					fmt.Sprintf("text shorter than minimum length %d", *rules.MinLength)))
			}
			if rules.MaxLength != nil && length > *rules.MaxLength {
				violations = append(violations, errors.NewViolation(
					errors.ViolationRange, key,
					fmt.Sprintf("text exceeds maximum length %d", *rules.MaxLength)))
			}
			if meta.Required && strings.TrimSpace(s) == "" {
				violations = append(violations, errors.NewViolation(
					errors.ViolationRequired, key, "property value is required"))
			}
		}

	case entities.PropertyTypeNumber:
		if n, ok := asFloat(value); ok {
			if rules.MinValue != nil && n < *rules.MinValue {
				violations = append(violations, errors.NewViolation(
					errors.ViolationRange, key,
					fmt.Sprintf("value %g below minimum %g", n, *rules.MinValue)))
			}
			if rules.MaxValue != nil && n > *rules.MaxValue {
				violations = append(violations, errors.NewViolation(
					errors.ViolationRange, key,
					fmt.Sprintf("value %g above maximum %g", n, *rules.MaxValue)))
			}
		}

	case entities.PropertyTypeArray:
		if count, ok := itemCount(value); ok {
			if rules.MinItems != nil && count < *rules.MinItems {
				violations = append(violations, errors.NewViolation(
					errors.ViolationRange, key,
					fmt.Sprintf("array has fewer than %d items", *rules.MinItems)))
			}
			if rules.MaxItems != nil && count > *rules.MaxItems {
				violations = append(violations, errors.NewViolation(
					errors.ViolationRange, key,
					fmt.Sprintf("array has more than %d items", *rules.MaxItems)))
			}
		}
	}

	if rules.Predicate != nil {
		if err := rules.Predicate(value); err != nil {
			violations = append(violations, errors.NewViolation(
				errors.ViolationCustom, key, err.Error()))
		}
	}

	return violations
}

// ValidateProperty runs key and value validation together
func (v *PropertyValidator) ValidateProperty(prop entities.Property) errors.ViolationList {
	violations := v.ValidateKey(prop.Key)
	violations = append(violations, v.ValidateValue(prop.Key, prop.Value, prop.Type, prop.Meta)...)
	return violations
}

func asFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func itemCount(value interface{}) (int, bool) {
	switch items := value.(type) {
	case []interface{}:
		return len(items), true
	case []string:
		return len(items), true
	case []float64:
		return len(items), true
	default:
		return 0, false
	}
}

// SceneValidator validates scene-level domain rules
type SceneValidator struct {
	nameMinLength    int
	nameMaxLength    int
	descMaxLength    int
	maxNodesPerScene int
	maxEdgesPerScene int
}

// NewSceneValidator creates a scene validator from configuration
func NewSceneValidator(cfg *config.DomainConfig) *SceneValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SceneValidator{
		nameMinLength:    cfg.MinNameLength,
		nameMaxLength:    cfg.MaxNameLength,
		descMaxLength:    cfg.MaxDescriptionLength,
		maxNodesPerScene: cfg.MaxNodesPerScene,
		maxEdgesPerScene: cfg.MaxEdgesPerScene,
	}
}

// ValidateSceneName validates the scene name
func (v *SceneValidator) ValidateSceneName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < v.nameMinLength {
		return errors.ErrSceneNameRequired
	}

	if len(name) > v.nameMaxLength {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"SCENE_NAME_TOO_LONG",
			"Scene name exceeds maximum length",
		).WithDetail("max_length", v.nameMaxLength)
	}

	return nil
}

// ValidateSceneDescription validates the scene description
func (v *SceneValidator) ValidateSceneDescription(desc string) error {
	if len(desc) > v.descMaxLength {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"SCENE_DESCRIPTION_TOO_LONG",
			"Scene description exceeds maximum length",
		).WithDetail("max_length", v.descMaxLength)
	}

	return nil
}

// ValidateNodeCount validates the number of nodes in a scene
func (v *SceneValidator) ValidateNodeCount(count int) error {
	if count > v.maxNodesPerScene {
		return errors.ErrSceneNodeLimit.
			WithDetail("current", count).
			WithDetail("limit", v.maxNodesPerScene)
	}

	return nil
}

// ValidateEdgeCount validates the number of edges in a scene
func (v *SceneValidator) ValidateEdgeCount(count int) error {
	if count > v.maxEdgesPerScene {
		return errors.NewDomainError(
			errors.DomainBusinessRuleError,
			"EDGE_LIMIT_EXCEEDED",
			"Maximum number of edges in scene exceeded",
		).WithDetail("current", count).WithDetail("limit", v.maxEdgesPerScene)
	}

	return nil
}

// EdgeValidator validates edge-related domain rules
type EdgeValidator struct{}

// NewEdgeValidator creates a new edge validator
func NewEdgeValidator() *EdgeValidator {
	return &EdgeValidator{}
}

// ValidateEndpoints validates an edge's endpoint pair
func (v *EdgeValidator) ValidateEndpoints(sourceID, targetID string) error {
	if sourceID == "" || targetID == "" {
		return errors.ErrEdgeEndpointMissing
	}

	if sourceID == targetID {
		return errors.ErrSelfLoopRejected.
			WithDetail("node_id", sourceID)
	}

	return nil
}
