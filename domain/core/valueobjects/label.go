package valueobjects

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"archboard-backend/domain/config"
	pkgerrors "archboard-backend/pkg/errors"
)

// Label is a value object for the display name of a node
type Label struct {
	value string
}

// NewLabel creates a label with validation using default configuration
func NewLabel(value string) (Label, error) {
	return NewLabelWithConfig(value, config.DefaultDomainConfig())
}

// NewLabelWithConfig creates a label with validation and configuration
func NewLabelWithConfig(value string, cfg *config.DomainConfig) (Label, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	value = strings.TrimSpace(value)

	if value == "" {
		return Label{}, pkgerrors.NewValidationError("label cannot be empty")
	}

	length := utf8.RuneCountInString(value)
	if length < cfg.MinNameLength {
		return Label{}, fmt.Errorf("label too short: minimum %d characters required", cfg.MinNameLength)
	}
	if length > cfg.MaxNameLength {
		return Label{}, fmt.Errorf("label exceeds maximum length of %d characters", cfg.MaxNameLength)
	}

	return Label{value: value}, nil
}

// String returns the label text
func (l Label) String() string {
	return l.value
}

// Equals checks label equality
func (l Label) Equals(other Label) bool {
	return l.value == other.value
}

// IsEmpty reports whether the label carries no text
func (l Label) IsEmpty() bool {
	return l.value == ""
}

// MarshalJSON implements json.Marshaler
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Label) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &l.value)
}
