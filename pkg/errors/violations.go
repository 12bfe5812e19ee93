package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ViolationCode identifies a single property validation failure
type ViolationCode string

const (
	ViolationDuplicateKey ViolationCode = "DUPLICATE_KEY"
	ViolationNotFound     ViolationCode = "NOT_FOUND"
	ViolationInvalidType  ViolationCode = "INVALID_TYPE"
	ViolationRequired     ViolationCode = "REQUIRED"
	ViolationRange        ViolationCode = "RANGE"
	ViolationReadOnly     ViolationCode = "READ_ONLY"
	ViolationCustom       ViolationCode = "CUSTOM"
)

// Violation describes one validation failure on a property operation
type Violation struct {
	Code    ViolationCode `json:"code"`
	Field   string        `json:"field,omitempty"`
	Message string        `json:"message"`
}

// ViolationList collects every validation failure found during a single
// property operation. Checks never short-circuit, so a UI can display all
// problems at once.
type ViolationList []Violation

// Error implements the error interface
func (v ViolationList) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, len(v))
	for i, violation := range v {
		if violation.Field != "" {
			messages[i] = fmt.Sprintf("%s: %s", violation.Field, violation.Message)
		} else {
			messages[i] = violation.Message
		}
	}
	return "property validation failed: " + strings.Join(messages, "; ")
}

// Empty reports whether no violations were collected
func (v ViolationList) Empty() bool {
	return len(v) == 0
}

// Has reports whether a violation with the given code was collected
func (v ViolationList) Has(code ViolationCode) bool {
	for _, violation := range v {
		if violation.Code == code {
			return true
		}
	}
	return false
}

// NewViolation creates a single violation
func NewViolation(code ViolationCode, field, message string) Violation {
	return Violation{Code: code, Field: field, Message: message}
}

// AsViolations extracts a ViolationList from an error chain
func AsViolations(err error) (ViolationList, bool) {
	var list ViolationList
	if errors.As(err, &list) {
		return list, true
	}
	return nil, false
}
