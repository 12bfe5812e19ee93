package errors

import (
	"fmt"
	"net/http"
)

// DomainErrorType categorizes editing-rule failures.
type DomainErrorType string

const (
	DomainValidationError     DomainErrorType = "VALIDATION_ERROR"
	DomainBusinessRuleError   DomainErrorType = "BUSINESS_RULE_ERROR"
	DomainNotFoundError       DomainErrorType = "NOT_FOUND"
	DomainConflictError       DomainErrorType = "CONFLICT"
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// DomainError is the error shape domain code returns for rule violations.
// Identity is Type plus Code, so errors.Is matches a decorated instance
// against its sentinel.
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError builds a domain error with the HTTP status implied by its type.
func NewDomainError(errorType DomainErrorType, code, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		StatusCode: domainStatus(errorType),
	}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Is matches on Type and Code only.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// clone keeps the package-level sentinels immutable: every With* modifier
// decorates a copy, never the original.
func (e *DomainError) clone() *DomainError {
	dup := *e
	if e.Details != nil {
		dup.Details = make(map[string]interface{}, len(e.Details))
		for k, v := range e.Details {
			dup.Details[k] = v
		}
	}
	return &dup
}

// WithDetail returns a copy carrying an extra key/value pair.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	dup := e.clone()
	if dup.Details == nil {
		dup.Details = make(map[string]interface{}, 1)
	}
	dup.Details[key] = value
	return dup
}

// WithCause returns a copy wrapping an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	dup := e.clone()
	dup.Cause = cause
	return dup
}

// WithRetryable returns a copy with the retryable flag set.
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	dup := e.clone()
	dup.Retryable = retryable
	return dup
}

func domainStatus(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainBusinessRuleError:
		return http.StatusUnprocessableEntity
	case DomainNotFoundError:
		return http.StatusNotFound
	case DomainConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for every rule the editor enforces. Callers decorate them with
// WithDetail and compare with errors.Is.
var (
	ErrSceneNotFound = NewDomainError(DomainNotFoundError,
		"SCENE_NOT_FOUND", "The requested scene does not exist")

	ErrSceneNodeLimit = NewDomainError(DomainBusinessRuleError,
		"SCENE_NODE_LIMIT", "Maximum number of nodes in scene exceeded")

	ErrSceneNameRequired = NewDomainError(DomainValidationError,
		"SCENE_NAME_REQUIRED", "Scene name is required")

	ErrElementNotFound = NewDomainError(DomainNotFoundError,
		"ELEMENT_NOT_FOUND", "The requested element does not exist")

	ErrNodeNameRequired = NewDomainError(DomainValidationError,
		"NODE_NAME_REQUIRED", "Node name is required")

	ErrInvalidNodeKind = NewDomainError(DomainValidationError,
		"INVALID_NODE_KIND", "Node kind must be one of person, system, container, component")

	ErrEdgeNotFound = NewDomainError(DomainNotFoundError,
		"EDGE_NOT_FOUND", "The requested edge does not exist")

	ErrEdgeEndpointMissing = NewDomainError(DomainValidationError,
		"EDGE_ENDPOINT_MISSING", "Edge endpoints must reference existing nodes")

	ErrSelfLoopRejected = NewDomainError(DomainBusinessRuleError,
		"SELF_LOOP_REJECTED", "Cannot create an edge from a node to itself")

	ErrNoActiveSession = NewDomainError(DomainConflictError,
		"NO_ACTIVE_SESSION", "No connection session is in progress")

	ErrDeletionInFlight = NewDomainError(DomainConflictError,
		"DELETION_IN_FLIGHT", "The element is already being deleted").WithRetryable(true)

	ErrNodeStillConnected = NewDomainError(DomainBusinessRuleError,
		"NODE_STILL_CONNECTED", "Cannot remove a node while edges still reference it")
)
