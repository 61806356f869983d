package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	// Transport errors (remote ledger or market service unreachable, or a
	// non-success status came back). Never retried automatically; recovery
	// is an explicit user re-invocation.
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeUpstreamStatus   ErrorCode = "UPSTREAM_STATUS"
	ErrCodeDecodeFailed     ErrorCode = "DECODE_FAILED"

	// Validation errors (malformed draft fields, bad input). Recovered
	// locally, block the state transition.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeSelfPayment      ErrorCode = "SELF_PAYMENT"
	ErrCodeInvalidScan      ErrorCode = "INVALID_SCAN"

	// Risk assessment degraded: non-fatal, the flow substitutes a
	// conservative HIGH assessment and continues.
	ErrCodeAssessmentDegraded ErrorCode = "ASSESSMENT_DEGRADED"

	// Flow state errors (confirm without review, duplicate flow, etc.)
	ErrCodeFlowState ErrorCode = "FLOW_STATE"

	// Session errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeSessionGone  ErrorCode = "SESSION_GONE"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// System errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeConfigError   ErrorCode = "CONFIG_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Err        error
	HTTPStatus int
	Retriable  bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string, err error) *AppError {
	appErr := &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
	appErr.setDefaults()
	return appErr
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

func (e *AppError) setDefaults() {
	switch e.Code {
	case ErrCodeTransportFailure:
		e.HTTPStatus = http.StatusServiceUnavailable
		e.Retriable = true

	case ErrCodeUpstreamStatus:
		e.HTTPStatus = http.StatusBadGateway
		e.Retriable = true

	case ErrCodeDecodeFailed:
		e.HTTPStatus = http.StatusBadGateway
		e.Retriable = false

	case ErrCodeValidationFailed, ErrCodeSelfPayment, ErrCodeInvalidScan:
		e.HTTPStatus = http.StatusBadRequest
		e.Retriable = false

	case ErrCodeAssessmentDegraded:
		// Non-fatal: the confirmation flow substitutes a HIGH-risk
		// assessment and proceeds.
		e.HTTPStatus = http.StatusOK
		e.Retriable = true

	case ErrCodeFlowState:
		e.HTTPStatus = http.StatusConflict
		e.Retriable = false

	case ErrCodeUnauthorized, ErrCodeSessionGone:
		e.HTTPStatus = http.StatusUnauthorized
		e.Retriable = false

	case ErrCodeNotFound:
		e.HTTPStatus = http.StatusNotFound
		e.Retriable = false

	default:
		e.HTTPStatus = http.StatusInternalServerError
		e.Retriable = false
	}
}

// AsAppError unwraps err to an *AppError, or wraps it as an internal error
// so handlers always have a code and status to report.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrCodeInternalError, err.Error(), err)
}

// ParseTransportError classifies a raw HTTP-client error from the ledger or
// market collaborator into the taxonomy.
func ParseTransportError(err error, operation string) *AppError {
	if err == nil {
		return nil
	}

	errLower := strings.ToLower(err.Error())

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "connection reset") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "network is unreachable") {
		return New(
			ErrCodeTransportFailure,
			fmt.Sprintf("Ledger service unreachable during %s", operation),
			err,
		).WithDetails("The ledger service is currently unreachable. Please try again later.")
	}

	if strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline exceeded") {
		return New(
			ErrCodeTransportFailure,
			fmt.Sprintf("Request timed out during %s", operation),
			err,
		).WithDetails("The ledger service did not respond in time. Please retry.")
	}

	return New(
		ErrCodeTransportFailure,
		fmt.Sprintf("Request failed during %s", operation),
		err,
	)
}

func NewValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message, errors.New("validation failed"))
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), errors.New("resource not found"))
}
