package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequiredFields    ErrorCode = "REQUIRED_FIELDS"
	ErrCodeInvalidAmount     ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidCategory   ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidDate       ErrorCode = "INVALID_DATE"
	ErrCodePasswordMismatch  ErrorCode = "PASSWORD_MISMATCH"
	ErrCodeInvalidRuleType   ErrorCode = "INVALID_RULE_TYPE"
	ErrCodeInvalidThreshold  ErrorCode = "INVALID_THRESHOLD"
	ErrCodeMissingApprover   ErrorCode = "MISSING_APPROVER"
	ErrCodeInvalidAction     ErrorCode = "INVALID_ACTION"
	ErrCodeInvalidIdentifier ErrorCode = "INVALID_IDENTIFIER"

	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeSessionInvalid   ErrorCode = "SESSION_INVALID"
	ErrCodeRoleNotAllowed   ErrorCode = "ROLE_NOT_ALLOWED"
	ErrCodeUnknownRole      ErrorCode = "UNKNOWN_ROLE"

	ErrCodeModalNotFound ErrorCode = "MODAL_NOT_FOUND"
	ErrCodeUnknownModal  ErrorCode = "UNKNOWN_MODAL"

	ErrCodeNetwork         ErrorCode = "NETWORK_ERROR"
	ErrCodeUpstream        ErrorCode = "UPSTREAM_ERROR"
	ErrCodeInvalidResponse ErrorCode = "INVALID_RESPONSE"
	ErrCodeContract        ErrorCode = "CONTRACT_VIOLATION"
)

// NetworkErrorMessage is shown whenever the remote API could not be reached.
const NetworkErrorMessage = "Network error. Please try again."

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	// UpstreamStatus is the status returned by the remote API, zero when no response was received.
	UpstreamStatus int   `json:"-"`
	Cause          error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage joins every field message, falling back to Message.
func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// FieldMessage returns the message recorded for field, if any.
func (v ValidationErrors) FieldMessage(field string) string {
	for _, err := range v.Errors {
		if err.Field == field {
			return err.Message
		}
	}
	return ""
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewExternalError describes a failed call to the remote API. The console
// answers such failures with 502 and keeps the upstream status for display.
func NewExternalError(message string, code ErrorCode, upstreamStatus int) *AppError {
	return &AppError{
		Type:           ErrorTypeExternal,
		Code:           code,
		Message:        message,
		StatusCode:     http.StatusBadGateway,
		UpstreamStatus: upstreamStatus,
	}
}

func NewNetworkError(cause error) *AppError {
	return NewExternalError(NetworkErrorMessage, ErrCodeNetwork, 0).WithCause(cause)
}

var (
	ErrNotAuthenticated = NewUnauthorizedError("Please sign in to continue", ErrCodeNotAuthenticated)
	ErrSessionInvalid   = NewUnauthorizedError("Session is invalid or expired", ErrCodeSessionInvalid)
	ErrRoleNotAllowed   = NewForbiddenError("Your role cannot access this view", ErrCodeRoleNotAllowed)
	ErrModalNotFound    = NewNotFoundError("This dialog is no longer open", ErrCodeModalNotFound)
	ErrPasswordMismatch = NewValidationFieldError("password_confirm", "Passwords do not match", ErrCodePasswordMismatch)
)

// IsAppError reports whether err is, or wraps, an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// UserMessage returns the text shown to a user for err.
func UserMessage(err error, fallback string) string {
	if appErr, ok := IsAppError(err); ok {
		if msg := appErr.GetDetailedMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
