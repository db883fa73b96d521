package shared

import (
	"errors"
	"fmt"
	"net/http"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the error type every service returns for a deterministic
// rejection. The HTTP error handler renders StatusCode and Message, with
// Data as the response payload.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can test with errors.Is(err, ErrX) style sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.StatusCode == e.StatusCode
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewValidationError(field, message string) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeValidation,
		Message:    "Validation failed",
		Data:       []FieldError{{Field: field, Message: message}},
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeBadRequest,
		Message:    message,
		Err:        err,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    resource + " not found",
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeUnauthorized,
		Message:    message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		StatusCode: http.StatusForbidden,
		Code:       CodeForbidden,
		Message:    message,
	}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       code,
		Message:    message,
		Data:       map[string]string{"error_code": code},
	}
}

// NewRuleError is a 400 carrying a domain code, used for requests that are
// well formed but not allowed in the current state.
func NewRuleError(code, message string) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       code,
		Message:    message,
		Data:       map[string]string{"error_code": code},
	}
}

func NewUnavailableError(message string, err error) *AppError {
	return &AppError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       CodeUnavailable,
		Message:    message,
		Err:        err,
	}
}

// WithCode replaces the error code, exposing it to clients in Data.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	e.Data = map[string]string{"error_code": code}
	return e
}
