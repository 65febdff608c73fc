package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match wrapped copies of the sentinel errors below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound         = NewError(ErrCodeNotFound, "user not found")
	ErrSessionNotFound      = NewError(ErrCodeNotFound, "session not found")
	ErrDocumentNotFound     = NewError(ErrCodeNotFound, "document not found")
	ErrBuyerNotFound        = NewError(ErrCodeNotFound, "buyer not found")
	ErrSellerNotFound       = NewError(ErrCodeNotFound, "seller not found")
	ErrMatchNotFound        = NewError(ErrCodeNotFound, "match not found")
	ErrMeetingNotFound      = NewError(ErrCodeNotFound, "meeting not found")
	ErrMessageNotFound      = NewError(ErrCodeNotFound, "message not found")
	ErrNotificationNotFound = NewError(ErrCodeNotFound, "notification not found")
	ErrDealNotFound         = NewError(ErrCodeNotFound, "deal not found")
	ErrStageNotFound        = NewError(ErrCodeNotFound, "deal stage not found")
	ErrWizardNotFound       = NewError(ErrCodeNotFound, "onboarding wizard not found")
	ErrPreferenceMissing    = NewError(ErrCodeNotFound, "preference not set")
	ErrUnauthorized         = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidStep          = NewError(ErrCodeInvalid, "invalid onboarding step")
	ErrInvalidTransition    = NewError(ErrCodeConflict, "invalid status transition")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
