package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	Unauthorized         ErrorCode = "UNAUTHORIZED"
	NotFound             ErrorCode = "NOT_FOUND"
	Forbidden            ErrorCode = "FORBIDDEN"
	Conflict             ErrorCode = "CONFLICT"
	BadGateway           ErrorCode = "BAD_GATEWAY"
)

// Domain error kinds. Service errors wrap one of these so callers can use
// errors.Is regardless of the transport.
var (
	ErrMaxStakeReached          = errors.New("max stake reached")
	ErrNotOwner                 = errors.New("caller is not the owner of the custody record")
	ErrFreezePeriodNotPassed    = errors.New("freeze period not passed")
	ErrArithmeticOverflow       = errors.New("arithmetic overflow")
	ErrUnderflow                = errors.New("underflow")
	ErrUserNotInitialized       = errors.New("user ledger not initialized")
	ErrUserAlreadyInitialized   = errors.New("user ledger already initialized")
	ErrUserHasActiveStakes      = errors.New("user has assets in custody")
	ErrConfigNotInitialized     = errors.New("global config not initialized")
	ErrConfigAlreadyInitialized = errors.New("global config already initialized")
	ErrAssetAlreadyStaked       = errors.New("asset already in custody")
	ErrCustodyRecordNotFound    = errors.New("custody record not found")
	ErrRegistry                 = errors.New("asset registry call failed")
)

type Error struct {
	StatusCode int
	ErrorCode  ErrorCode
	Err        error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        err,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        errors.New(msg),
	}
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

// NewDomainError wraps kind with optional context and picks the status code
// matching the kind.
func NewDomainError(kind error, format string, args ...any) *Error {
	err := kind
	if format != "" {
		err = fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
	}

	switch kind {
	case ErrMaxStakeReached, ErrFreezePeriodNotPassed, ErrUserAlreadyInitialized,
		ErrUserHasActiveStakes, ErrConfigAlreadyInitialized, ErrAssetAlreadyStaked:
		return NewError(http.StatusConflict, Conflict, err)
	case ErrNotOwner:
		return NewError(http.StatusForbidden, Forbidden, err)
	case ErrUserNotInitialized, ErrConfigNotInitialized, ErrCustodyRecordNotFound:
		return NewError(http.StatusNotFound, NotFound, err)
	case ErrRegistry:
		return NewError(http.StatusBadGateway, BadGateway, err)
	default:
		return NewError(http.StatusInternalServerError, InternalServiceError, err)
	}
}
