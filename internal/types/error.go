package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	BadRequest           ErrorCode = "BAD_REQUEST"
	Unauthorized         ErrorCode = "UNAUTHORIZED"
	NotFound             ErrorCode = "NOT_FOUND"
	InsufficientFunds    ErrorCode = "INSUFFICIENT_FUNDS"
	DataShouldBeGiven    ErrorCode = "DATA_SHOULD_BE_GIVEN"
	ServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
)

func (c ErrorCode) String() string {
	return string(c)
}

// Error is returned by service operations and carries the http status the
// api layer responds with.
type Error struct {
	Err       error
	Status    int
	ErrorCode ErrorCode
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(status int, errorCode ErrorCode, err error) *Error {
	return &Error{
		Err:       err,
		Status:    status,
		ErrorCode: errorCode,
	}
}

func NewErrorWithMsg(status int, errorCode ErrorCode, msg string) *Error {
	return NewError(status, errorCode, errors.New(msg))
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

func NewUnauthorizedError(msg string) *Error {
	return NewErrorWithMsg(http.StatusForbidden, Unauthorized, msg)
}

func NewBadRequestError(err error) *Error {
	return NewError(http.StatusBadRequest, BadRequest, err)
}
