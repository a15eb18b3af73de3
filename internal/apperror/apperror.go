// Package apperror carries the status code shared by stores, services and handlers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is an HTTP-style status code. It is the only status type passed between layers.
type Code int

const (
	CodeOK         Code = http.StatusOK
	CodeBadRequest Code = http.StatusBadRequest
	CodeConflict   Code = http.StatusConflict
	CodeInternal   Code = http.StatusInternalServerError
)

// Error is a failure that already knows the status and the message a caller should see.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// FieldNotSupplied is the invoice API's missing-field error.
func FieldNotSupplied(field string) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf("%s field not supplied", field)}
}

// MissingFromRequest is the document API's missing-field error.
func MissingFromRequest(field string) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf("Missing %s from request.", field)}
}

// CodeOf returns the status carried by err. Untyped errors count as internal failures.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-facing message, or fallback for untyped errors.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
