// Unified error handling for the zoom stage driver
//
// Copyright (C) 2026  Zoomctl Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import "fmt"

// ErrorCode represents the category of error
type ErrorCode string

const (
	// ErrConnection covers channel open and handshake failures. Fatal to
	// the driver instance; the caller must reconstruct.
	ErrConnection ErrorCode = "CONNECTION"

	// ErrRange is a coordinate or speed value outside its legal bound.
	// Raised before transmission; no bytes are sent and prior state is
	// unchanged.
	ErrRange ErrorCode = "RANGE"

	// ErrValidation is an unrecognized side or axis key in a request.
	ErrValidation ErrorCode = "VALIDATION"

	// ErrUnknownLevel is an unrecognized zoom level or side in a position
	// table lookup.
	ErrUnknownLevel ErrorCode = "UNKNOWN_LEVEL"

	// ErrProtocol means a command was sent but the acknowledgment line did
	// not arrive within the read timeout. Recovery is ambiguous: the
	// controller may or may not have executed the motion, so the error is
	// never retried internally.
	ErrProtocol ErrorCode = "PROTOCOL"
)

// DriverError is the unified error type for the driver.
type DriverError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *DriverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DriverError) Unwrap() error {
	return e.Err
}

// SetContext adds additional context
func (e *DriverError) SetContext(key string, value interface{}) *DriverError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new DriverError
func New(code ErrorCode, message string) *DriverError {
	return &DriverError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *DriverError {
	return &DriverError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ConnectionError creates an error for channel open or handshake failure.
func ConnectionError(message string, err error) *DriverError {
	return Wrap(err, ErrConnection, message)
}

// RangeError creates an error for a value outside its legal bound.
func RangeError(what string, value, min, max int) *DriverError {
	return New(ErrRange, fmt.Sprintf("%s value %d out of bounds [%d, %d]", what, value, min, max)).
		SetContext("value", value)
}

// ValidationError creates an error for an unrecognized request key.
func ValidationError(message string) *DriverError {
	return New(ErrValidation, message)
}

// UnknownLevelError creates an error for a position table lookup miss.
func UnknownLevelError(side, level string) *DriverError {
	return New(ErrUnknownLevel, fmt.Sprintf("no position entry for side '%s' level '%s'", side, level)).
		SetContext("side", side).
		SetContext("level", level)
}

// ProtocolError creates an error for a missing or bad acknowledgment.
func ProtocolError(command string, err error) *DriverError {
	return Wrap(err, ErrProtocol, fmt.Sprintf("no acknowledgment for command '%s'", command)).
		SetContext("command", command)
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if drvErr, ok := err.(*DriverError); ok {
		return drvErr.Code == code
	}
	return false
}

// IsConnection checks if error is a connection error
func IsConnection(err error) bool {
	return Is(err, ErrConnection)
}

// IsRange checks if error is a range error
func IsRange(err error) bool {
	return Is(err, ErrRange)
}

// IsValidation checks if error is a validation or lookup error
func IsValidation(err error) bool {
	return Is(err, ErrValidation) || Is(err, ErrUnknownLevel)
}

// IsProtocol checks if error is a protocol error
func IsProtocol(err error) bool {
	return Is(err, ErrProtocol)
}
