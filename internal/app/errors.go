package app

import (
	"errors"
)

// UserError is caused by caller input or policy and is reported with a 400.
type UserError struct {
	Message string
	Data    interface{}
}

func (e *UserError) Error() string { return e.Message }

// ApplicationError is an upstream, persistence or configuration failure. Its
// details are logged and never shown to the caller.
type ApplicationError struct {
	Message string
	Data    interface{}
	Err     error
}

func (e *ApplicationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ApplicationError) Unwrap() error { return e.Err }

func NewUserError(message string, data interface{}) *UserError {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &UserError{Message: message, Data: data}
}

func NewApplicationError(message string, err error) *ApplicationError {
	return &ApplicationError{Message: message, Err: err}
}

// IsUserError reports whether err (or anything it wraps) is a UserError.
func IsUserError(err error) bool {
	var userErr *UserError
	return errors.As(err, &userErr)
}
