package errors

import "errors"

// Standard API Errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrAppNotRunning  = errors.New("app is not running")
)
