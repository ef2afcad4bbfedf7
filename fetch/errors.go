package fetch

import (
	"errors"
	"fmt"
)

// ErrConfig indicates a missing or blank credential/URL. Raised before any
// network activity.
type ErrConfig struct {
	Err error
}

func (e ErrConfig) Error() string {
	return fmt.Errorf("config: %w", e.Err).Error()
}

func (e ErrConfig) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates a timeout while issuing the request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrTransport covers any other transport-level failure where no HTTP
// exchange completed.
type ErrTransport struct {
	Err error
}

func (e ErrTransport) Error() string {
	return fmt.Errorf("transport: %w", e.Err).Error()
}

func (e ErrTransport) Unwrap() error {
	return e.Err
}

// ErrStatus indicates a completed exchange with a non-2xx status. Produced
// by Validate, never by Fetch itself.
type ErrStatus struct {
	StatusCode int
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("status %d, not 2xx", e.StatusCode)
}

// ErrorTypeLabel buckets an error for metrics and run reports.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var config ErrConfig
	if errors.As(err, &config) {
		return "config"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var transport ErrTransport
	if errors.As(err, &transport) {
		return "transport"
	}
	var status ErrStatus
	if errors.As(err, &status) {
		return "validation"
	}
	return "other"
}
