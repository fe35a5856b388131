package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStreamUnavailable is wrapped by the DecodeError returned when stream
// decoding is requested for a response without a body.
var ErrStreamUnavailable = errors.New("response body is not available for streaming")

// ClientError represents the error kinds returned by the client
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	ConfigError       ErrorType = "config"
	TimeoutError      ErrorType = "timeout"
	CancellationError ErrorType = "cancellation"
	TransportError    ErrorType = "transport"
	DecodeError       ErrorType = "decode"
	InterceptorError  ErrorType = "interceptor"
	HTTPError         ErrorType = "http"
)

// Interceptor stages reported by InterceptorError
const (
	StageRequest  = "request"
	StageResponse = "response"
)

// configError represents a request that could not be built
type configError struct {
	message string
	field   string
	wrapped error
}

func (e *configError) Error() string {
	msg := "config error: " + e.message
	if e.field != "" {
		msg += fmt.Sprintf(" (field: %s)", e.field)
	}
	if e.wrapped != nil {
		msg += ": " + e.wrapped.Error()
	}
	return msg
}

func (e *configError) Type() ErrorType { return ConfigError }

func (e *configError) Unwrap() error { return e.wrapped }

// Field returns the offending request field.
func (e *configError) Field() string { return e.field }

// timeoutError represents an attempt that exceeded its deadline
type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType { return TimeoutError }

func (e *timeoutError) Unwrap() error { return context.DeadlineExceeded }

// Timeout returns the per-attempt timeout that expired.
func (e *timeoutError) Timeout() time.Duration { return e.timeout }

// cancellationError represents a call aborted by the caller
type cancellationError struct {
	message string
	cause   error
}

func (e *cancellationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("cancellation error: %s: %v", e.message, e.cause)
	}
	return "cancellation error: " + e.message
}

func (e *cancellationError) Type() ErrorType { return CancellationError }

func (e *cancellationError) Unwrap() error { return e.cause }

// transportError represents network and I/O failures
type transportError struct {
	message string
	wrapped error
}

func (e *transportError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("transport error: %s: %v", e.message, e.wrapped)
	}
	return "transport error: " + e.message
}

func (e *transportError) Type() ErrorType { return TransportError }

func (e *transportError) Unwrap() error { return e.wrapped }

// decodeError represents a body that could not be decoded
type decodeError struct {
	message  string
	decoding Decoding
	wrapped  error
}

func (e *decodeError) Error() string {
	msg := fmt.Sprintf("decode error: %s (decoding: %s)", e.message, e.decoding)
	if e.wrapped != nil {
		msg += ": " + e.wrapped.Error()
	}
	return msg
}

func (e *decodeError) Type() ErrorType { return DecodeError }

func (e *decodeError) Unwrap() error { return e.wrapped }

// Decoding returns the decoding mode that failed.
func (e *decodeError) Decoding() Decoding { return e.decoding }

// interceptorError represents interceptor-related errors
type interceptorError struct {
	message string
	wrapped error
	stage   string
	index   int
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error: %s (stage: %s, index: %d): %v", e.message, e.stage, e.index, e.wrapped)
}

func (e *interceptorError) Type() ErrorType { return InterceptorError }

func (e *interceptorError) Unwrap() error { return e.wrapped }

// Stage returns "request" or "response".
func (e *interceptorError) Stage() string { return e.stage }

// httpError represents a non-2xx response converted with Response.Err
type httpError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType { return HTTPError }

func (e *httpError) StatusCode() int { return e.statusCode }

func (e *httpError) Body() []byte { return e.body }

// NewConfigError creates a new config error
func NewConfigError(message, field string, wrapped error) ClientError {
	return &configError{message: message, field: field, wrapped: wrapped}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{message: message, timeout: timeout}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(message string, cause error) ClientError {
	return &cancellationError{message: message, cause: cause}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, wrapped error) ClientError {
	return &transportError{message: message, wrapped: wrapped}
}

// NewDecodeError creates a new decode error
func NewDecodeError(message string, decoding Decoding, wrapped error) ClientError {
	return &decodeError{message: message, decoding: decoding, wrapped: wrapped}
}

// NewInterceptorError creates a new interceptor error
func NewInterceptorError(message, stage string, index int, wrapped error) ClientError {
	return &interceptorError{message: message, stage: stage, index: index, wrapped: wrapped}
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{message: message, statusCode: statusCode, body: body}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsHTTPStatusError checks if an error is an HTTP error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == statusCode
	}
	return false
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// Err returns an HTTPError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r == nil || r.Success {
		return nil
	}
	return NewHTTPError(fmt.Sprintf("request failed with status %d", r.StatusCode), r.StatusCode, r.Body)
}
