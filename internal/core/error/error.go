package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// ProviderErrorMessage describes a failed call to an external data provider.
	ProviderErrorMessage = "external provider failed"
	// BadRequestMessage is returned for malformed client input.
	BadRequestMessage = "invalid request"
)

var (
	// ErrNoCoordinates marks a location that could not be resolved to coordinates.
	ErrNoCoordinates = errors.New("no coordinates resolved")
	// ErrModelUnavailable marks a missing or exhausted language model.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrEmptyResponse marks a provider that answered with no usable payload.
	ErrEmptyResponse = errors.New("empty provider response")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis maps Redis errors to AppError. redis.Nil becomes a 404.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapProvider tags an upstream failure with the provider name.
func WrapProvider(provider string, err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%s: %w", provider, err), http.StatusBadGateway, ProviderErrorMessage)
}

// BadRequest wraps a validation failure.
func BadRequest(msg string) error {
	return New(errors.New(msg), http.StatusBadRequest, BadRequestMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
