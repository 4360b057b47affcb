package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidAPIKey = fmt.Errorf("%w: invalid api key", ErrUnauthorized)
	ErrMissingAPIKey = fmt.Errorf("%w: missing api key", ErrUnauthorized)

	ErrForbidden      = errors.New("forbidden")
	ErrDeviceBlocked  = fmt.Errorf("%w: device blocked", ErrForbidden)
	ErrDeviceInactive = fmt.Errorf("%w: device inactive", ErrForbidden)
	ErrDeviceMismatch = fmt.Errorf("%w: device id mismatch", ErrForbidden)

	ErrBadRequest       = errors.New("bad request")
	ErrMissingHeaders   = fmt.Errorf("%w: missing required headers", ErrBadRequest)
	ErrInvalidTimestamp = fmt.Errorf("%w: invalid timestamp", ErrBadRequest)
	ErrTimestampExpired = fmt.Errorf("%w: request timestamp outside tolerance", ErrBadRequest)
	ErrBadSignature     = fmt.Errorf("%w: request verification failed", ErrBadRequest)
	ErrDuplicateNonce   = fmt.Errorf("%w: nonce already used", ErrBadRequest)

	ErrExhaustedSuffix     = errors.New("no reservation suffix available")
	ErrReservationConflict = errors.New("transaction already holds a reservation for another amount")

	ErrDeviceNotFound       = errors.New("device not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrApprovalNotFound     = errors.New("approval not found")
	ErrApprovalNotPending   = errors.New("approval is not pending review")
)

// ValidationError reports schema failures per field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, problem string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = problem
	}
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil lets callers return the accumulated error only when it is non-empty.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
