package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrLimitReached    = errors.New("usage limit reached")
	ErrNotEntitled     = errors.New("key not entitled for service")
	ErrUpstream        = errors.New("upstream provider request failed")

	// Infra errors
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)

// NotEntitledError carries the entitlement mismatch detail that the order
// endpoint deliberately exposes to callers for operator debugging.
type NotEntitledError struct {
	RequestedServiceID string
	PermittedServices  []string
}

func (e *NotEntitledError) Error() string {
	return fmt.Sprintf("service %s not permitted for key (permitted: %v)", e.RequestedServiceID, e.PermittedServices)
}

func (e *NotEntitledError) Unwrap() error { return ErrNotEntitled }

// QuantityLimitError reports an order quantity above the key's per-order
// cap, carrying the cap so callers can surface it.
type QuantityLimitError struct {
	Requested int
	Limit     int
}

func (e *QuantityLimitError) Error() string {
	return fmt.Sprintf("quantity %d exceeds key limit %d", e.Requested, e.Limit)
}

func (e *QuantityLimitError) Unwrap() error { return ErrInvalidArgument }
