package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound               = errors.New("entity not found")
	ErrAlreadyExists          = errors.New("entity already exists")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidExecContext     = errors.New("invalid executor context")
	ErrReadDatabaseRow        = errors.New("failed to read database row")
	ErrSourceUnavailable      = errors.New("listing source unavailable")
	ErrDeliveryFailed         = errors.New("notification delivery failed")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
)
