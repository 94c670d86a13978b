package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateContract is returned when the client already has an active
	// contract for the product
	ErrDuplicateContract = errors.New("client already has an active contract for this product")

	// ErrInvalidTransition is returned when a status change is not allowed
	// by the contract lifecycle
	ErrInvalidTransition = errors.New("invalid contract status transition")

	// ErrCancelViaUpdate is returned when an update tries to set the
	// cancelled status; cancellation has its own endpoint
	ErrCancelViaUpdate = errors.New("cancellation must go through the cancel endpoint")

	// ErrMissingOperationNumber is returned when a cancellation cannot reach
	// the carrier because the approval left no operation number
	ErrMissingOperationNumber = errors.New("contract has no carrier operation number")

	// ErrCancellationRejected is returned when the carrier refuses to cancel
	ErrCancellationRejected = errors.New("carrier rejected the cancellation")

	// ErrNotCancelled is returned when trash is requested for a contract
	// that is not cancelled
	ErrNotCancelled = errors.New("contract must be cancelled first")

	// ErrNotTrashed is returned when restore or force delete is requested
	// for a contract that is not in the trash
	ErrNotTrashed = errors.New("contract is not in the trash")
)
