package store

import (
	"errors"
	"fmt"
)

// Backend sentinel errors.
var (
	// ErrConditionFailed is returned by Backend.PutIfAbsent when the key already exists.
	ErrConditionFailed = errors.New("conditional write failed")
	// ErrItemNotFound is returned by Backend.Get and Backend.Update for a missing key.
	ErrItemNotFound = errors.New("item not found")
)

// NotFoundError is returned when the target record does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("figure %s not found", e.ID)
}

// DuplicateNameError is returned when another record already holds the name.
type DuplicateNameError struct {
	Name       string
	ExistingID string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("figure with name %s already exists (%s)", e.Name, e.ExistingID)
}

// ConcurrentAllocationError is returned when a concurrent writer took the
// identifier allocated for a new record. The whole creation may be retried.
type ConcurrentAllocationError struct {
	ID    string
	Cause error
}

func (e *ConcurrentAllocationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("concurrent create in progress: %v", e.Cause)
	}
	if e.Cause != nil {
		return fmt.Sprintf("identifier %s was allocated concurrently: %v", e.ID, e.Cause)
	}
	return fmt.Sprintf("identifier %s was allocated concurrently", e.ID)
}

func (e *ConcurrentAllocationError) Unwrap() error {
	return e.Cause
}

// Retryable reports that the operation can be retried from scratch.
func (e *ConcurrentAllocationError) Retryable() bool {
	return true
}
