package domain

import "fmt"

// ValidationError reports malformed or out-of-range input. It never follows
// a state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// StateConflictError reports an operation that is invalid for the entity's
// current state, e.g. approving a non-PENDING refund.
type StateConflictError struct {
	Entity    string
	ID        string
	Current   string
	Attempted string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s %s is %s, cannot %s", e.Entity, e.ID, e.Current, e.Attempted)
}

// ForbiddenError reports a business-rule rejection, e.g. a DEBT_USER
// attempting to open a new plan.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// TransientStoreError wraps a storage failure that is safe to retry; all
// mutations are transactional, so no partial effect was persisted.
type TransientStoreError struct {
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}
