// Package operr defines the error taxonomy shared by the operations engine.
// Every error here is recoverable by the caller: the request is rejected and
// no partial state change is persisted for single-document operations.
package operr

import "fmt"

// NotFound reports that a referenced entity does not exist.
type NotFound struct {
	Kind string // "industry", "route", "locomotive", "car", "order", "train"
	ID   string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Validation reports malformed input rejected before any mutation.
type Validation struct {
	Msg string
}

func (e *Validation) Error() string { return e.Msg }

// Validationf builds a Validation error from a format string.
func Validationf(format string, args ...interface{}) *Validation {
	return &Validation{Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness or precondition violation: duplicate train
// name, locomotive already on an active train, duplicate pending order,
// or an operation attempted against a train in the wrong status.
type Conflict struct {
	Msg string
}

func (e *Conflict) Error() string { return e.Msg }

// Conflictf builds a Conflict error from a format string.
func Conflictf(format string, args ...interface{}) *Conflict {
	return &Conflict{Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a state-machine violation, naming the allowed
// successor states.
type InvalidTransition struct {
	Kind    string // "order" or "train"
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("%s: invalid status transition from %q to %q; valid transitions: %v",
		e.Kind, e.From, e.To, e.Allowed)
}

// RollbackNotAllowed reports a rollback attempted at session 1 or with no
// snapshot to restore.
type RollbackNotAllowed struct {
	Reason string
}

func (e *RollbackNotAllowed) Error() string {
	return "rollback not allowed: " + e.Reason
}
