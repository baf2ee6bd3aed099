package engine

import "fmt"

// ValidationError rejects malformed or out-of-range input before any write.
type ValidationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Field, e.Reason)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictError reports an operation that is not permitted in the record's
// current state, including lost optimistic-concurrency races.
type ConflictError struct {
	Kind   string
	ID     string
	Action string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: %s", e.Action, e.Kind, e.ID, e.Reason)
}

// StorageError wraps unexpected persistence failures.
type StorageError struct {
	Kind   string
	Action string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: storage: %v", e.Action, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AuditWarning reports that the primary write committed but the audit trail
// append failed. The operation's effect stands; callers should surface the
// warning without undoing anything.
type AuditWarning struct {
	Err error
}

func (w *AuditWarning) Error() string {
	return fmt.Sprintf("audit append failed: %v", w.Err)
}

func (w *AuditWarning) Unwrap() error { return w.Err }

func invalid(kind, field, reason string) error {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func conflict(kind, id, action, reason string) error {
	return &ConflictError{Kind: kind, ID: id, Action: action, Reason: reason}
}

func storage(kind, action string, err error) error {
	return &StorageError{Kind: kind, Action: action, Err: err}
}
