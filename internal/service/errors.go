package service

import "fmt"

// ValidationError blocks a transition because a precondition on the record
// itself is not met (missing caption, remote post still attached, ...).
type ValidationError struct {
	RecordID int64
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d: %s", e.RecordID, e.Reason)
}

// ImmutableRecordError signals an attempted mutation of a published record.
// Publication is irreversible locally.
type ImmutableRecordError struct {
	RecordID int64
}

func (e *ImmutableRecordError) Error() string {
	return fmt.Sprintf("record %d is published and cannot be modified", e.RecordID)
}

// NoOpError signals a transition request that has nothing to do.
type NoOpError struct {
	RecordID int64
	Reason   string
}

func (e *NoOpError) Error() string {
	return fmt.Sprintf("record %d: %s", e.RecordID, e.Reason)
}

// NotFoundError signals a point lookup for a record that does not exist.
type NotFoundError struct {
	RecordID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %d not found", e.RecordID)
}

// RemoteUnavailableError aborts a whole reconciliation or scheduling pass:
// without the remote scheduler there is no truth to work against. Callers
// must treat it as "incomplete, retry later", never as "remote is empty".
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote scheduler unavailable during %s: %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// ConcurrentRunError signals that another pass already holds the profile
// lock. The caller retries later instead of racing it.
type ConcurrentRunError struct {
	ProfileID string
}

func (e *ConcurrentRunError) Error() string {
	return fmt.Sprintf("another run is already in progress for profile %s", e.ProfileID)
}
