package remote

import "fmt"

// NetworkError marks a transient delivery failure: connectivity loss, request
// timeout, or a 5xx from the remote. The sync engine retries these.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is a semantic rejection of the payload (4xx or a
// success=false envelope with a reason). Retrying the same payload cannot
// succeed, so the engine parks the action for user correction.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rejected by remote: %s", e.Message)
}

// ConflictError reports that the remote recognized the idempotency token of
// an earlier delivery. The action is already applied remotely.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate submission: %s", e.Message)
}
