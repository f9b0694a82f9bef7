package session

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned by a navigation request outside the loaded
	// questions. It is a caller error, distinct from "need more data".
	ErrOutOfRange = errors.New("question index out of range")

	// ErrFetchInProgress rejects forward navigation while a page is loading.
	// Retry once the in-flight fetch resolves.
	ErrFetchInProgress = errors.New("a page fetch is already in flight")

	ErrNotActive       = errors.New("session is not active")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrInputFrozen     = errors.New("time is up, answers are frozen")
	ErrSessionClosed   = errors.New("session is closed")
	ErrUnknownQuestion = errors.New("question is not part of this session")
	ErrUnknownOption   = errors.New("option does not belong to the question")

	// ErrDoubleSubmitIgnored is logged when a submit arrives while another
	// is in flight. The late caller shares the first submission's result.
	ErrDoubleSubmitIgnored = errors.New("submission already in flight")
)

// FetchFailedError reports a failed page fetch or submission write. The
// session state is unchanged and the operation can be retried.
type FetchFailedError struct {
	Op  string // "paginate" or "submit"
	Err error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// Retryable is always true; the type exists so callers can offer a retry.
func (e *FetchFailedError) Retryable() bool { return true }
