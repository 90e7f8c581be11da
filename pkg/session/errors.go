package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoFormSelected is returned by operations that need an active form.
	ErrNoFormSelected = errors.New("session: no form selected")
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission has not settled.
	ErrSubmitInFlight = errors.New("session: submission already in flight")
	// ErrSubmissionFailed wraps transport or server failures on submit. The
	// answer set and draft are preserved so the user can resubmit.
	ErrSubmissionFailed = errors.New("session: submission failed")
)

// ValidationError reports the fields that blocked a submission. The session
// stays in awaiting_input and no network call is made.
type ValidationError struct {
	Fields map[string][]string
}

// Error lists the offending field ids in stable order.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "session: validation failed"
	}
	ids := make([]string, 0, len(e.Fields))
	for id := range e.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("session: validation failed for %s", strings.Join(ids, ", "))
}

type submissionError struct {
	cause error
}

func (e *submissionError) Error() string {
	return "session: submission failed: " + e.cause.Error()
}

func (e *submissionError) Unwrap() error { return e.cause }

// Is matches ErrSubmissionFailed so callers can branch on the category
// without losing the transport cause.
func (e *submissionError) Is(target error) bool { return target == ErrSubmissionFailed }

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
