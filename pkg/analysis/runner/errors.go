package runner

import (
	"fmt"
	"time"
)

// QueryError indicates that generated query text failed to execute. The
// query is preserved verbatim for replay.
type QueryError struct {
	Section string
	Query   string
	Cause   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query for section %q failed: %v", e.Section, e.Cause)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// TimeoutError indicates the run exceeded its execution deadline. Section is
// empty when the deadline expired outside query execution.
type TimeoutError struct {
	Section string
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("analysis timed out after %s", e.Timeout)
	}
	return fmt.Sprintf("analysis timed out after %s (section %q)", e.Timeout, e.Section)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }
