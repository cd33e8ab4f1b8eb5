package solve

import (
	"fmt"
	"time"
)

// InsufficientCreditsError indicates the balance cannot cover one attempt.
// Returned synchronously from Start; nothing is debited and no connection
// is opened.
type InsufficientCreditsError struct {
	Balance int
	Cost    int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %d, need %d", e.Balance, e.Cost)
}

// ServerError indicates the server reported a failure via an [ERROR] frame.
// Content accumulated before the error is preserved for display.
type ServerError struct {
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return "server reported an error"
	}
	return fmt.Sprintf("server reported an error: %s", e.Detail)
}

// EmptyCompletionError indicates the connection closed cleanly without any
// content having arrived. Treated as failure: the deliverable was not
// produced, so the attempt's credits are refunded.
type EmptyCompletionError struct{}

func (e *EmptyCompletionError) Error() string {
	return "no content received"
}

// AttemptTimeoutError indicates the attempt deadline elapsed before a
// terminal phase was reached. The attempt's credits are refunded.
type AttemptTimeoutError struct {
	After time.Duration
}

func (e *AttemptTimeoutError) Error() string {
	return fmt.Sprintf("attempt timed out after %s", e.After)
}
