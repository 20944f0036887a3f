package providers

import "fmt"

// statusError carries an upstream HTTP status code so the circuit
// breaker can detect a 403 and latch frozen.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.url, e.status)
}

func (e *statusError) StatusCode() int { return e.status }

// Retryable reports whether this status is worth retrying. A 403 is
// never retried: the breaker freezes on the first occurrence.
func (e *statusError) Retryable() bool { return e.status != 403 }

func newStatusError(url string, status int) error {
	return &statusError{status: status, url: url}
}
