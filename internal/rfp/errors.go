package rfp

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen is returned when a source is skipped because its circuit
// breaker is open. It incurs no new failure count.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// SourceError reports a single source's fetch failure. It is isolated from
// other sources and surfaces only in the session error summary.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// StoreError wraps a persistence failure for one opportunity. The session
// drops that opportunity and continues.
type StoreError struct {
	Fingerprint string
	Err         error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store opportunity %s: %v", e.Fingerprint, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrHealthCheck marks a failed pre-flight check. It is fatal for the
// session; no adapters are invoked.
var ErrHealthCheck = errors.New("health check failed")
