// Package provider defines the error taxonomy shared by catalog adapters.
package provider

import (
	"fmt"
	"time"
)

// Name identifies a catalog adapter.
type Name string

// Known adapter names.
const (
	NameNetEase Name = "netease"
)

// ErrUnavailable indicates a transient upstream failure (rate limiting,
// 502/503, transport error). Callers must propagate it unmodified; retry and
// backoff belong to the caller, never to the resolution pipeline.
type ErrUnavailable struct {
	Provider   Name
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the catalog has no record for the requested ID.
type ErrNotFound struct {
	Provider Name
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: %s not found", e.Provider, e.ID)
}
