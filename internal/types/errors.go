package types

import (
	"errors"
	"fmt"
)

// Sentinel errors used to classify failures across component boundaries.
// Match with errors.Is.
var (
	// ErrNotFound indicates an explicitly named configuration source is absent.
	ErrNotFound = errors.New("configuration source not found")

	// ErrUnreadable indicates a configuration source exists but could not be
	// read or parsed. The wrapping ConfigError carries the underlying cause.
	ErrUnreadable = errors.New("configuration source unreadable")

	// ErrNoResources indicates no bundled-resource lookup context is available
	// when the resolution cascade falls back to the packaged defaults.
	ErrNoResources = errors.New("no bundled resource context available")

	// ErrDuplicateName indicates a registry collision on a scheduler name.
	ErrDuplicateName = errors.New("scheduler name already bound")
)

// ConfigError is a permanent configuration-resolution failure. Once a resolver
// records one, every later initialization attempt replays it unchanged.
type ConfigError struct {
	Source string // human-readable description of the offending source
	Kind   error  // one of ErrNotFound, ErrUnreadable, ErrNoResources
	Err    error  // underlying cause, may be nil
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Kind)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// SchedulerError wraps any failure surfaced across a component boundary,
// optionally carrying the underlying cause.
type SchedulerError struct {
	Msg string
	Err error
}

func (e *SchedulerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *SchedulerError) Unwrap() error { return e.Err }
