package timing

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFormat            = errors.New("invalid time format")
	ErrConfiguration     = errors.New("invalid area configuration")
	ErrSecondsOutOfRange = errors.New("seconds out of range")
	ErrOverTimeLimit     = errors.New("time exceeds time limit")
)

// FormatError reports a time string that cannot be split into integer segments
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// ConfigurationError reports class data that the timer cannot be armed from.
// It is a data error from the class record, not something a judge can fix.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
