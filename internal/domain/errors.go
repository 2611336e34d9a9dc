package domain

import (
	"errors"
	"fmt"
)

// ErrToolNotFound means neither the native binary nor its containerized
// equivalent is available. Always fatal.
var ErrToolNotFound = errors.New("required tool not found")

// ErrRestoreCancelled means the operator declined the confirmation prompt.
// The run ends with no side effects and a zero exit code.
var ErrRestoreCancelled = errors.New("restore cancelled by operator")

// ProducerError is a failed or empty dump. Fatal for the run.
type ProducerError struct {
	Source string
	Err    error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("produce %s backup: %v", e.Source, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// ConfigError is a malformed endpoint or run configuration. Fatal at
// configuration time.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// UploadError is a failed remote upload. The run continues with the local
// copy retained.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// RetentionError is a failed delete during a sweep. Logged, never fatal:
// the artifact is already safely stored by the time retention runs.
type RetentionError struct {
	Store string
	Name  string
	Err   error
}

func (e *RetentionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("retention sweep on %s: %v", e.Store, e.Err)
	}
	return fmt.Sprintf("retention delete %s from %s: %v", e.Name, e.Store, e.Err)
}

func (e *RetentionError) Unwrap() error { return e.Err }
