package model

import (
	"fmt"
	"time"

	"flowc/pkg/ident"
)

// Task is immutable after Validate succeeds: nothing in the compiler
// mutates a Task once the declaration pass has finished constructing it.
type Task struct {
	Name             string
	ClassName        string // defaults to Name
	ImportPath       string
	Storage          *Storage // nil if the task has no storage binding
	StorageReadonly  bool
	StorageTaskName  string // defaults to Name; requires Storage != nil
	OutputSchema     string
	MaxRetry         int
	RetryCountdown   int // seconds
	QueueName        string
	Throttling       *time.Duration
	TaskClass        *TaskClass
}

// NodeName implements Node.
func (t *Task) NodeName() string { return t.Name }

// IsTask implements Node.
func (t *Task) IsTask() bool { return true }

// IsFlow implements Node.
func (t *Task) IsFlow() bool { return false }

// Validate enforces the invariants of spec.md §3 Task:
//
//	storage_readonly ⇒ storage ≠ ⊥
//	storage_task_name ≠ name ⇒ storage ≠ ⊥
//	retry/countdown non-negative
//
// It returns warnings (non-fatal) separately from the fatal error.
func (t *Task) Validate() (warnings []string, err error) {
	if err := ident.Check("task", t.Name); err != nil {
		return nil, &ConfigurationError{Node: t.Name, Message: err.Error()}
	}
	if t.ClassName == "" {
		t.ClassName = t.Name
	}
	if t.StorageTaskName == "" {
		t.StorageTaskName = t.Name
	}

	if t.StorageReadonly && t.Storage == nil {
		return warnings, NewConfigurationError("", t.Name, "storage_readonly requires a storage binding")
	}
	if t.StorageTaskName != t.Name && t.Storage == nil {
		return warnings, NewConfigurationError("", t.Name, "storage_task_name requires a storage binding")
	}
	if t.MaxRetry < 0 {
		return warnings, NewConfigurationError("", t.Name, fmt.Sprintf("max_retry must be non-negative, got %d", t.MaxRetry))
	}
	if t.RetryCountdown < 0 {
		return warnings, NewConfigurationError("", t.Name, fmt.Sprintf("retry_countdown must be non-negative, got %d", t.RetryCountdown))
	}
	if t.RetryCountdown > 0 && t.MaxRetry == 0 {
		warnings = append(warnings, fmt.Sprintf("task %s: retry_countdown > 0 but max_retry == 0, countdown has no effect", t.Name))
	}

	return warnings, nil
}
