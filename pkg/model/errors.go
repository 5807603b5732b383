// Package model defines the configuration entities (tasks, flows, storages,
// edges, predicates) and the error taxonomy shared across the compiler and
// runtime packages.
package model

import "errors"

// Sentinel errors used for cross-reference and control-flow signalling.
// ConfigurationError subtypes below carry the offending name; these
// sentinels are for errors.Is checks at call sites.
var (
	// ErrFlowHasNoEdges is a post-parse-check failure: every flow must have
	// at least one edge.
	ErrFlowHasNoEdges = errors.New("flow has no edges")
	// ErrFlowHasNoStartingEdge is a post-parse-check failure: every flow
	// must have at least one starting edge (nodes_from = empty).
	ErrFlowHasNoStartingEdge = errors.New("flow has no starting edge")
	// ErrDuplicateFlowDefinition signals a second definition-pass hit for an
	// already-defined flow.
	ErrDuplicateFlowDefinition = errors.New("duplicate flow definition")
	// ErrDuplicateFailureDefinition signals two failure descriptors
	// resolving to the same traversed node subset.
	ErrDuplicateFailureDefinition = errors.New("duplicate failure definition")
	// ErrFallbackTrueAndPropagate signals fallback=true combined with
	// propagate_failure=true on the same failure descriptor.
	ErrFallbackTrueAndPropagate = errors.New("fallback=true is incompatible with propagate_failure=true")

	// ErrNoParentNode is raised when a leaf predicate that requires a
	// message is attached to a starting edge (no parent to read from).
	ErrNoParentNode = errors.New("no parent node to read message from")
	// ErrSelectiveNoPath is raised when a selective-run request names a task
	// unreachable from the flow's start.
	ErrSelectiveNoPath = errors.New("task unreachable from flow start")
	// ErrMigrationNotNeeded is raised by the migration generator when the
	// diff between two configurations is empty.
	ErrMigrationNotNeeded = errors.New("migration not needed: configurations are equivalent")
	// ErrCacheMiss is returned by Cache.Get when the key is absent.
	ErrCacheMiss = errors.New("cache miss")
)

// ConfigurationError is raised for malformed configuration: unknown keys,
// invalid identifiers, unresolved references, duplicate definitions,
// propagation-flag disjointness violations, type mismatches, and failed
// leaf-predicate parameter checks. It is always fatal at build time.
type ConfigurationError struct {
	Flow    string
	Node    string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Flow != "" {
		msg += " in flow " + e.Flow
	}
	if e.Node != "" {
		msg += " (node " + e.Node + ")"
	}
	msg += ": " + e.Message
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError builds a ConfigurationError naming the flow/node the
// parser or checker was processing when the violation was found.
func NewConfigurationError(flow, node, message string) *ConfigurationError {
	return &ConfigurationError{Flow: flow, Node: node, Message: message}
}

// unknownRefError is the shared shape behind UnknownFlowError,
// UnknownStorageError, UnknownTaskError and UnknownCacheError: a
// ConfigurationError subtype that names what kind of reference could not be
// resolved, for clearer CLI output.
type unknownRefError struct {
	kind string
	name string
	flow string
}

func (e *unknownRefError) Error() string {
	msg := "unknown " + e.kind + " " + e.name
	if e.flow != "" {
		msg += " referenced in flow " + e.flow
	}
	return msg
}

// Unwrap exposes the unresolved reference as a *ConfigurationError, so
// errors.As against *ConfigurationError matches every unknown-reference
// error.
func (e *unknownRefError) Unwrap() error {
	return &ConfigurationError{Flow: e.flow, Node: e.name, Message: e.Error()}
}

// UnknownFlowError signals a reference to a flow not declared in the
// System.
type UnknownFlowError struct{ unknownRefError }

// NewUnknownFlowError builds an UnknownFlowError.
func NewUnknownFlowError(name, flow string) *UnknownFlowError {
	return &UnknownFlowError{unknownRefError{kind: "flow", name: name, flow: flow}}
}

// UnknownStorageError signals a reference to a storage not declared in the
// System.
type UnknownStorageError struct{ unknownRefError }

// NewUnknownStorageError builds an UnknownStorageError.
func NewUnknownStorageError(name, flow string) *UnknownStorageError {
	return &UnknownStorageError{unknownRefError{kind: "storage", name: name, flow: flow}}
}

// UnknownTaskError signals a reference to a task not declared in the
// System.
type UnknownTaskError struct{ unknownRefError }

// NewUnknownTaskError builds an UnknownTaskError.
func NewUnknownTaskError(name, flow string) *UnknownTaskError {
	return &UnknownTaskError{unknownRefError{kind: "task", name: name, flow: flow}}
}

// UnknownCacheError signals a reference to an unregistered cache class.
type UnknownCacheError struct{ unknownRefError }

// NewUnknownCacheError builds an UnknownCacheError.
func NewUnknownCacheError(name, flow string) *UnknownCacheError {
	return &UnknownCacheError{unknownRefError{kind: "cache", name: name, flow: flow}}
}

// RequestError signals caller-side misuse at runtime, such as scheduling a
// flow that was never declared.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return "request error: " + e.Message }

// FatalTaskError is signalled by user task code to disable further retries;
// the dispatcher surfaces it without retrying.
type FatalTaskError struct {
	Node string
	Err  error
}

func (e *FatalTaskError) Error() string {
	return "fatal error in task " + e.Node + ": " + e.Err.Error()
}

func (e *FatalTaskError) Unwrap() error { return e.Err }

// Retry is a control-flow signal, not an error in the conventional sense: it
// carries the countdown (in seconds) the dispatcher should wait before
// re-enqueuing the task.
type Retry struct {
	Countdown int
}

func (e *Retry) Error() string {
	return "retry requested"
}

// MigrationSkew is raised when the migration directory is inconsistent:
// missing and uncreatable, or containing non-contiguous/unparsable file
// names.
type MigrationSkew struct {
	Message string
}

func (e *MigrationSkew) Error() string { return "migration skew: " + e.Message }
