package contract

import "errors"

var (
	// ErrPermissionDenied is terminal: a role violation blocks the whole
	// request and is never retried.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound means one tool operation exhausted every fallback rung.
	// It is local to that operation and never fails the agent call.
	ErrNotFound = errors.New("entity not found")
	// ErrUpstreamUnavailable marks a backing store failure. It triggers
	// the fallback ladder and never propagates raw past the tool layer.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrTimeout marks an agent- or tool-level deadline. A timed-out agent
	// becomes a skipped contribution, not a request failure.
	ErrTimeout = errors.New("deadline exceeded")
	// ErrOrchestratorUnavailable routes the request onto the direct-LLM
	// degraded path.
	ErrOrchestratorUnavailable = errors.New("orchestrator unavailable")
	// ErrCatastrophic means everything is down; the caller receives the
	// fixed placeholder response instead of this error.
	ErrCatastrophic = errors.New("all backends unavailable")

	ErrValidation      = errors.New("validation failed")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
)
