/*
errors.go - Centralized error types for the scenario engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine distinguishes two tiers: fatal errors (returned to the
  caller, compute aborts) and warnings (accumulated strings, compute
  completes and persists). The only fatal condition is a scenario that
  cannot be loaded at all - not found, soft-deleted, or cross-tenant.

USAGE:
  if errors.Is(err, engine.ErrScenarioNotFound) {
      // surface as 404
  }

SEE ALSO:
  - compute.go: the single place fatal errors originate
  - store.go: store implementations return these sentinels
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrScenarioNotFound is returned when the scenario does not exist, is
	// soft-deleted, or belongs to another organization. The loading
	// collaborator surfaces all three identically to avoid leaking tenancy.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrResultNotFound is returned when no result has been computed yet.
	ErrResultNotFound = errors.New("scenario result not found")

	// ErrCyclicDependencies is returned by the critical path engine when the
	// task graph contains a cycle. Callers swallow it and contribute zero
	// slip for that project.
	ErrCyclicDependencies = errors.New("dependency graph contains a cycle")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// GraphError carries the project whose dependency graph failed to compute.
type GraphError struct {
	ProjectID ProjectID
	Err       error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("critical path for project %s: %v", e.ProjectID, e.Err)
}

func (e *GraphError) Unwrap() error { return e.Err }
