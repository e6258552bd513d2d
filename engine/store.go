/*
store.go - Repository interfaces between the engine and its collaborators

PURPOSE:
  Defines the read/write boundary of the compute engine. The engine only
  READS baseline data (projects, tasks, dependencies, earned value) and
  only WRITES one thing: the upserted ScenarioResult. Everything else -
  scenario CRUD, entitlements, audit actors - lives behind collaborators.

KEY INTERFACES:
  ScenarioStore:  plan + ordered actions + result upsert
  PortfolioStore: baseline reads (filtered, soft-deletes excluded)
  AuditLog:       optional append-only audit trail, keyed on actor

ISOLATION CONTRACT:
  PortfolioStore implementations may return pointers into their own state;
  the engine deep-clones before applying any action, so loaded objects are
  never mutated. See clone.go.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - engine/store/memory.go: in-memory for testing

SEE ALSO:
  - compute.go: the only component calling these interfaces
*/
package engine

import "context"

// =============================================================================
// SCENARIO STORE - Plan, actions, and the result upsert
// =============================================================================

type ScenarioStore interface {
	// GetScenario returns the plan, or ErrScenarioNotFound when the plan is
	// missing, soft-deleted, or belongs to a different organization.
	GetScenario(ctx context.Context, id ScenarioID, org OrganizationID) (*ScenarioPlan, error)

	// ListActions returns the plan's actions ordered by creation time
	// ascending. Actions are immutable; there is no update path.
	ListActions(ctx context.Context, id ScenarioID, org OrganizationID) ([]ScenarioAction, error)

	// UpsertResult creates or fully replaces the single result row for the
	// scenario. Last write wins on concurrent computes.
	UpsertResult(ctx context.Context, result ScenarioResult) error
}

// =============================================================================
// PORTFOLIO STORE - Read-only baseline queries
// =============================================================================

// ProjectFilter selects projects by explicit ids or by portfolio
// membership. Exactly one of IDs / PortfolioID is set per call.
type ProjectFilter struct {
	OrganizationID OrganizationID
	IDs            []ProjectID
	PortfolioID    string
}

type TaskFilter struct {
	OrganizationID OrganizationID
	ProjectIDs     []ProjectID
}

type DependencyFilter struct {
	OrganizationID OrganizationID
	ProjectIDs     []ProjectID
}

type PortfolioStore interface {
	// FindProjects returns matching projects ordered by id.
	FindProjects(ctx context.Context, f ProjectFilter) ([]*Project, error)

	// FindTasks returns tasks for the given projects, excluding
	// soft-deleted rows, ordered by id.
	FindTasks(ctx context.Context, f TaskFilter) ([]*WorkTask, error)

	// FindDependencies returns dependency edges for the given projects.
	FindDependencies(ctx context.Context, f DependencyFilter) ([]WorkTaskDependency, error)

	// LatestEarnedValue returns the most recent snapshot for a project, or
	// nil when the project has none.
	LatestEarnedValue(ctx context.Context, projectID ProjectID, org OrganizationID) (*EarnedValueSnapshot, error)
}

// =============================================================================
// AUDIT LOG - Optional, append-only, actor-scoped
// =============================================================================

type AuditAction string

const (
	AuditScenarioComputed AuditAction = "scenario_computed"
)

// AuditEntry records who computed what when. Emitted alongside the result
// upsert when the engine has an AuditLog configured.
type AuditEntry struct {
	ID             string
	OrganizationID OrganizationID
	ScenarioID     ScenarioID
	ActorID        string
	Action         AuditAction
	Detail         map[string]any
}

type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
}
