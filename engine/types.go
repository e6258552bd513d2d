/*
Package engine provides the scenario compute core.

PURPOSE:
  This package contains the types and algorithms for evaluating "what-if"
  scenarios against a project portfolio. Given a baseline of projects,
  tasks, dependencies, and earned-value snapshots, it applies a set of
  declarative actions to an in-memory clone and recomputes capacity,
  schedule, and earned-value metrics for the before and after states.

KEY CONCEPTS IN THIS FILE (types.go):
  - ScenarioPlan:   A what-if exercise with a scope (project or portfolio)
  - ScenarioAction: One declarative mutation intent (shift, capacity, budget)
  - ScenarioResult: The single immutable computed outcome per plan
  - Project/WorkTask/WorkTaskDependency/EarnedValueSnapshot: read-only
    baseline entities owned by collaborators

DESIGN PRINCIPLES:
  1. Isolation: the engine never writes to baseline entities; actions run
     against a deep clone produced after loading
  2. Precision: decimal.Decimal for all hour/budget/index arithmetic
  3. Type Safety: strong typing for IDs prevents mixing scenario/project ids
  4. Totality: compute always persists a result; partial input degrades to
     warnings, never to an aborted run

SEE ALSO:
  - compute.go: orchestrator tying loading, cloning, and diffing together
  - capacity.go: per-user-per-day demand vs capacity
  - criticalpath.go: forward/backward pass over the dependency graph
  - actions.go: the closed action union and its reducer
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ScenarioID string
type OrganizationID string
type ProjectID string
type TaskID string
type UserID string

// =============================================================================
// SCENARIO PLAN - A what-if exercise
// =============================================================================

type ScopeType string

const (
	ScopePortfolio ScopeType = "portfolio"
	ScopeProject   ScopeType = "project"
)

type ScenarioStatus string

const (
	StatusDraft  ScenarioStatus = "draft"
	StatusActive ScenarioStatus = "active"
)

// ScenarioPlan identifies a what-if exercise. Read-only to the compute
// engine; created and soft-deleted by the CRUD collaborator.
type ScenarioPlan struct {
	ID             ScenarioID
	OrganizationID OrganizationID
	WorkspaceID    string
	Name           string
	Description    string
	ScopeType      ScopeType
	ScopeID        string
	Status         ScenarioStatus
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// =============================================================================
// SCENARIO ACTION - One declarative mutation intent
// =============================================================================

type ActionType string

const (
	ActionShiftProject   ActionType = "shift_project"
	ActionShiftTask      ActionType = "shift_task"
	ActionChangeCapacity ActionType = "change_capacity"
	ActionChangeBudget   ActionType = "change_budget"
)

// ScenarioAction is immutable once created and applied in creation order.
// Payload is type-specific JSON; a malformed payload is a per-action
// warning, never a computation-aborting error.
type ScenarioAction struct {
	ID             string
	OrganizationID OrganizationID
	ScenarioID     ScenarioID
	Type           ActionType
	Payload        []byte
	CreatedAt      time.Time
}

// =============================================================================
// SCENARIO RESULT - The single computed outcome per plan
// =============================================================================

// ScenarioResult holds the computed outcome. Exactly one row exists per
// scenario at all times; each compute fully replaces summary, warnings,
// and computedAt.
type ScenarioResult struct {
	ID             string
	OrganizationID OrganizationID
	ScenarioID     ScenarioID
	ComputedAt     time.Time
	Summary        ScenarioSummary
	Warnings       []string
}

// StateMetrics is one metric snapshot, computed identically for the
// before and after states. CPI/SPI are nil when the denominator is zero.
type StateMetrics struct {
	TotalCapacityHours      float64  `json:"totalCapacityHours"`
	TotalDemandHours        float64  `json:"totalDemandHours"`
	OverallocatedDays       int      `json:"overallocatedDays"`
	OverallocatedUsers      int      `json:"overallocatedUsers"`
	AggregateCPI            *float64 `json:"aggregateCPI"`
	AggregateSPI            *float64 `json:"aggregateSPI"`
	CriticalPathSlipMinutes int64    `json:"criticalPathSlipMinutes"`
	BaselineDriftMinutes    int64    `json:"baselineDriftMinutes"`
}

// SummaryDeltas holds after-minus-before per numeric field. CPI/SPI deltas
// are nil unless both sides are non-nil.
type SummaryDeltas struct {
	TotalCapacityHours      float64  `json:"totalCapacityHours"`
	TotalDemandHours        float64  `json:"totalDemandHours"`
	OverallocatedDays       int      `json:"overallocatedDays"`
	OverallocatedUsers      int      `json:"overallocatedUsers"`
	CPIDelta                *float64 `json:"cpiDelta"`
	SPIDelta                *float64 `json:"spiDelta"`
	CriticalPathSlipMinutes int64    `json:"criticalPathSlipMinutes"`
	BaselineDriftMinutes    int64    `json:"baselineDriftMinutes"`
}

// ImpactedProject lists one project touched by at least one action.
type ImpactedProject struct {
	ProjectID     ProjectID `json:"projectId"`
	ProjectName   string    `json:"projectName"`
	ImpactSummary string    `json:"impactSummary"`
}

// ScenarioSummary is the before/after/deltas triple persisted with a result.
type ScenarioSummary struct {
	Before           StateMetrics      `json:"before"`
	After            StateMetrics      `json:"after"`
	Deltas           SummaryDeltas     `json:"deltas"`
	ImpactedProjects []ImpactedProject `json:"impactedProjects"`
}

// =============================================================================
// BASELINE ENTITIES - Read-only, owned by collaborators
// =============================================================================

// Project is the engine's view of a project row. Budget and the planned
// window are the only fields actions may mutate, and only on clones.
type Project struct {
	ID               ProjectID
	OrganizationID   OrganizationID
	Name             string
	PortfolioID      string
	Budget           decimal.Decimal
	WaterfallEnabled bool
	StartsAt         *time.Time
	EndsAt           *time.Time
}

// WorkTask is the engine's view of a task row. Hour fields are pointers:
// nil means the column was null, which the demand model treats differently
// from zero.
type WorkTask struct {
	ID              TaskID
	ProjectID       ProjectID
	Name            string
	AssigneeUserID  *UserID
	IsMilestone     bool
	PlannedStartAt  *time.Time
	PlannedEndAt    *time.Time
	EstimateHours   *decimal.Decimal
	RemainingHours  *decimal.Decimal
	PercentComplete decimal.Decimal
}

type DependencyType string

const (
	DepFinishToStart  DependencyType = "finish_to_start"
	DepStartToStart   DependencyType = "start_to_start"
	DepFinishToFinish DependencyType = "finish_to_finish"
	DepStartToFinish  DependencyType = "start_to_finish"
)

// WorkTaskDependency is an edge in a project's task graph. Dependencies
// are never mutated by any action type, so the working clone shares them
// by reference.
type WorkTaskDependency struct {
	ProjectID     ProjectID
	PredecessorID TaskID
	SuccessorID   TaskID
	Type          DependencyType
	LagMinutes    int64
}

// EarnedValueSnapshot is one EVM reading for a project. The latest
// snapshot per project (by CreatedAt) feeds aggregation.
type EarnedValueSnapshot struct {
	ProjectID ProjectID
	BAC       decimal.Decimal
	EV        decimal.Decimal
	AC        decimal.Decimal
	PV        decimal.Decimal
	CreatedAt time.Time
}
