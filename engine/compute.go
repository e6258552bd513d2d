/*
compute.go - Scenario compute orchestrator

PURPOSE:
  The only component with I/O. Loads the plan, its ordered actions, and
  the in-scope baseline; computes the before state; deep-clones; applies
  actions to the clone; computes the after state; diffs; persists a single
  result row via upsert. All loading happens up front and all persistence
  happens at the end - the middle is pure computation.

CONTRACT:
  Compute(scenarioId, organizationId) -> (summary, warnings, error)
  The only fatal condition is a scenario that cannot be loaded (not found,
  soft-deleted, cross-tenant) or an infrastructure failure on the store.
  Empty scope, malformed actions, unresolvable references, and per-project
  critical path failures all degrade to warnings; a result row is still
  persisted so downstream consumers always have something to display.

DETERMINISM:
  Given identical inputs, two calls produce identical summaries. Projects
  are sorted by id after loading, capacity cells accumulate in sorted key
  order, and critical path ids are sorted. ComputedAt is the only
  wall-clock value and is excluded from the contract.

SEE ALSO:
  - capacity.go, earnedvalue.go, criticalpath.go: the pure phases
  - actions.go: the reducer driven once per action
  - store.go: the collaborator interfaces bracketing the pure phase
*/
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine evaluates scenarios. Construct with NewEngine; the zero value is
// not usable.
type Engine struct {
	Scenarios ScenarioStore
	Portfolio PortfolioStore
	Calendar  Calendar

	// Audit is optional; when set, every persisted result emits an
	// append-only entry keyed on the plan's creator.
	Audit AuditLog

	Logger *zap.Logger

	// DefaultDailyCapacity is the process-wide default workday, fixed at
	// construction.
	DefaultDailyCapacity decimal.Decimal
}

// NewEngine wires an engine with the default 8-hour workday and a no-op
// logger. Callers override fields before first use, never after.
func NewEngine(scenarios ScenarioStore, portfolio PortfolioStore, calendar Calendar) *Engine {
	return &Engine{
		Scenarios:            scenarios,
		Portfolio:            portfolio,
		Calendar:             calendar,
		Logger:               zap.NewNop(),
		DefaultDailyCapacity: DefaultDailyCapacityHours,
	}
}

// Compute evaluates one scenario and persists its result. See the file
// header for the contract.
func (e *Engine) Compute(ctx context.Context, id ScenarioID, org OrganizationID) (*ScenarioSummary, []string, error) {
	plan, err := e.Scenarios.GetScenario(ctx, id, org)
	if err != nil {
		return nil, nil, err
	}

	actions, err := e.Scenarios.ListActions(ctx, id, org)
	if err != nil {
		return nil, nil, fmt.Errorf("loading actions: %w", err)
	}

	warnings := []string{}

	projects, err := e.resolveScope(ctx, plan)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving scope: %w", err)
	}
	if len(projects) == 0 {
		// Normal terminal outcome, not an error: persist an empty summary.
		warnings = append(warnings, "No projects found in scope")
		summary := &ScenarioSummary{ImpactedProjects: []ImpactedProject{}}
		if err := e.persist(ctx, plan, summary, warnings); err != nil {
			return nil, nil, err
		}
		return summary, warnings, nil
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })

	ws, err := e.loadWorkingSet(ctx, plan.OrganizationID, projects)
	if err != nil {
		return nil, nil, fmt.Errorf("loading working set: %w", err)
	}

	before := e.computeState(ws, nil, &warnings)

	// Materialize the full clone before any action runs; the originals in
	// ws stay untouched from here on.
	clone := ws.clone()
	overrides := make(map[string]decimal.Decimal)
	impacted := make(map[ProjectID]int)

	originalTasks := make(map[TaskID]*WorkTask, len(ws.tasks))
	for _, t := range ws.tasks {
		originalTasks[t.ID] = t
	}

	for _, raw := range actions {
		act, warning := ParseAction(raw)
		if warning != "" {
			warnings = append(warnings, warning)
			continue
		}
		trackImpact(act, originalTasks, impacted)
		if warning := applyAction(clone, overrides, act); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	after := e.computeState(clone, overrides, &warnings)

	summary := &ScenarioSummary{
		Before:           before,
		After:            after,
		Deltas:           diffStates(before, after),
		ImpactedProjects: impactedProjects(projects, impacted),
	}

	if err := e.persist(ctx, plan, summary, warnings); err != nil {
		return nil, nil, err
	}

	e.Logger.Info("scenario computed",
		zap.String("scenario_id", string(id)),
		zap.String("organization_id", string(org)),
		zap.Int("projects", len(projects)),
		zap.Int("actions", len(actions)),
		zap.Int("warnings", len(warnings)),
	)

	return summary, warnings, nil
}

// =============================================================================
// LOADING
// =============================================================================

func (e *Engine) resolveScope(ctx context.Context, plan *ScenarioPlan) ([]*Project, error) {
	filter := ProjectFilter{OrganizationID: plan.OrganizationID}
	switch plan.ScopeType {
	case ScopeProject:
		filter.IDs = []ProjectID{ProjectID(plan.ScopeID)}
	case ScopePortfolio:
		filter.PortfolioID = plan.ScopeID
	default:
		return nil, nil
	}
	return e.Portfolio.FindProjects(ctx, filter)
}

func (e *Engine) loadWorkingSet(ctx context.Context, org OrganizationID, projects []*Project) (*workingSet, error) {
	ids := make([]ProjectID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	tasks, err := e.Portfolio.FindTasks(ctx, TaskFilter{OrganizationID: org, ProjectIDs: ids})
	if err != nil {
		return nil, err
	}
	deps, err := e.Portfolio.FindDependencies(ctx, DependencyFilter{OrganizationID: org, ProjectIDs: ids})
	if err != nil {
		return nil, err
	}

	earnedValue := make(map[ProjectID]*EarnedValueSnapshot, len(projects))
	for _, p := range projects {
		snap, err := e.Portfolio.LatestEarnedValue(ctx, p.ID, org)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			earnedValue[p.ID] = snap
		}
	}

	return &workingSet{
		projects:     projects,
		tasks:        tasks,
		dependencies: deps,
		earnedValue:  earnedValue,
	}, nil
}

// =============================================================================
// STATE COMPUTATION - Shared by the before and after passes
// =============================================================================

func (e *Engine) computeState(ws *workingSet, overrides map[string]decimal.Decimal, warnings *[]string) StateMetrics {
	model := &CapacityModel{Calendar: e.Calendar, DefaultDailyCapacity: e.DefaultDailyCapacity}
	capacity := model.Measure(ws.tasks, overrides)

	ev := AggregateEarnedValue(ws.projects, ws.earnedValue)

	tasksByProject := make(map[ProjectID][]*WorkTask)
	for _, t := range ws.tasks {
		tasksByProject[t.ProjectID] = append(tasksByProject[t.ProjectID], t)
	}
	depsByProject := make(map[ProjectID][]WorkTaskDependency)
	for _, d := range ws.dependencies {
		depsByProject[d.ProjectID] = append(depsByProject[d.ProjectID], d)
	}

	var slipMinutes int64
	for _, p := range ws.projects {
		if !p.WaterfallEnabled {
			continue
		}
		result, err := ComputeCriticalPath(tasksByProject[p.ID], depsByProject[p.ID], DateBasisPlanned)
		if err != nil {
			// A broken graph costs that project its contribution, nothing more.
			*warnings = append(*warnings, fmt.Sprintf("Critical path computation failed for project %s: %v", p.ID, err))
			continue
		}
		slipMinutes += result.LongestPathDurationMinutes
	}

	capHours, _ := capacity.TotalCapacityHours.Float64()
	demandHours, _ := capacity.TotalDemandHours.Float64()

	return StateMetrics{
		TotalCapacityHours:      capHours,
		TotalDemandHours:        demandHours,
		OverallocatedDays:       capacity.OverallocatedDays,
		OverallocatedUsers:      capacity.OverallocatedUsers,
		AggregateCPI:            decimalPtrToFloat(ev.AggregateCPI),
		AggregateSPI:            decimalPtrToFloat(ev.AggregateSPI),
		CriticalPathSlipMinutes: slipMinutes,
		// Baseline drift is a straight copy of the slip sum. Known
		// limitation: a true baseline comparison would diff pre-scenario
		// dates against the after state instead.
		BaselineDriftMinutes: slipMinutes,
	}
}

// =============================================================================
// DIFF AND IMPACT
// =============================================================================

func diffStates(before, after StateMetrics) SummaryDeltas {
	return SummaryDeltas{
		TotalCapacityHours:      roundedDiff(after.TotalCapacityHours, before.TotalCapacityHours, 2),
		TotalDemandHours:        roundedDiff(after.TotalDemandHours, before.TotalDemandHours, 2),
		OverallocatedDays:       after.OverallocatedDays - before.OverallocatedDays,
		OverallocatedUsers:      after.OverallocatedUsers - before.OverallocatedUsers,
		CPIDelta:                indexDelta(before.AggregateCPI, after.AggregateCPI),
		SPIDelta:                indexDelta(before.AggregateSPI, after.AggregateSPI),
		CriticalPathSlipMinutes: after.CriticalPathSlipMinutes - before.CriticalPathSlipMinutes,
		BaselineDriftMinutes:    after.BaselineDriftMinutes - before.BaselineDriftMinutes,
	}
}

func roundedDiff(after, before float64, places int32) float64 {
	diff, _ := decimal.NewFromFloat(after).Sub(decimal.NewFromFloat(before)).Round(places).Float64()
	return diff
}

// indexDelta is nil unless both sides exist; rounded to 3 decimal places.
func indexDelta(before, after *float64) *float64 {
	if before == nil || after == nil {
		return nil
	}
	diff := roundedDiff(*after, *before, 3)
	return &diff
}

// trackImpact records which projects an action touches. Task references
// resolve against the original (before) tasks, not the clone.
func trackImpact(act Action, originalTasks map[TaskID]*WorkTask, impacted map[ProjectID]int) {
	switch a := act.(type) {
	case ShiftProject:
		impacted[a.ProjectID]++
	case ChangeBudget:
		impacted[a.ProjectID]++
	case ShiftTask:
		if t, ok := originalTasks[a.TaskID]; ok {
			impacted[t.ProjectID]++
		}
	case ChangeCapacity:
		// Capacity changes are user-scoped, not project-scoped.
	}
}

func impactedProjects(projects []*Project, impacted map[ProjectID]int) []ImpactedProject {
	out := []ImpactedProject{}
	for _, p := range projects {
		count, ok := impacted[p.ID]
		if !ok {
			continue
		}
		out = append(out, ImpactedProject{
			ProjectID:     p.ID,
			ProjectName:   p.Name,
			ImpactSummary: fmt.Sprintf("%d scenario action(s) target this project", count),
		})
	}
	return out
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (e *Engine) persist(ctx context.Context, plan *ScenarioPlan, summary *ScenarioSummary, warnings []string) error {
	result := ScenarioResult{
		OrganizationID: plan.OrganizationID,
		ScenarioID:     plan.ID,
		ComputedAt:     time.Now().UTC(),
		Summary:        *summary,
		Warnings:       warnings,
	}
	if err := e.Scenarios.UpsertResult(ctx, result); err != nil {
		return fmt.Errorf("persisting result: %w", err)
	}

	if e.Audit != nil {
		entry := AuditEntry{
			ID:             uuid.NewString(),
			OrganizationID: plan.OrganizationID,
			ScenarioID:     plan.ID,
			ActorID:        plan.CreatedBy,
			Action:         AuditScenarioComputed,
			Detail: map[string]any{
				"warnings": len(warnings),
			},
		}
		if err := e.Audit.Append(ctx, entry); err != nil {
			// Audit failure must not invalidate an already-persisted result.
			e.Logger.Warn("audit append failed",
				zap.String("scenario_id", string(plan.ID)),
				zap.Error(err),
			)
		}
	}
	return nil
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
