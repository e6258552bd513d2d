package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scenario-engine/engine"
	"github.com/warp/scenario-engine/engine/store"
)

const testOrg = engine.OrganizationID("org-1")

// =============================================================================
// FIXTURES
// =============================================================================

func seedPortfolio(mem *store.Memory) {
	estimate := decimal.NewFromInt(40)
	assignee := engine.UserID("u1")
	start := time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.February, 13, 0, 0, 0, 0, time.UTC)

	mem.SaveProject(&engine.Project{
		ID:               "p1",
		OrganizationID:   testOrg,
		Name:             "Atlas Migration",
		PortfolioID:      "pf-1",
		Budget:           decimal.NewFromInt(100000),
		WaterfallEnabled: true,
		StartsAt:         &start,
		EndsAt:           &end,
	})
	mem.SaveTask(&engine.WorkTask{
		ID:              "t1",
		ProjectID:       "p1",
		Name:            "Build pipeline",
		AssigneeUserID:  &assignee,
		PlannedStartAt:  &start,
		PlannedEndAt:    &end,
		EstimateHours:   &estimate,
		PercentComplete: decimal.Zero,
	})
	mem.AddEarnedValue(engine.EarnedValueSnapshot{
		ProjectID: "p1",
		BAC:       decimal.NewFromInt(100000),
		EV:        decimal.NewFromInt(80000),
		AC:        decimal.NewFromInt(90000),
		PV:        decimal.NewFromInt(85000),
		CreatedAt: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
}

func seedScenario(mem *store.Memory, scope engine.ScopeType, scopeID string) {
	mem.SaveScenario(&engine.ScenarioPlan{
		ID:             "sc-1",
		OrganizationID: testOrg,
		Name:           "What if we slip",
		ScopeType:      scope,
		ScopeID:        scopeID,
		Status:         engine.StatusActive,
		CreatedBy:      "user-7",
	})
}

func addAction(mem *store.Memory, id string, typ engine.ActionType, payload string) {
	mem.AddAction(engine.ScenarioAction{
		ID:             id,
		OrganizationID: testOrg,
		ScenarioID:     "sc-1",
		Type:           typ,
		Payload:        []byte(payload),
		CreatedAt:      time.Now(),
	})
}

func newTestEngine(mem *store.Memory) *engine.Engine {
	return engine.NewEngine(mem, mem, engine.NewWorkweekCalendar())
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

func TestCompute_NoActionsIdentity(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")

	summary, warnings, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, summary.Before, summary.After)
	assert.Equal(t, 40.0, summary.Before.TotalDemandHours)
	assert.Equal(t, 40.0, summary.Before.TotalCapacityHours)
	assert.Zero(t, summary.Deltas.TotalDemandHours)
	assert.Zero(t, summary.Deltas.CriticalPathSlipMinutes)
	require.NotNil(t, summary.Deltas.CPIDelta)
	assert.Zero(t, *summary.Deltas.CPIDelta)
	assert.Empty(t, summary.ImpactedProjects)
}

func TestCompute_Deterministic(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")
	addAction(mem, "a1", engine.ActionShiftTask, `{"taskId":"t1","shiftDays":10}`)

	eng := newTestEngine(mem)
	first, warnings1, err := eng.Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)
	second, warnings2, err := eng.Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, warnings1, warnings2)
}

func TestCompute_EmptyScope(t *testing.T) {
	mem := store.NewMemory()
	seedScenario(mem, engine.ScopePortfolio, "pf-empty")

	summary, warnings, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)

	assert.Equal(t, []string{"No projects found in scope"}, warnings)
	assert.Equal(t, engine.StateMetrics{}, summary.Before)
	assert.Equal(t, engine.StateMetrics{}, summary.After)
	assert.Nil(t, summary.Before.AggregateCPI)

	// A result row is still persisted.
	result := mem.GetResult("sc-1")
	require.NotNil(t, result)
	assert.Equal(t, warnings, result.Warnings)
}

func TestCompute_ScenarioNotFoundIsFatal(t *testing.T) {
	mem := store.NewMemory()

	_, _, err := newTestEngine(mem).Compute(context.Background(), "nope", testOrg)
	assert.ErrorIs(t, err, engine.ErrScenarioNotFound)
	assert.Nil(t, mem.GetResult("nope"))
}

func TestCompute_CrossTenantInvisible(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")

	_, _, err := newTestEngine(mem).Compute(context.Background(), "sc-1", "other-org")
	assert.ErrorIs(t, err, engine.ErrScenarioNotFound)
}

func TestCompute_ShiftTaskDoesNotMutateOriginals(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopeProject, "p1")
	addAction(mem, "a1", engine.ActionShiftTask, `{"taskId":"t1","shiftDays":10}`)

	_, warnings, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// The originally loaded task must still carry its baseline dates.
	tasks, err := mem.FindTasks(context.Background(), engine.TaskFilter{
		OrganizationID: testOrg,
		ProjectIDs:     []engine.ProjectID{"p1"},
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "2026-02-09", engine.FormatDate(*tasks[0].PlannedStartAt))
	assert.Equal(t, "2026-02-13", engine.FormatDate(*tasks[0].PlannedEndAt))
}

func TestCompute_ChangeCapacityOverridesAfterState(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopeProject, "p1")
	addAction(mem, "a1", engine.ActionChangeCapacity,
		`{"userId":"u1","date":"2026-02-10","capacityHours":12}`)

	summary, warnings, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, 40.0, summary.Before.TotalCapacityHours)
	assert.Equal(t, 44.0, summary.After.TotalCapacityHours)
	assert.Equal(t, 4.0, summary.Deltas.TotalCapacityHours)
	// Demand is untouched by capacity actions.
	assert.Equal(t, summary.Before.TotalDemandHours, summary.After.TotalDemandHours)
}

func TestCompute_InvalidActionWarnsButCompletes(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")
	addAction(mem, "a1", engine.ActionShiftProject, `{}`)

	summary, warnings, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Invalid shift_project")
	// No partial mutation: after is identical to before.
	assert.Equal(t, summary.Before, summary.After)
	assert.Empty(t, summary.ImpactedProjects)
}

func TestCompute_UnresolvableTaskWarns(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")
	addAction(mem, "a1", engine.ActionShiftTask, `{"taskId":"ghost","shiftDays":5}`)

	summary, warnings, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Task ghost not found in scope"}, warnings)
	assert.Equal(t, summary.Before, summary.After)
}

func TestCompute_EarnedValueIndices(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")

	summary, _, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)

	require.NotNil(t, summary.Before.AggregateCPI)
	require.NotNil(t, summary.Before.AggregateSPI)
	assert.InDelta(t, 0.889, *summary.Before.AggregateCPI, 0.0001)
	assert.InDelta(t, 0.941, *summary.Before.AggregateSPI, 0.0001)
}

func TestCompute_ImpactedProjects(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")
	addAction(mem, "a1", engine.ActionShiftTask, `{"taskId":"t1","shiftDays":3}`)
	addAction(mem, "a2", engine.ActionChangeBudget, `{"projectId":"p1","newBudget":120000}`)

	summary, _, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)

	require.Len(t, summary.ImpactedProjects, 1)
	impact := summary.ImpactedProjects[0]
	assert.Equal(t, engine.ProjectID("p1"), impact.ProjectID)
	assert.Equal(t, "Atlas Migration", impact.ProjectName)
	assert.Equal(t, "2 scenario action(s) target this project", impact.ImpactSummary)
}

func TestCompute_CriticalPathSlipOnShift(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")

	// t1 runs 2026-02-09..13 at midnight bounds: 4 * 24h = 5760 minutes.
	summary, _, err := newTestEngine(mem).Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)

	assert.Equal(t, int64(5760), summary.Before.CriticalPathSlipMinutes)
	assert.Equal(t, summary.Before.CriticalPathSlipMinutes, summary.Before.BaselineDriftMinutes)
}

func TestCompute_UpsertReplacesResult(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")

	eng := newTestEngine(mem)
	_, _, err := eng.Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)
	first := mem.GetResult("sc-1")
	require.NotNil(t, first)

	addAction(mem, "a1", engine.ActionChangeBudget, `{"projectId":"p1","newBudget":1}`)
	_, _, err = eng.Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)
	second := mem.GetResult("sc-1")

	assert.Equal(t, first.ID, second.ID, "upsert keeps a single row per scenario")
	assert.Len(t, second.Summary.ImpactedProjects, 1)
}

func TestCompute_AuditEmittedWhenConfigured(t *testing.T) {
	mem := store.NewMemory()
	seedPortfolio(mem)
	seedScenario(mem, engine.ScopePortfolio, "pf-1")

	eng := newTestEngine(mem)
	eng.Audit = mem

	_, _, err := eng.Compute(context.Background(), "sc-1", testOrg)
	require.NoError(t, err)

	entries := mem.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, engine.AuditScenarioComputed, entries[0].Action)
	assert.Equal(t, "user-7", entries[0].ActorID)
}
