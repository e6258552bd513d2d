/*
demos.go - Demo portfolio loaders for testing and demonstrations

PURPOSE:

	Provides pre-built demo portfolios that populate the database with
	realistic data. Each demo creates projects, tasks, dependencies,
	earned-value snapshots, and a ready-to-compute scenario that
	demonstrates a specific capability of the engine.

AVAILABLE DEMOS:

	waterfall-slip:   Chained tasks on a waterfall project; a shift_task
	                  action pushes the critical path out
	overloaded-team:  Two people double-booked; a change_capacity action
	                  shows how extra hours absorb the demand
	portfolio-health: Three projects with EVM snapshots; shift and budget
	                  actions move aggregate CPI/SPI

HOW DEMOS WORK:
 1. Reset database (clear all data)
 2. Parse the portfolio fixture via the factory
 3. Seed projects, tasks, dependencies, and EV snapshots
 4. Create a scenario with a handful of actions
 5. The client computes it via POST /api/scenarios/{id}/compute

USAGE VIA API:

	POST /api/demos/load
	{"demo_id": "waterfall-slip"}

NOTE:

	Demos reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Scenario and compute handlers
  - factory/portfolio.go: Portfolio JSON parsing
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/scenario-engine/engine"
	"github.com/warp/scenario-engine/factory"
)

// DemoOrg is the organization every demo seeds under. Clients send it in
// the X-Org-ID header after loading a demo.
const DemoOrg = "org-demo"

// =============================================================================
// DEMO DEFINITIONS
// =============================================================================

var demos = []DemoDTO{
	{
		ID:          "waterfall-slip",
		Name:        "Waterfall Slip",
		Description: "Chained tasks on a waterfall project; shifting one task pushes the finish out",
	},
	{
		ID:          "overloaded-team",
		Name:        "Overloaded Team",
		Description: "Two people double-booked for a week; extra capacity absorbs the demand",
	},
	{
		ID:          "portfolio-health",
		Name:        "Portfolio Health",
		Description: "Three projects with EVM snapshots; actions move aggregate CPI/SPI",
	},
}

// ListDemos returns available demos.
func (h *Handler) ListDemos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demos)
}

// GetCurrentDemo returns the currently loaded demo, if any.
func (h *Handler) GetCurrentDemo(w http.ResponseWriter, r *http.Request) {
	if h.currentDemo == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, d := range demos {
		if d.ID == h.currentDemo {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadDemo resets the database and loads the requested demo portfolio.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	var req LoadDemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.DemoID {
	case "waterfall-slip":
		err = h.loadWaterfallSlipDemo(ctx)
	case "overloaded-team":
		err = h.loadOverloadedTeamDemo(ctx)
	case "portfolio-health":
		err = h.loadPortfolioHealthDemo(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown demo: %s", req.DemoID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load demo", err)
		return
	}

	h.currentDemo = req.DemoID
	h.Logger.Info("demo loaded", zap.String("demo_id", req.DemoID))
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "loaded",
		"demo_id": req.DemoID,
		"org_id":  DemoOrg,
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentDemo = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// DEMO FIXTURES
// =============================================================================

const waterfallSlipJSON = `{
	"organization_id": "org-demo",
	"projects": [
		{"id": "proj-launch", "name": "Product Launch", "portfolio_id": "pf-demo",
		 "budget": 250000, "waterfall_enabled": true,
		 "starts_at": "2026-03-02", "ends_at": "2026-03-27"}
	],
	"tasks": [
		{"id": "task-design", "project_id": "proj-launch", "name": "Design",
		 "assignee_user_id": "ana", "planned_start_at": "2026-03-02",
		 "planned_end_at": "2026-03-06", "estimate_hours": 40},
		{"id": "task-build", "project_id": "proj-launch", "name": "Build",
		 "assignee_user_id": "ben", "planned_start_at": "2026-03-09",
		 "planned_end_at": "2026-03-20", "estimate_hours": 80},
		{"id": "task-verify", "project_id": "proj-launch", "name": "Verify",
		 "assignee_user_id": "ana", "planned_start_at": "2026-03-23",
		 "planned_end_at": "2026-03-27", "estimate_hours": 40}
	],
	"dependencies": [
		{"project_id": "proj-launch", "predecessor_id": "task-design", "successor_id": "task-build"},
		{"project_id": "proj-launch", "predecessor_id": "task-build", "successor_id": "task-verify"}
	]
}`

const overloadedTeamJSON = `{
	"organization_id": "org-demo",
	"projects": [
		{"id": "proj-alpha", "name": "Alpha", "portfolio_id": "pf-demo", "budget": 80000},
		{"id": "proj-beta", "name": "Beta", "portfolio_id": "pf-demo", "budget": 60000}
	],
	"tasks": [
		{"id": "task-a1", "project_id": "proj-alpha", "name": "Alpha work",
		 "assignee_user_id": "cara", "planned_start_at": "2026-02-09",
		 "planned_end_at": "2026-02-13", "estimate_hours": 40},
		{"id": "task-b1", "project_id": "proj-beta", "name": "Beta work",
		 "assignee_user_id": "cara", "planned_start_at": "2026-02-09",
		 "planned_end_at": "2026-02-13", "estimate_hours": 40},
		{"id": "task-a2", "project_id": "proj-alpha", "name": "Alpha review",
		 "assignee_user_id": "dev", "planned_start_at": "2026-02-09",
		 "planned_end_at": "2026-02-13", "estimate_hours": 20, "percent_complete": 50}
	]
}`

const portfolioHealthJSON = `{
	"organization_id": "org-demo",
	"projects": [
		{"id": "proj-north", "name": "North", "portfolio_id": "pf-demo",
		 "budget": 100000, "waterfall_enabled": true,
		 "starts_at": "2026-01-05", "ends_at": "2026-06-26"},
		{"id": "proj-south", "name": "South", "portfolio_id": "pf-demo", "budget": 150000},
		{"id": "proj-east", "name": "East", "portfolio_id": "pf-demo", "budget": 50000}
	],
	"tasks": [
		{"id": "task-n1", "project_id": "proj-north", "name": "Foundations",
		 "assignee_user_id": "eva", "planned_start_at": "2026-01-05",
		 "planned_end_at": "2026-01-30", "estimate_hours": 160, "percent_complete": 75},
		{"id": "task-s1", "project_id": "proj-south", "name": "Rollout",
		 "assignee_user_id": "finn", "planned_start_at": "2026-02-02",
		 "planned_end_at": "2026-02-27", "estimate_hours": 160, "percent_complete": 25}
	],
	"earned_value": [
		{"project_id": "proj-north", "bac": 100000, "ev": 80000, "ac": 90000,
		 "pv": 85000, "as_of": "2026-02-01"},
		{"project_id": "proj-south", "bac": 150000, "ev": 40000, "ac": 35000,
		 "pv": 50000, "as_of": "2026-02-01"},
		{"project_id": "proj-east", "bac": 0, "ev": 10000, "ac": 10000,
		 "pv": 10000, "as_of": "2026-02-01"}
	]
}`

// =============================================================================
// DEMO LOADERS
// =============================================================================

func (h *Handler) loadWaterfallSlipDemo(ctx context.Context) error {
	if err := h.seedPortfolio(ctx, waterfallSlipJSON); err != nil {
		return err
	}
	return h.seedScenario(ctx, "Slip the build by a week",
		engine.ScopeProject, "proj-launch",
		demoAction(engine.ActionShiftTask, `{"taskId":"task-build","shiftDays":7}`),
	)
}

func (h *Handler) loadOverloadedTeamDemo(ctx context.Context) error {
	if err := h.seedPortfolio(ctx, overloadedTeamJSON); err != nil {
		return err
	}
	return h.seedScenario(ctx, "Give Cara longer days",
		engine.ScopePortfolio, "pf-demo",
		demoAction(engine.ActionChangeCapacity, `{"userId":"cara","date":"2026-02-09","capacityHours":12}`),
		demoAction(engine.ActionChangeCapacity, `{"userId":"cara","date":"2026-02-10","capacityHours":12}`),
	)
}

func (h *Handler) loadPortfolioHealthDemo(ctx context.Context) error {
	if err := h.seedPortfolio(ctx, portfolioHealthJSON); err != nil {
		return err
	}
	return h.seedScenario(ctx, "Rebudget and delay North",
		engine.ScopePortfolio, "pf-demo",
		demoAction(engine.ActionShiftProject, `{"projectId":"proj-north","shiftDays":14}`),
		demoAction(engine.ActionChangeBudget, `{"projectId":"proj-south","newBudget":180000}`),
	)
}

func (h *Handler) seedPortfolio(ctx context.Context, fixture string) error {
	portfolio, err := factory.NewPortfolioFactory().ParsePortfolio(fixture)
	if err != nil {
		return fmt.Errorf("parsing demo portfolio: %w", err)
	}

	for _, p := range portfolio.Projects {
		if err := h.Store.SaveProject(ctx, p); err != nil {
			return err
		}
	}
	for _, t := range portfolio.Tasks {
		if err := h.Store.SaveTask(ctx, portfolio.OrganizationID, t); err != nil {
			return err
		}
	}
	for _, d := range portfolio.Dependencies {
		if err := h.Store.AddDependency(ctx, d); err != nil {
			return err
		}
	}
	for _, ev := range portfolio.EarnedValue {
		if err := h.Store.SaveEarnedValue(ctx, portfolio.OrganizationID, ev); err != nil {
			return err
		}
	}
	return nil
}

type demoActionSpec struct {
	typ     engine.ActionType
	payload string
}

func demoAction(typ engine.ActionType, payload string) demoActionSpec {
	return demoActionSpec{typ: typ, payload: payload}
}

func (h *Handler) seedScenario(ctx context.Context, name string, scope engine.ScopeType, scopeID string, actions ...demoActionSpec) error {
	now := time.Now().UTC()
	plan := &engine.ScenarioPlan{
		ID:             engine.ScenarioID(uuid.NewString()),
		OrganizationID: DemoOrg,
		Name:           name,
		ScopeType:      scope,
		ScopeID:        scopeID,
		Status:         engine.StatusActive,
		CreatedBy:      "demo",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.Store.SaveScenario(ctx, plan); err != nil {
		return err
	}

	for i, a := range actions {
		action := engine.ScenarioAction{
			ID:             uuid.NewString(),
			OrganizationID: DemoOrg,
			ScenarioID:     plan.ID,
			Type:           a.typ,
			Payload:        []byte(a.payload),
			// Spread creation times so application order is stable.
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := h.Store.AddAction(ctx, action); err != nil {
			return err
		}
	}
	return nil
}
