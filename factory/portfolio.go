/*
Package factory provides JSON to Go portfolio conversion.

PURPOSE:
  Converts JSON portfolio definitions into engine entities (projects,
  tasks, dependencies, earned-value snapshots). This enables fixture and
  demo configuration without code changes - a portfolio can be defined in
  JSON, and the factory creates the proper Go structs ready for seeding
  into a store.

JSON SCHEMA:
  {
    "organization_id": "org-demo",
    "projects": [
      {
        "id": "p1",
        "name": "Atlas Migration",
        "portfolio_id": "pf-core",
        "budget": 100000,
        "waterfall_enabled": true,
        "starts_at": "2026-02-09",
        "ends_at": "2026-04-30"
      }
    ],
    "tasks": [
      {
        "id": "t1",
        "project_id": "p1",
        "name": "Build pipeline",
        "assignee_user_id": "u1",
        "planned_start_at": "2026-02-09",
        "planned_end_at": "2026-02-13",
        "estimate_hours": 40,
        "percent_complete": 25
      }
    ],
    "dependencies": [
      {"project_id": "p1", "predecessor_id": "t1", "successor_id": "t2",
       "type": "finish_to_start", "lag_minutes": 0}
    ],
    "earned_value": [
      {"project_id": "p1", "bac": 100000, "ev": 80000, "ac": 90000,
       "pv": 85000, "as_of": "2026-02-01"}
    ]
  }

KEY FEATURES:
  - Validates JSON structure and date formats
  - Hour fields omitted in JSON stay nil on the task (null, not zero)
  - Dependency types default to finish_to_start
  - Dates are ISO YYYY-MM-DD, interpreted as UTC midnight

USAGE:
  factory := NewPortfolioFactory()
  portfolio, err := factory.ParsePortfolio(jsonString)

  for _, p := range portfolio.Projects {
      mem.SaveProject(p)
  }

SEE ALSO:
  - engine/types.go: the target entity definitions
  - api/demos.go: preset demo portfolios built on this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/scenario-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PortfolioJSON is the JSON representation of a seedable portfolio.
type PortfolioJSON struct {
	OrganizationID string           `json:"organization_id"`
	Projects       []ProjectJSON    `json:"projects"`
	Tasks          []TaskJSON       `json:"tasks,omitempty"`
	Dependencies   []DependencyJSON `json:"dependencies,omitempty"`
	EarnedValue    []EarnedValueJSON `json:"earned_value,omitempty"`
}

// ProjectJSON represents one project row.
type ProjectJSON struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	PortfolioID      string  `json:"portfolio_id,omitempty"`
	Budget           float64 `json:"budget,omitempty"`
	WaterfallEnabled bool    `json:"waterfall_enabled,omitempty"`
	StartsAt         string  `json:"starts_at,omitempty"`
	EndsAt           string  `json:"ends_at,omitempty"`
}

// TaskJSON represents one task row. Pointer fields distinguish absent
// from zero; an omitted estimate stays null on the entity.
type TaskJSON struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"project_id"`
	Name            string   `json:"name,omitempty"`
	AssigneeUserID  string   `json:"assignee_user_id,omitempty"`
	IsMilestone     bool     `json:"is_milestone,omitempty"`
	PlannedStartAt  string   `json:"planned_start_at,omitempty"`
	PlannedEndAt    string   `json:"planned_end_at,omitempty"`
	EstimateHours   *float64 `json:"estimate_hours,omitempty"`
	RemainingHours  *float64 `json:"remaining_hours,omitempty"`
	PercentComplete float64  `json:"percent_complete,omitempty"`
}

// DependencyJSON represents one edge in a project's task graph.
type DependencyJSON struct {
	ProjectID     string `json:"project_id"`
	PredecessorID string `json:"predecessor_id"`
	SuccessorID   string `json:"successor_id"`
	Type          string `json:"type,omitempty"` // defaults to finish_to_start
	LagMinutes    int64  `json:"lag_minutes,omitempty"`
}

// EarnedValueJSON represents one EVM snapshot.
type EarnedValueJSON struct {
	ProjectID string  `json:"project_id"`
	BAC       float64 `json:"bac"`
	EV        float64 `json:"ev"`
	AC        float64 `json:"ac"`
	PV        float64 `json:"pv"`
	AsOf      string  `json:"as_of"`
}

// Portfolio is the converted result, ready to seed into a store.
type Portfolio struct {
	OrganizationID engine.OrganizationID
	Projects       []*engine.Project
	Tasks          []*engine.WorkTask
	Dependencies   []engine.WorkTaskDependency
	EarnedValue    []engine.EarnedValueSnapshot
}

// =============================================================================
// PORTFOLIO FACTORY
// =============================================================================

// PortfolioFactory converts JSON portfolios to engine entities.
type PortfolioFactory struct{}

// NewPortfolioFactory creates a new portfolio factory.
func NewPortfolioFactory() *PortfolioFactory {
	return &PortfolioFactory{}
}

// ParsePortfolio parses a JSON string into a seedable Portfolio.
func (f *PortfolioFactory) ParsePortfolio(jsonStr string) (*Portfolio, error) {
	var pj PortfolioJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PortfolioJSON to engine entities.
func (f *PortfolioFactory) FromJSON(pj PortfolioJSON) (*Portfolio, error) {
	if pj.OrganizationID == "" {
		return nil, fmt.Errorf("portfolio requires organization_id")
	}
	org := engine.OrganizationID(pj.OrganizationID)

	out := &Portfolio{OrganizationID: org}

	for _, proj := range pj.Projects {
		if proj.ID == "" {
			return nil, fmt.Errorf("project requires id")
		}
		p := &engine.Project{
			ID:               engine.ProjectID(proj.ID),
			OrganizationID:   org,
			Name:             proj.Name,
			PortfolioID:      proj.PortfolioID,
			Budget:           decimal.NewFromFloat(proj.Budget),
			WaterfallEnabled: proj.WaterfallEnabled,
		}
		var err error
		if p.StartsAt, err = parseOptionalDate(proj.StartsAt); err != nil {
			return nil, fmt.Errorf("project %s: %w", proj.ID, err)
		}
		if p.EndsAt, err = parseOptionalDate(proj.EndsAt); err != nil {
			return nil, fmt.Errorf("project %s: %w", proj.ID, err)
		}
		out.Projects = append(out.Projects, p)
	}

	for _, task := range pj.Tasks {
		if task.ID == "" || task.ProjectID == "" {
			return nil, fmt.Errorf("task requires id and project_id")
		}
		t := &engine.WorkTask{
			ID:              engine.TaskID(task.ID),
			ProjectID:       engine.ProjectID(task.ProjectID),
			Name:            task.Name,
			IsMilestone:     task.IsMilestone,
			EstimateHours:   floatToDecimalPtr(task.EstimateHours),
			RemainingHours:  floatToDecimalPtr(task.RemainingHours),
			PercentComplete: decimal.NewFromFloat(task.PercentComplete),
		}
		if task.AssigneeUserID != "" {
			u := engine.UserID(task.AssigneeUserID)
			t.AssigneeUserID = &u
		}
		var err error
		if t.PlannedStartAt, err = parseOptionalDate(task.PlannedStartAt); err != nil {
			return nil, fmt.Errorf("task %s: %w", task.ID, err)
		}
		if t.PlannedEndAt, err = parseOptionalDate(task.PlannedEndAt); err != nil {
			return nil, fmt.Errorf("task %s: %w", task.ID, err)
		}
		out.Tasks = append(out.Tasks, t)
	}

	for _, dep := range pj.Dependencies {
		if dep.PredecessorID == "" || dep.SuccessorID == "" {
			return nil, fmt.Errorf("dependency requires predecessor_id and successor_id")
		}
		depType, err := parseDependencyType(dep.Type)
		if err != nil {
			return nil, err
		}
		out.Dependencies = append(out.Dependencies, engine.WorkTaskDependency{
			ProjectID:     engine.ProjectID(dep.ProjectID),
			PredecessorID: engine.TaskID(dep.PredecessorID),
			SuccessorID:   engine.TaskID(dep.SuccessorID),
			Type:          depType,
			LagMinutes:    dep.LagMinutes,
		})
	}

	for _, ev := range pj.EarnedValue {
		if ev.ProjectID == "" {
			return nil, fmt.Errorf("earned value snapshot requires project_id")
		}
		asOf, err := parseOptionalDate(ev.AsOf)
		if err != nil {
			return nil, fmt.Errorf("earned value for %s: %w", ev.ProjectID, err)
		}
		snap := engine.EarnedValueSnapshot{
			ProjectID: engine.ProjectID(ev.ProjectID),
			BAC:       decimal.NewFromFloat(ev.BAC),
			EV:        decimal.NewFromFloat(ev.EV),
			AC:        decimal.NewFromFloat(ev.AC),
			PV:        decimal.NewFromFloat(ev.PV),
		}
		if asOf != nil {
			snap.CreatedAt = *asOf
		}
		out.EarnedValue = append(out.EarnedValue, snap)
	}

	return out, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(engine.ISODate, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	t = t.UTC()
	return &t, nil
}

func floatToDecimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func parseDependencyType(s string) (engine.DependencyType, error) {
	switch s {
	case "", "finish_to_start":
		return engine.DepFinishToStart, nil
	case "start_to_start":
		return engine.DepStartToStart, nil
	case "finish_to_finish":
		return engine.DepFinishToFinish, nil
	case "start_to_finish":
		return engine.DepStartToFinish, nil
	default:
		return "", fmt.Errorf("unknown dependency type: %s", s)
	}
}
