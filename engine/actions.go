/*
actions.go - The closed scenario action union and its reducer

PURPOSE:
  Decodes raw action payloads into a closed sum type and applies them, in
  creation order, against the working clone. The reducer holds no state of
  its own: it mutates only the clone and the capacity override map, and
  appends a warning for anything malformed or unresolvable. No action
  failure is ever fatal to the compute.

PAYLOAD SCHEMAS (JSON):
  shift_project:   {"projectId": "...", "shiftDays": n}
  shift_task:      {"taskId": "...", "shiftDays": n}
  change_capacity: {"userId": "...", "date": "YYYY-MM-DD", "capacityHours": n}
  change_budget:   {"projectId": "...", "newBudget": n}

ADDING AN ACTION TYPE:
  Add a variant struct with isAction(), a case in ParseAction, and a case
  in the Apply switch. The switch is exhaustive over the union; a missed
  variant fails at compile time, not as a silent runtime fallthrough.

SEE ALSO:
  - compute.go: drives the reducer once per action
*/
package engine

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACTION UNION
// =============================================================================

// Action is the closed union of scenario action variants.
type Action interface{ isAction() }

// ShiftProject moves every task in a project, and the project's own
// window, by a number of calendar days.
type ShiftProject struct {
	ProjectID ProjectID
	ShiftDays int
}

// ShiftTask moves a single task's planned dates by calendar days.
type ShiftTask struct {
	TaskID    TaskID
	ShiftDays int
}

// ChangeCapacity overrides one user's capacity on one date.
type ChangeCapacity struct {
	UserID        UserID
	Date          string
	CapacityHours decimal.Decimal
}

// ChangeBudget replaces a project's budget on the clone.
type ChangeBudget struct {
	ProjectID ProjectID
	NewBudget decimal.Decimal
}

func (ShiftProject) isAction()   {}
func (ShiftTask) isAction()      {}
func (ChangeCapacity) isAction() {}
func (ChangeBudget) isAction()   {}

// =============================================================================
// PAYLOAD DECODING
// =============================================================================

type shiftProjectPayload struct {
	ProjectID *string `json:"projectId"`
	ShiftDays *int    `json:"shiftDays"`
}

type shiftTaskPayload struct {
	TaskID    *string `json:"taskId"`
	ShiftDays *int    `json:"shiftDays"`
}

type changeCapacityPayload struct {
	UserID        *string  `json:"userId"`
	Date          *string  `json:"date"`
	CapacityHours *float64 `json:"capacityHours"`
}

type changeBudgetPayload struct {
	ProjectID *string  `json:"projectId"`
	NewBudget *float64 `json:"newBudget"`
}

// ParseAction decodes a stored action's payload into its typed variant.
// On malformed input it returns a non-empty warning and a nil action.
func ParseAction(a ScenarioAction) (Action, string) {
	switch a.Type {
	case ActionShiftProject:
		var p shiftProjectPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil || p.ProjectID == nil || p.ShiftDays == nil {
			return nil, fmt.Sprintf("Invalid shift_project action %s: missing projectId or shiftDays", a.ID)
		}
		return ShiftProject{ProjectID: ProjectID(*p.ProjectID), ShiftDays: *p.ShiftDays}, ""

	case ActionShiftTask:
		var p shiftTaskPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil || p.TaskID == nil || p.ShiftDays == nil {
			return nil, fmt.Sprintf("Invalid shift_task action %s: missing taskId or shiftDays", a.ID)
		}
		return ShiftTask{TaskID: TaskID(*p.TaskID), ShiftDays: *p.ShiftDays}, ""

	case ActionChangeCapacity:
		var p changeCapacityPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil || p.UserID == nil || p.Date == nil || p.CapacityHours == nil {
			return nil, fmt.Sprintf("Invalid change_capacity action %s: missing userId, date, or capacityHours", a.ID)
		}
		return ChangeCapacity{
			UserID:        UserID(*p.UserID),
			Date:          *p.Date,
			CapacityHours: decimal.NewFromFloat(*p.CapacityHours),
		}, ""

	case ActionChangeBudget:
		var p changeBudgetPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil || p.ProjectID == nil || p.NewBudget == nil {
			return nil, fmt.Sprintf("Invalid change_budget action %s: missing projectId or newBudget", a.ID)
		}
		return ChangeBudget{ProjectID: ProjectID(*p.ProjectID), NewBudget: decimal.NewFromFloat(*p.NewBudget)}, ""

	default:
		return nil, fmt.Sprintf("Unknown action type: %s", a.Type)
	}
}

// =============================================================================
// REDUCER
// =============================================================================

// applyAction mutates the clone and/or the override map for one typed
// action. Returned warnings are informational; the clone is left untouched
// when a reference does not resolve.
func applyAction(clone *workingSet, overrides map[string]decimal.Decimal, act Action) string {
	switch a := act.(type) {
	case ShiftProject:
		var project *Project
		for _, p := range clone.projects {
			if p.ID == a.ProjectID {
				project = p
				break
			}
		}
		if project == nil {
			return fmt.Sprintf("Project %s not found in scope", a.ProjectID)
		}
		for _, t := range clone.tasks {
			if t.ProjectID == a.ProjectID {
				shiftTaskDates(t, a.ShiftDays)
			}
		}
		if project.StartsAt != nil {
			shifted := project.StartsAt.AddDate(0, 0, a.ShiftDays)
			project.StartsAt = &shifted
		}
		if project.EndsAt != nil {
			shifted := project.EndsAt.AddDate(0, 0, a.ShiftDays)
			project.EndsAt = &shifted
		}
		return ""

	case ShiftTask:
		for _, t := range clone.tasks {
			if t.ID == a.TaskID {
				shiftTaskDates(t, a.ShiftDays)
				return ""
			}
		}
		return fmt.Sprintf("Task %s not found in scope", a.TaskID)

	case ChangeCapacity:
		overrides[OverrideKey(a.UserID, a.Date)] = a.CapacityHours
		return ""

	case ChangeBudget:
		for _, p := range clone.projects {
			if p.ID == a.ProjectID {
				p.Budget = a.NewBudget
				return ""
			}
		}
		return fmt.Sprintf("Project %s not found in scope", a.ProjectID)
	}

	// Unreachable: ParseAction only produces the variants above.
	return fmt.Sprintf("Unknown action variant %T", act)
}

func shiftTaskDates(t *WorkTask, days int) {
	if t.PlannedStartAt != nil {
		shifted := t.PlannedStartAt.AddDate(0, 0, days)
		t.PlannedStartAt = &shifted
	}
	if t.PlannedEndAt != nil {
		shifted := t.PlannedEndAt.AddDate(0, 0, days)
		t.PlannedEndAt = &shifted
	}
}
