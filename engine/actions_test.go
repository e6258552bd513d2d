package engine

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func rawAction(id string, typ ActionType, payload string) ScenarioAction {
	return ScenarioAction{
		ID:             id,
		OrganizationID: "org-1",
		ScenarioID:     "sc-1",
		Type:           typ,
		Payload:        []byte(payload),
	}
}

func TestParseAction_AllVariants(t *testing.T) {
	cases := []struct {
		name    string
		action  ScenarioAction
		want    Action
		warning string
	}{
		{
			name:   "shift_project valid",
			action: rawAction("a1", ActionShiftProject, `{"projectId":"p1","shiftDays":10}`),
			want:   ShiftProject{ProjectID: "p1", ShiftDays: 10},
		},
		{
			name:    "shift_project empty payload",
			action:  rawAction("a2", ActionShiftProject, `{}`),
			warning: "Invalid shift_project action a2: missing projectId or shiftDays",
		},
		{
			name:   "shift_task valid",
			action: rawAction("a3", ActionShiftTask, `{"taskId":"t1","shiftDays":-3}`),
			want:   ShiftTask{TaskID: "t1", ShiftDays: -3},
		},
		{
			name:    "shift_task missing shiftDays",
			action:  rawAction("a4", ActionShiftTask, `{"taskId":"t1"}`),
			warning: "Invalid shift_task action a4: missing taskId or shiftDays",
		},
		{
			name:    "change_capacity missing date",
			action:  rawAction("a5", ActionChangeCapacity, `{"userId":"u1","capacityHours":12}`),
			warning: "Invalid change_capacity action a5: missing userId, date, or capacityHours",
		},
		{
			name:   "change_budget valid",
			action: rawAction("a6", ActionChangeBudget, `{"projectId":"p1","newBudget":50000}`),
		},
		{
			name:    "unknown type",
			action:  rawAction("a7", ActionType("freeze_hiring"), `{}`),
			warning: "Unknown action type: freeze_hiring",
		},
		{
			name:    "malformed json",
			action:  rawAction("a8", ActionShiftProject, `{not json`),
			warning: "Invalid shift_project action a8",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			act, warning := ParseAction(tc.action)
			if tc.warning != "" {
				if act != nil {
					t.Fatalf("expected nil action, got %#v", act)
				}
				if !strings.Contains(warning, tc.warning) {
					t.Fatalf("expected warning containing %q, got %q", tc.warning, warning)
				}
				return
			}
			if warning != "" {
				t.Fatalf("unexpected warning: %q", warning)
			}
			if tc.want != nil && act != tc.want {
				t.Fatalf("expected %#v, got %#v", tc.want, act)
			}
		})
	}
}

func TestParseAction_CapacityHoursDecimal(t *testing.T) {
	act, warning := ParseAction(rawAction("a1", ActionChangeCapacity,
		`{"userId":"u1","date":"2026-02-10","capacityHours":12}`))
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}
	cc, ok := act.(ChangeCapacity)
	if !ok {
		t.Fatalf("expected ChangeCapacity, got %T", act)
	}
	if !cc.CapacityHours.Equal(decimal.NewFromInt(12)) {
		t.Errorf("expected 12 hours, got %v", cc.CapacityHours)
	}
}

func TestApplyAction_ShiftTaskNotFound(t *testing.T) {
	ws := &workingSet{tasks: []*WorkTask{weekTask("t1", "p1", "u1")}}
	clone := ws.clone()

	warning := applyAction(clone, map[string]decimal.Decimal{}, ShiftTask{TaskID: "ghost", ShiftDays: 5})
	if warning != "Task ghost not found in scope" {
		t.Errorf("unexpected warning: %q", warning)
	}
}

func TestApplyAction_ShiftProjectMovesTasksAndWindow(t *testing.T) {
	project := &Project{
		ID:       "p1",
		Name:     "Alpha",
		StartsAt: datePtr(2026, 2, 9),
		EndsAt:   datePtr(2026, 2, 13),
	}
	ws := &workingSet{
		projects: []*Project{project},
		tasks:    []*WorkTask{weekTask("t1", "p1", "u1"), weekTask("t2", "p2", "u1")},
	}
	clone := ws.clone()

	warning := applyAction(clone, map[string]decimal.Decimal{}, ShiftProject{ProjectID: "p1", ShiftDays: 7})
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}

	if got := FormatDate(*clone.tasks[0].PlannedStartAt); got != "2026-02-16" {
		t.Errorf("expected in-project task shifted to 2026-02-16, got %s", got)
	}
	if got := FormatDate(*clone.tasks[1].PlannedStartAt); got != "2026-02-09" {
		t.Errorf("expected other-project task untouched, got %s", got)
	}
	if got := FormatDate(*clone.projects[0].StartsAt); got != "2026-02-16" {
		t.Errorf("expected project window shifted, got %s", got)
	}
	// Originals must stay put.
	if got := FormatDate(*ws.tasks[0].PlannedStartAt); got != "2026-02-09" {
		t.Errorf("original task mutated: %s", got)
	}
	if got := FormatDate(*ws.projects[0].StartsAt); got != "2026-02-09" {
		t.Errorf("original project mutated: %s", got)
	}
}

func TestApplyAction_ChangeBudgetOnlyTouchesClone(t *testing.T) {
	project := &Project{ID: "p1", Budget: dec(1000)}
	ws := &workingSet{projects: []*Project{project}}
	clone := ws.clone()

	warning := applyAction(clone, map[string]decimal.Decimal{}, ChangeBudget{ProjectID: "p1", NewBudget: dec(2500)})
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}
	if !clone.projects[0].Budget.Equal(dec(2500)) {
		t.Errorf("expected clone budget 2500, got %v", clone.projects[0].Budget)
	}
	if !ws.projects[0].Budget.Equal(dec(1000)) {
		t.Errorf("original budget mutated: %v", ws.projects[0].Budget)
	}
}
