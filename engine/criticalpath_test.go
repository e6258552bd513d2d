package engine

import (
	"errors"
	"testing"
	"time"
)

func cpTask(id string, startDay, endDay int) *WorkTask {
	start := time.Date(2026, time.March, startDay, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, endDay, 17, 0, 0, 0, time.UTC)
	return &WorkTask{
		ID:             TaskID(id),
		ProjectID:      "p1",
		PlannedStartAt: &start,
		PlannedEndAt:   &end,
	}
}

func fsDep(pred, succ string) WorkTaskDependency {
	return WorkTaskDependency{
		ProjectID:     "p1",
		PredecessorID: TaskID(pred),
		SuccessorID:   TaskID(succ),
		Type:          DepFinishToStart,
	}
}

func TestCriticalPath_ChainSumsDurations(t *testing.T) {
	// GIVEN: a -> b, both one working day long (9:00-17:00 = 480 min)
	// THEN: the project finishes at 960 minutes and both tasks are critical

	tasks := []*WorkTask{cpTask("a", 2, 2), cpTask("b", 3, 3)}
	deps := []WorkTaskDependency{fsDep("a", "b")}

	result, err := ComputeCriticalPath(tasks, deps, DateBasisPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProjectFinishMinutes != 960 {
		t.Errorf("expected finish 960, got %d", result.ProjectFinishMinutes)
	}
	if result.LongestPathDurationMinutes != 960 {
		t.Errorf("expected longest path 960, got %d", result.LongestPathDurationMinutes)
	}
	if len(result.CriticalPathTaskIDs) != 2 {
		t.Fatalf("expected 2 critical tasks, got %v", result.CriticalPathTaskIDs)
	}
	if result.CriticalPathTaskIDs[0] != "a" || result.CriticalPathTaskIDs[1] != "b" {
		t.Errorf("expected [a b], got %v", result.CriticalPathTaskIDs)
	}
}

func TestCriticalPath_ShortBranchHasSlack(t *testing.T) {
	// GIVEN: a(2 days) -> c, b(1 day) -> c
	// THEN: b has slack and is not on the critical path

	tasks := []*WorkTask{cpTask("a", 2, 3), cpTask("b", 2, 2), cpTask("c", 4, 4)}
	deps := []WorkTaskDependency{fsDep("a", "c"), fsDep("b", "c")}

	result, err := ComputeCriticalPath(tasks, deps, DateBasisPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range result.CriticalPathTaskIDs {
		if id == "b" {
			t.Errorf("task b should not be critical: %v", result.CriticalPathTaskIDs)
		}
	}
	// a spans 2026-03-02 09:00 .. 2026-03-03 17:00 = 1920 min, c adds 480.
	if result.ProjectFinishMinutes != 2400 {
		t.Errorf("expected finish 2400, got %d", result.ProjectFinishMinutes)
	}
}

func TestCriticalPath_LagPushesSuccessor(t *testing.T) {
	tasks := []*WorkTask{cpTask("a", 2, 2), cpTask("b", 3, 3)}
	deps := []WorkTaskDependency{{
		ProjectID:     "p1",
		PredecessorID: "a",
		SuccessorID:   "b",
		Type:          DepFinishToStart,
		LagMinutes:    120,
	}}

	result, err := ComputeCriticalPath(tasks, deps, DateBasisPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProjectFinishMinutes != 1080 {
		t.Errorf("expected finish 1080 (480 + 120 lag + 480), got %d", result.ProjectFinishMinutes)
	}
}

func TestCriticalPath_StartToStartOverlaps(t *testing.T) {
	// SS with no lag lets both tasks start together.
	tasks := []*WorkTask{cpTask("a", 2, 2), cpTask("b", 2, 2)}
	deps := []WorkTaskDependency{{
		ProjectID:     "p1",
		PredecessorID: "a",
		SuccessorID:   "b",
		Type:          DepStartToStart,
	}}

	result, err := ComputeCriticalPath(tasks, deps, DateBasisPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProjectFinishMinutes != 480 {
		t.Errorf("expected finish 480, got %d", result.ProjectFinishMinutes)
	}
}

func TestCriticalPath_CycleFails(t *testing.T) {
	tasks := []*WorkTask{cpTask("a", 2, 2), cpTask("b", 3, 3)}
	deps := []WorkTaskDependency{fsDep("a", "b"), fsDep("b", "a")}

	_, err := ComputeCriticalPath(tasks, deps, DateBasisPlanned)
	if !errors.Is(err, ErrCyclicDependencies) {
		t.Fatalf("expected ErrCyclicDependencies, got %v", err)
	}
}

func TestCriticalPath_UnknownEdgeEndpointsSkipped(t *testing.T) {
	tasks := []*WorkTask{cpTask("a", 2, 2)}
	deps := []WorkTaskDependency{fsDep("a", "ghost"), fsDep("ghost", "a")}

	result, err := ComputeCriticalPath(tasks, deps, DateBasisPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProjectFinishMinutes != 480 {
		t.Errorf("expected finish 480, got %d", result.ProjectFinishMinutes)
	}
}

func TestCriticalPath_EmptyAndMilestones(t *testing.T) {
	result, err := ComputeCriticalPath(nil, nil, DateBasisPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProjectFinishMinutes != 0 {
		t.Errorf("expected zero finish for empty project, got %d", result.ProjectFinishMinutes)
	}

	milestone := cpTask("m", 2, 9)
	milestone.IsMilestone = true
	result, err = ComputeCriticalPath([]*WorkTask{milestone}, nil, DateBasisPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProjectFinishMinutes != 0 {
		t.Errorf("milestones have no duration, got %d", result.ProjectFinishMinutes)
	}
}
