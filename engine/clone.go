package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WORKING SET CLONE - Value-level isolation from loaded baseline data
// =============================================================================

// workingSet is everything one state computation reads. The before state
// runs over the loaded originals; the after state runs over a clone plus
// the accumulated capacity overrides.
type workingSet struct {
	projects     []*Project
	tasks        []*WorkTask
	dependencies []WorkTaskDependency
	earnedValue  map[ProjectID]*EarnedValueSnapshot
}

// clone produces a deep, independent copy of tasks and projects. No action
// mutation may ever be visible through the original references, so every
// pointer field is re-allocated. Dependencies and earned-value snapshots
// are shared: no action type writes to them.
func (ws *workingSet) clone() *workingSet {
	projects := make([]*Project, len(ws.projects))
	for i, p := range ws.projects {
		cp := *p
		cp.StartsAt = copyTime(p.StartsAt)
		cp.EndsAt = copyTime(p.EndsAt)
		projects[i] = &cp
	}

	tasks := make([]*WorkTask, len(ws.tasks))
	for i, t := range ws.tasks {
		ct := *t
		ct.AssigneeUserID = copyUserID(t.AssigneeUserID)
		ct.PlannedStartAt = copyTime(t.PlannedStartAt)
		ct.PlannedEndAt = copyTime(t.PlannedEndAt)
		ct.EstimateHours = copyDecimal(t.EstimateHours)
		ct.RemainingHours = copyDecimal(t.RemainingHours)
		tasks[i] = &ct
	}

	return &workingSet{
		projects:     projects,
		tasks:        tasks,
		dependencies: ws.dependencies,
		earnedValue:  ws.earnedValue,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyUserID(u *UserID) *UserID {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}
