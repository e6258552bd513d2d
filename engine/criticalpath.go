/*
criticalpath.go - Critical path method over one project's task graph

PURPOSE:
  Pure function over tasks and dependency edges: a forward pass assigns
  earliest start/finish offsets in minutes, a backward pass assigns latest
  start/finish, and zero-slack tasks form the critical path. Task duration
  is the planned start-to-end span; milestones contribute zero.

GRAPH RULES:
  - All four dependency types (FS/SS/FF/SF) are honored, with lag minutes
  - Edges referencing unknown task ids are skipped
  - A cycle aborts the computation with ErrCyclicDependencies; the
    orchestrator swallows that and contributes zero slip for the project

SEE ALSO:
  - compute.go: invokes this once per waterfall-enabled project per state
*/
package engine

import (
	"sort"
)

// DateBasis selects which task date fields feed durations. Only the
// planned basis exists today; a baseline basis would enable a true
// baseline-vs-after drift comparison.
type DateBasis string

const DateBasisPlanned DateBasis = "planned"

// CriticalPathResult is the outcome of one project's CPM pass.
type CriticalPathResult struct {
	CriticalPathTaskIDs        []TaskID
	ProjectFinishMinutes       int64
	LongestPathDurationMinutes int64
}

// ComputeCriticalPath runs the forward/backward pass for a single
// project's tasks and dependencies. Stateless and side-effect free.
func ComputeCriticalPath(tasks []*WorkTask, deps []WorkTaskDependency, basis DateBasis) (*CriticalPathResult, error) {
	if len(tasks) == 0 {
		return &CriticalPathResult{}, nil
	}

	// Stable node ordering keeps the pass deterministic.
	ordered := make([]*WorkTask, len(tasks))
	copy(ordered, tasks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	duration := make(map[TaskID]int64, len(ordered))
	for _, t := range ordered {
		duration[t.ID] = taskDurationMinutes(t, basis)
	}

	// Drop edges whose endpoints are outside this task set.
	edges := make([]WorkTaskDependency, 0, len(deps))
	successors := make(map[TaskID][]WorkTaskDependency)
	inDegree := make(map[TaskID]int, len(ordered))
	for _, t := range ordered {
		inDegree[t.ID] = 0
	}
	for _, d := range deps {
		if _, ok := duration[d.PredecessorID]; !ok {
			continue
		}
		if _, ok := duration[d.SuccessorID]; !ok {
			continue
		}
		edges = append(edges, d)
		successors[d.PredecessorID] = append(successors[d.PredecessorID], d)
		inDegree[d.SuccessorID]++
	}

	// Kahn topological order; leftover nodes mean a cycle.
	var queue []TaskID
	for _, t := range ordered {
		if inDegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}
	var topo []TaskID
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		topo = append(topo, id)
		for _, d := range successors[id] {
			inDegree[d.SuccessorID]--
			if inDegree[d.SuccessorID] == 0 {
				queue = append(queue, d.SuccessorID)
			}
		}
	}
	if len(topo) != len(ordered) {
		return nil, ErrCyclicDependencies
	}

	// Forward pass: earliest start/finish.
	earlyStart := make(map[TaskID]int64, len(ordered))
	earlyFinish := make(map[TaskID]int64, len(ordered))
	for _, id := range topo {
		earlyFinish[id] = earlyStart[id] + duration[id]
		for _, d := range successors[id] {
			constraint := forwardConstraint(d, earlyStart[id], earlyFinish[id], duration[d.SuccessorID])
			if constraint > earlyStart[d.SuccessorID] {
				earlyStart[d.SuccessorID] = constraint
			}
		}
	}

	var finish int64
	for _, id := range topo {
		if earlyFinish[id] > finish {
			finish = earlyFinish[id]
		}
	}

	// Backward pass: latest finish, walking the topological order in reverse.
	lateFinish := make(map[TaskID]int64, len(ordered))
	for _, id := range topo {
		lateFinish[id] = finish
	}
	for i := len(topo) - 1; i >= 0; i-- {
		id := topo[i]
		for _, d := range successors[id] {
			succLS := lateFinish[d.SuccessorID] - duration[d.SuccessorID]
			limit := backwardConstraint(d, succLS, lateFinish[d.SuccessorID], duration[id])
			if limit < lateFinish[id] {
				lateFinish[id] = limit
			}
		}
	}

	var critical []TaskID
	for _, id := range topo {
		if lateFinish[id]-earlyFinish[id] == 0 {
			critical = append(critical, id)
		}
	}
	sort.Slice(critical, func(i, j int) bool { return critical[i] < critical[j] })

	return &CriticalPathResult{
		CriticalPathTaskIDs:        critical,
		ProjectFinishMinutes:       finish,
		LongestPathDurationMinutes: finish,
	}, nil
}

// forwardConstraint is the minimum earliest start the edge imposes on the
// successor.
func forwardConstraint(d WorkTaskDependency, predES, predEF, succDur int64) int64 {
	switch d.Type {
	case DepStartToStart:
		return predES + d.LagMinutes
	case DepFinishToFinish:
		return predEF + d.LagMinutes - succDur
	case DepStartToFinish:
		return predES + d.LagMinutes - succDur
	default: // finish_to_start, and unknown types behave as FS
		return predEF + d.LagMinutes
	}
}

// backwardConstraint is the maximum latest finish the edge imposes on the
// predecessor.
func backwardConstraint(d WorkTaskDependency, succLS, succLF, predDur int64) int64 {
	switch d.Type {
	case DepStartToStart:
		return succLS - d.LagMinutes + predDur
	case DepFinishToFinish:
		return succLF - d.LagMinutes
	case DepStartToFinish:
		return succLF - d.LagMinutes + predDur
	default:
		return succLS - d.LagMinutes
	}
}

// taskDurationMinutes is the planned span in minutes, clamped at zero.
// Milestones and tasks without both dates have no duration.
func taskDurationMinutes(t *WorkTask, basis DateBasis) int64 {
	_ = basis // only the planned basis exists today
	if t.IsMilestone || t.PlannedStartAt == nil || t.PlannedEndAt == nil {
		return 0
	}
	mins := int64(t.PlannedEndAt.Sub(*t.PlannedStartAt).Minutes())
	if mins < 0 {
		return 0
	}
	return mins
}
