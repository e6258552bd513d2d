/*
capacity.go - Per-user-per-day labor demand vs capacity

PURPOSE:
  Computes how much work each assignee has scheduled on each working day,
  compares it against their daily capacity, and aggregates the totals the
  scenario summary reports: total capacity, total demand, overallocated
  day-instances, and distinct overallocated users.

HOUR DERIVATION (per task, in order):
  1. remainingHours, when present and > 0
  2. estimateHours * (100 - percentComplete) / 100, when estimate > 0
  3. working-day count * the default daily capacity (8h)
  The total is divided evenly across the task's working days.

CAPACITY:
  8h on weekdays, 0h on weekends, unless the scenario's change_capacity
  override map carries an explicit "userId:date" entry - an override wins
  even on weekends.

SEE ALSO:
  - calendar.go: date enumeration and the UTC weekend rule
  - compute.go: feeds before/after working sets through this model
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultDailyCapacityHours is the process-wide default workday, injected
// into the engine at construction. Not a mutable global.
var DefaultDailyCapacityHours = decimal.NewFromInt(8)

// CapacityMetrics is the capacity/demand slice of a state snapshot.
// Hour totals are rounded to 2 decimal places.
type CapacityMetrics struct {
	TotalCapacityHours decimal.Decimal
	TotalDemandHours   decimal.Decimal
	OverallocatedDays  int
	OverallocatedUsers int
}

// CapacityModel measures demand against capacity for one working set.
// It is stateless; construct once and reuse across states.
type CapacityModel struct {
	Calendar             Calendar
	DefaultDailyCapacity decimal.Decimal
}

type demandCell struct {
	user   UserID
	date   string
	demand decimal.Decimal
}

// Measure computes capacity metrics for the given tasks. The overrides map
// is keyed "userId:date" and replaces the default capacity for that cell;
// pass nil for the before state.
func (m *CapacityModel) Measure(tasks []*WorkTask, overrides map[string]decimal.Decimal) CapacityMetrics {
	cells := make(map[string]*demandCell)

	for _, t := range tasks {
		if t.AssigneeUserID == nil || t.IsMilestone {
			continue
		}
		if t.PlannedStartAt == nil || t.PlannedEndAt == nil {
			continue
		}

		days := m.workingDays(FormatDate(*t.PlannedStartAt), FormatDate(*t.PlannedEndAt))
		if len(days) == 0 {
			// Task spans only weekend days; its demand is not counted.
			continue
		}

		total := m.taskHours(t, len(days))
		perDay := total.Div(decimal.NewFromInt(int64(len(days))))

		for _, day := range days {
			key := string(*t.AssigneeUserID) + ":" + day
			cell, ok := cells[key]
			if !ok {
				cell = &demandCell{user: *t.AssigneeUserID, date: day}
				cells[key] = cell
			}
			cell.demand = cell.demand.Add(perDay)
		}
	}

	// Deterministic accumulation order.
	keys := make([]string, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var totalCapacity, totalDemand decimal.Decimal
	overallocatedDays := 0
	overallocatedUsers := make(map[UserID]bool)

	for _, k := range keys {
		cell := cells[k]

		capacity := m.DefaultDailyCapacity
		if IsWeekendDate(cell.date) {
			capacity = decimal.Zero
		}
		if override, ok := overrides[k]; ok {
			// Explicit change_capacity action wins, weekends included.
			capacity = override
		}

		totalCapacity = totalCapacity.Add(capacity)
		totalDemand = totalDemand.Add(cell.demand)

		if capacity.IsPositive() && cell.demand.GreaterThan(capacity) {
			overallocatedDays++
			overallocatedUsers[cell.user] = true
		}
	}

	return CapacityMetrics{
		TotalCapacityHours: totalCapacity.Round(2),
		TotalDemandHours:   totalDemand.Round(2),
		OverallocatedDays:  overallocatedDays,
		OverallocatedUsers: len(overallocatedUsers),
	}
}

// taskHours derives a task's total labor hours.
func (m *CapacityModel) taskHours(t *WorkTask, workingDays int) decimal.Decimal {
	if t.RemainingHours != nil && t.RemainingHours.IsPositive() {
		return *t.RemainingHours
	}
	if t.EstimateHours != nil && t.EstimateHours.IsPositive() {
		hundred := decimal.NewFromInt(100)
		remainingPct := hundred.Sub(t.PercentComplete)
		return t.EstimateHours.Mul(remainingPct).Div(hundred)
	}
	return m.DefaultDailyCapacity.Mul(decimal.NewFromInt(int64(workingDays)))
}

// workingDays enumerates [from, to] inclusive and drops weekends.
func (m *CapacityModel) workingDays(fromISO, toISO string) []string {
	var days []string
	for _, d := range m.Calendar.EnumerateDates(fromISO, toISO) {
		if !IsWeekendDate(d) {
			days = append(days, d)
		}
	}
	return days
}

// OverrideKey builds the "userId:date" key used by the capacity override map.
func OverrideKey(user UserID, isoDate string) string {
	return string(user) + ":" + isoDate
}
