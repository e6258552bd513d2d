package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func userPtr(id string) *UserID {
	u := UserID(id)
	return &u
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newCapacityModel() *CapacityModel {
	return &CapacityModel{
		Calendar:             NewWorkweekCalendar(),
		DefaultDailyCapacity: DefaultDailyCapacityHours,
	}
}

func weekTask(id, project, user string) *WorkTask {
	// 2026-02-09 is a Monday; the span covers exactly five weekdays.
	return &WorkTask{
		ID:             TaskID(id),
		ProjectID:      ProjectID(project),
		AssigneeUserID: userPtr(user),
		PlannedStartAt: datePtr(2026, time.February, 9),
		PlannedEndAt:   datePtr(2026, time.February, 13),
	}
}

// =============================================================================
// DEMAND DERIVATION
// =============================================================================

func TestCapacity_EstimateAcrossFiveWeekdays(t *testing.T) {
	// GIVEN: one task, estimate 40h, 0% complete, spanning Mon-Fri
	// WHEN: measuring demand with no overrides
	// THEN: demand is 40h (8h/day), capacity is 40h, nothing overallocated

	task := weekTask("t1", "p1", "u1")
	task.EstimateHours = decPtr(40)

	m := newCapacityModel().Measure([]*WorkTask{task}, nil)

	if !m.TotalDemandHours.Equal(dec(40)) {
		t.Errorf("expected demand 40, got %v", m.TotalDemandHours)
	}
	if !m.TotalCapacityHours.Equal(dec(40)) {
		t.Errorf("expected capacity 40, got %v", m.TotalCapacityHours)
	}
	if m.OverallocatedDays != 0 || m.OverallocatedUsers != 0 {
		t.Errorf("expected no overallocation, got %d days / %d users", m.OverallocatedDays, m.OverallocatedUsers)
	}
}

func TestCapacity_RemainingHoursWinOverEstimate(t *testing.T) {
	// GIVEN: remainingHours 10 and estimateHours 40 on the same task
	// THEN: remaining hours drive demand

	task := weekTask("t1", "p1", "u1")
	task.EstimateHours = decPtr(40)
	task.RemainingHours = decPtr(10)

	m := newCapacityModel().Measure([]*WorkTask{task}, nil)

	if !m.TotalDemandHours.Equal(dec(10)) {
		t.Errorf("expected demand 10, got %v", m.TotalDemandHours)
	}
}

func TestCapacity_EstimateScaledByPercentComplete(t *testing.T) {
	// GIVEN: estimate 40h at 50% complete
	// THEN: 20h of demand remain

	task := weekTask("t1", "p1", "u1")
	task.EstimateHours = decPtr(40)
	task.PercentComplete = dec(50)

	m := newCapacityModel().Measure([]*WorkTask{task}, nil)

	if !m.TotalDemandHours.Equal(dec(20)) {
		t.Errorf("expected demand 20, got %v", m.TotalDemandHours)
	}
}

func TestCapacity_NoEstimateFallsBackToDefault(t *testing.T) {
	// GIVEN: no remaining, no estimate
	// THEN: demand is workingDays * 8h

	task := weekTask("t1", "p1", "u1")

	m := newCapacityModel().Measure([]*WorkTask{task}, nil)

	if !m.TotalDemandHours.Equal(dec(40)) {
		t.Errorf("expected fallback demand 40, got %v", m.TotalDemandHours)
	}
}

func TestCapacity_WeekendOnlySpanSkipped(t *testing.T) {
	// GIVEN: a task spanning Saturday-Sunday only
	// THEN: its demand is not counted at all

	task := weekTask("t1", "p1", "u1")
	task.PlannedStartAt = datePtr(2026, time.February, 14) // Saturday
	task.PlannedEndAt = datePtr(2026, time.February, 15)   // Sunday
	task.EstimateHours = decPtr(16)

	m := newCapacityModel().Measure([]*WorkTask{task}, nil)

	if !m.TotalDemandHours.IsZero() || !m.TotalCapacityHours.IsZero() {
		t.Errorf("expected zero totals, got demand %v capacity %v", m.TotalDemandHours, m.TotalCapacityHours)
	}
}

func TestCapacity_MilestonesAndUnassignedIgnored(t *testing.T) {
	milestone := weekTask("t1", "p1", "u1")
	milestone.IsMilestone = true

	unassigned := weekTask("t2", "p1", "u1")
	unassigned.AssigneeUserID = nil

	undated := weekTask("t3", "p1", "u1")
	undated.PlannedEndAt = nil

	m := newCapacityModel().Measure([]*WorkTask{milestone, unassigned, undated}, nil)

	if !m.TotalDemandHours.IsZero() {
		t.Errorf("expected zero demand, got %v", m.TotalDemandHours)
	}
}

// =============================================================================
// OVERALLOCATION AND OVERRIDES
// =============================================================================

func TestCapacity_TwoTasksSameDayOverallocate(t *testing.T) {
	// GIVEN: two 40h tasks for the same user over the same five weekdays
	// THEN: 16h/day demand against 8h/day capacity overallocates all 5 days
	//       for 1 distinct user

	a := weekTask("t1", "p1", "u1")
	a.EstimateHours = decPtr(40)
	b := weekTask("t2", "p1", "u1")
	b.EstimateHours = decPtr(40)

	m := newCapacityModel().Measure([]*WorkTask{a, b}, nil)

	if !m.TotalDemandHours.Equal(dec(80)) {
		t.Errorf("expected demand 80, got %v", m.TotalDemandHours)
	}
	if !m.TotalCapacityHours.Equal(dec(40)) {
		t.Errorf("expected capacity 40, got %v", m.TotalCapacityHours)
	}
	if m.OverallocatedDays != 5 {
		t.Errorf("expected 5 overallocated days, got %d", m.OverallocatedDays)
	}
	if m.OverallocatedUsers != 1 {
		t.Errorf("expected 1 overallocated user, got %d", m.OverallocatedUsers)
	}
}

func TestCapacity_OverrideReplacesDefaultForOneDay(t *testing.T) {
	// GIVEN: a 40h week and a 12h override on Tuesday
	// THEN: total capacity is 44h and nothing is overallocated

	task := weekTask("t1", "p1", "u1")
	task.EstimateHours = decPtr(40)

	overrides := map[string]decimal.Decimal{
		OverrideKey("u1", "2026-02-10"): dec(12),
	}
	m := newCapacityModel().Measure([]*WorkTask{task}, overrides)

	if !m.TotalCapacityHours.Equal(dec(44)) {
		t.Errorf("expected capacity 44, got %v", m.TotalCapacityHours)
	}
	if m.OverallocatedDays != 0 {
		t.Errorf("expected no overallocation, got %d days", m.OverallocatedDays)
	}
}

func TestCapacity_OverrideBelowDemandOverallocates(t *testing.T) {
	// GIVEN: 8h/day demand and a 4h override on one day
	// THEN: exactly that day is overallocated

	task := weekTask("t1", "p1", "u1")
	task.EstimateHours = decPtr(40)

	overrides := map[string]decimal.Decimal{
		OverrideKey("u1", "2026-02-11"): dec(4),
	}
	m := newCapacityModel().Measure([]*WorkTask{task}, overrides)

	if m.OverallocatedDays != 1 {
		t.Errorf("expected 1 overallocated day, got %d", m.OverallocatedDays)
	}
	if m.OverallocatedUsers != 1 {
		t.Errorf("expected 1 overallocated user, got %d", m.OverallocatedUsers)
	}
}

func TestCapacity_ZeroCapacityDayNeverOverallocated(t *testing.T) {
	// A 0h override means the day is unavailable, not overallocated:
	// overallocation requires capacity > 0.

	task := weekTask("t1", "p1", "u1")
	task.EstimateHours = decPtr(40)

	overrides := map[string]decimal.Decimal{
		OverrideKey("u1", "2026-02-11"): decimal.Zero,
	}
	m := newCapacityModel().Measure([]*WorkTask{task}, overrides)

	if m.OverallocatedDays != 0 {
		t.Errorf("expected no overallocated days, got %d", m.OverallocatedDays)
	}
	if !m.TotalCapacityHours.Equal(dec(32)) {
		t.Errorf("expected capacity 32, got %v", m.TotalCapacityHours)
	}
}
