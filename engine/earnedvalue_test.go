package engine

import (
	"testing"
	"time"
)

func evSnapshot(project string, bac, ev, ac, pv float64) *EarnedValueSnapshot {
	return &EarnedValueSnapshot{
		ProjectID: ProjectID(project),
		BAC:       dec(bac),
		EV:        dec(ev),
		AC:        dec(ac),
		PV:        dec(pv),
		CreatedAt: time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestEarnedValue_SingleProjectIndices(t *testing.T) {
	// GIVEN: bac=100000, ev=80000, ac=90000, pv=85000
	// THEN: CPI = 80000/90000 = 0.889, SPI = 80000/85000 = 0.941

	projects := []*Project{{ID: "p1"}}
	snaps := map[ProjectID]*EarnedValueSnapshot{
		"p1": evSnapshot("p1", 100000, 80000, 90000, 85000),
	}

	m := AggregateEarnedValue(projects, snaps)

	if m.AggregateCPI == nil || !m.AggregateCPI.Equal(dec(0.889)) {
		t.Errorf("expected CPI 0.889, got %v", m.AggregateCPI)
	}
	if m.AggregateSPI == nil || !m.AggregateSPI.Equal(dec(0.941)) {
		t.Errorf("expected SPI 0.941, got %v", m.AggregateSPI)
	}
}

func TestEarnedValue_SumsAcrossProjects(t *testing.T) {
	// The aggregation is a plain sum of EV/AC/PV across projects, not a
	// BAC-weighted mean.

	projects := []*Project{{ID: "p1"}, {ID: "p2"}}
	snaps := map[ProjectID]*EarnedValueSnapshot{
		"p1": evSnapshot("p1", 1000, 100, 200, 100),
		"p2": evSnapshot("p2", 1000, 300, 200, 300),
	}

	m := AggregateEarnedValue(projects, snaps)

	// CPI = (100+300)/(200+200) = 1.0
	if m.AggregateCPI == nil || !m.AggregateCPI.Equal(dec(1)) {
		t.Errorf("expected CPI 1, got %v", m.AggregateCPI)
	}
}

func TestEarnedValue_ZeroBACExcluded(t *testing.T) {
	projects := []*Project{{ID: "p1"}, {ID: "p2"}}
	snaps := map[ProjectID]*EarnedValueSnapshot{
		"p1": evSnapshot("p1", 0, 999, 999, 999),
		"p2": evSnapshot("p2", 1000, 100, 200, 400),
	}

	m := AggregateEarnedValue(projects, snaps)

	if m.AggregateCPI == nil || !m.AggregateCPI.Equal(dec(0.5)) {
		t.Errorf("expected CPI 0.5 (p1 excluded), got %v", m.AggregateCPI)
	}
	if m.AggregateSPI == nil || !m.AggregateSPI.Equal(dec(0.25)) {
		t.Errorf("expected SPI 0.25 (p1 excluded), got %v", m.AggregateSPI)
	}
}

func TestEarnedValue_NilWhenDenominatorZero(t *testing.T) {
	projects := []*Project{{ID: "p1"}}
	snaps := map[ProjectID]*EarnedValueSnapshot{
		"p1": evSnapshot("p1", 1000, 100, 0, 0),
	}

	m := AggregateEarnedValue(projects, snaps)

	if m.AggregateCPI != nil {
		t.Errorf("expected nil CPI with zero AC, got %v", m.AggregateCPI)
	}
	if m.AggregateSPI != nil {
		t.Errorf("expected nil SPI with zero PV, got %v", m.AggregateSPI)
	}
}

func TestEarnedValue_NoSnapshots(t *testing.T) {
	m := AggregateEarnedValue([]*Project{{ID: "p1"}}, nil)
	if m.AggregateCPI != nil || m.AggregateSPI != nil {
		t.Errorf("expected nil indices with no snapshots, got %v / %v", m.AggregateCPI, m.AggregateSPI)
	}
}
