package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// EARNED VALUE AGGREGATION - Portfolio-level CPI/SPI
// =============================================================================

// EarnedValueMetrics holds aggregate indices. Nil means the denominator
// was zero (no actual cost / no planned value in scope).
type EarnedValueMetrics struct {
	AggregateCPI *decimal.Decimal
	AggregateSPI *decimal.Decimal
}

// AggregateEarnedValue sums EV/AC/PV across every in-scope project whose
// latest snapshot has bac > 0, then forms CPI = EV/AC and SPI = EV/PV.
//
// Despite the BAC gate this is a plain sum, not a BAC-weighted mean; the
// totals are never divided by total BAC. Rounded to 3 decimal places.
func AggregateEarnedValue(projects []*Project, snapshots map[ProjectID]*EarnedValueSnapshot) EarnedValueMetrics {
	var ev, ac, pv decimal.Decimal

	for _, p := range projects {
		snap, ok := snapshots[p.ID]
		if !ok || snap == nil {
			continue
		}
		if !snap.BAC.IsPositive() {
			continue
		}
		ev = ev.Add(snap.EV)
		ac = ac.Add(snap.AC)
		pv = pv.Add(snap.PV)
	}

	var metrics EarnedValueMetrics
	if ac.IsPositive() {
		cpi := ev.Div(ac).Round(3)
		metrics.AggregateCPI = &cpi
	}
	if pv.IsPositive() {
		spi := ev.Div(pv).Round(3)
		metrics.AggregateSPI = &spi
	}
	return metrics
}
