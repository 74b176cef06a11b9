// Economy/society recalculation — fixed formulas, fixed order, once per tick
// after all action handlers.
package engine

import (
	"math"

	"github.com/talgya/statecraft/internal/state"
)

// recalculate runs the ten-step tick-end recomputation. Step order matters:
// prices feed inflation, inflation feeds growth, growth feeds the budget and
// unemployment, and the social feedback loops close last.
func recalculate(w *state.WorldState) {
	eco := &w.Economy
	soc := &w.Society

	// 1. Price index converges toward demand/supply.
	if eco.Market.Supply > 0 {
		kernelSet(w, "economy.market.price_index",
			0.8*eco.Market.PriceIndex+0.2*(eco.Market.Demand/eco.Market.Supply))
	}

	// 2. Shortage flag.
	eco.Market.Shortage = eco.Market.Demand > 1.2*eco.Market.Supply

	// 3. Inflation from price pressure and deficit monetization.
	kernelSet(w, "economy.inflation",
		0.7*eco.Inflation+0.3*(10*(eco.Market.PriceIndex-1)+math.Max(0, eco.Budget.Deficit)*0.01))

	// 4. GDP growth.
	prevGDP := eco.GDP
	growth := 1 + 0.02 - 0.001*eco.Inflation - 0.001*eco.Unemployment
	kernelSet(w, "economy.gdp", eco.GDP*growth)
	eco.GDPDelta = eco.GDP - prevGDP

	// 5. Budget.
	ticksPerYear := math.Round(365 / (float64(w.Meta.TickIntervalHours) / 24))
	if ticksPerYear < 1 {
		ticksPerYear = 1
	}
	eco.Budget.Revenue = eco.GDP * eco.TaxRate * 0.01 * eco.TaxCompliance / ticksPerYear
	eco.Budget.Deficit = eco.Budget.Spending - eco.Budget.Revenue
	kernelSet(w, "economy.budget.reserves", eco.Budget.Reserves-eco.Budget.Deficit)

	// 6. Unemployment tracks growth direction.
	if eco.GDPDelta > 0 {
		kernelSet(w, "economy.unemployment", eco.Unemployment-0.3)
	} else {
		kernelSet(w, "economy.unemployment", eco.Unemployment+0.5)
	}

	// 7. Spending effects by allocation category.
	alloc := w.Government.BudgetAllocation
	spend := eco.Budget.Spending
	kernelSet(w, "society.satisfaction", soc.Satisfaction+alloc["welfare"]*spend*0.001)
	kernelSet(w, "society.radicalization", soc.Radicalization-alloc["enforcement"]*spend*0.0005)
	kernelSet(w, "society.public_trust", soc.PublicTrust-alloc["enforcement"]*spend*0.0002)
	kernelSet(w, "society.stability", soc.Stability+alloc["education"]*spend*0.0001)
	kernelSet(w, "economy.gdp", eco.GDP+alloc["infrastructure"]*spend*0.005)

	// 8. Social feedback.
	if soc.Satisfaction < 30 {
		kernelSet(w, "society.stability", soc.Stability-(30-soc.Satisfaction)*0.05)
	}
	if soc.Radicalization > 50 {
		kernelSet(w, "society.stability", soc.Stability-(soc.Radicalization-50)*0.03)
	}

	// 9. Protest pressure accumulates, then decays.
	pp := soc.ProtestPressure
	if soc.Satisfaction < 40 {
		pp += 0.05
	}
	if eco.Market.Shortage {
		pp += 0.10
	}
	if eco.Unemployment > 15 {
		pp += 0.03
	}
	kernelSet(w, "society.protest_pressure", pp*0.9)

	// 10. Market decay.
	kernelSet(w, "economy.market.supply", eco.Market.Supply*0.95)
	kernelSet(w, "economy.market.demand", eco.Market.Demand*0.90)
}

// kernelSet writes through the modifier kernel so hard constraints clamp the
// result.
func kernelSet(w *state.WorldState, path string, v float64) {
	state.Apply(w, state.Modifier{Variable: path, Operation: state.OpSet, Value: v})
}
