// Dot-path addressing over the state tree. Every numeric leaf a modifier may
// touch is registered here as a typed getter/setter pair; unknown paths are an
// explicit rejection, never a panic.
package state

// leaf is one addressable numeric value in the tree.
type leaf struct {
	get func(*WorldState) float64
	set func(*WorldState, float64)
}

// pathRegistry maps dot-paths to their accessors. Approval sub-scores and all
// constrained economy/society scalars are addressable; structural fields
// (players, laws, events) are not reachable by modifiers.
var pathRegistry = map[string]leaf{
	"economy.gdp": {
		func(w *WorldState) float64 { return w.Economy.GDP },
		func(w *WorldState, v float64) { w.Economy.GDP = v },
	},
	"economy.gdp_delta": {
		func(w *WorldState) float64 { return w.Economy.GDPDelta },
		func(w *WorldState, v float64) { w.Economy.GDPDelta = v },
	},
	"economy.inflation": {
		func(w *WorldState) float64 { return w.Economy.Inflation },
		func(w *WorldState, v float64) { w.Economy.Inflation = v },
	},
	"economy.unemployment": {
		func(w *WorldState) float64 { return w.Economy.Unemployment },
		func(w *WorldState, v float64) { w.Economy.Unemployment = v },
	},
	"economy.tax_rate": {
		func(w *WorldState) float64 { return w.Economy.TaxRate },
		func(w *WorldState, v float64) { w.Economy.TaxRate = v },
	},
	"economy.tax_compliance": {
		func(w *WorldState) float64 { return w.Economy.TaxCompliance },
		func(w *WorldState, v float64) { w.Economy.TaxCompliance = v },
	},
	"economy.wage_index": {
		func(w *WorldState) float64 { return w.Economy.WageIndex },
		func(w *WorldState, v float64) { w.Economy.WageIndex = v },
	},
	"economy.budget.revenue": {
		func(w *WorldState) float64 { return w.Economy.Budget.Revenue },
		func(w *WorldState, v float64) { w.Economy.Budget.Revenue = v },
	},
	"economy.budget.spending": {
		func(w *WorldState) float64 { return w.Economy.Budget.Spending },
		func(w *WorldState, v float64) { w.Economy.Budget.Spending = v },
	},
	"economy.budget.reserves": {
		func(w *WorldState) float64 { return w.Economy.Budget.Reserves },
		func(w *WorldState, v float64) { w.Economy.Budget.Reserves = v },
	},
	"economy.budget.deficit": {
		func(w *WorldState) float64 { return w.Economy.Budget.Deficit },
		func(w *WorldState, v float64) { w.Economy.Budget.Deficit = v },
	},
	"economy.market.supply": {
		func(w *WorldState) float64 { return w.Economy.Market.Supply },
		func(w *WorldState, v float64) { w.Economy.Market.Supply = v },
	},
	"economy.market.demand": {
		func(w *WorldState) float64 { return w.Economy.Market.Demand },
		func(w *WorldState, v float64) { w.Economy.Market.Demand = v },
	},
	"economy.market.price_index": {
		func(w *WorldState) float64 { return w.Economy.Market.PriceIndex },
		func(w *WorldState, v float64) { w.Economy.Market.PriceIndex = v },
	},
	"society.stability": {
		func(w *WorldState) float64 { return w.Society.Stability },
		func(w *WorldState, v float64) { w.Society.Stability = v },
	},
	"society.public_trust": {
		func(w *WorldState) float64 { return w.Society.PublicTrust },
		func(w *WorldState, v float64) { w.Society.PublicTrust = v },
	},
	"society.satisfaction": {
		func(w *WorldState) float64 { return w.Society.Satisfaction },
		func(w *WorldState, v float64) { w.Society.Satisfaction = v },
	},
	"society.radicalization": {
		func(w *WorldState) float64 { return w.Society.Radicalization },
		func(w *WorldState, v float64) { w.Society.Radicalization = v },
	},
	"society.protest_pressure": {
		func(w *WorldState) float64 { return w.Society.ProtestPressure },
		func(w *WorldState, v float64) { w.Society.ProtestPressure = v },
	},
	"government.approval.overall": {
		func(w *WorldState) float64 { return w.Government.Approval.Overall },
		func(w *WorldState, v float64) { w.Government.Approval.Overall = v },
	},
	"government.approval.economic": {
		func(w *WorldState) float64 { return w.Government.Approval.Economic },
		func(w *WorldState, v float64) { w.Government.Approval.Economic = v },
	},
	"government.approval.social": {
		func(w *WorldState) float64 { return w.Government.Approval.Social },
		func(w *WorldState, v float64) { w.Government.Approval.Social = v },
	},
	"government.approval.foreign": {
		func(w *WorldState) float64 { return w.Government.Approval.Foreign },
		func(w *WorldState, v float64) { w.Government.Approval.Foreign = v },
	},
}

// Bound is an absolute numeric constraint on a path.
type Bound struct {
	Min float64
	Max float64
}

// HardConstraints are enforced on every write through the kernel: a value
// outside its bound is silently truncated, never an error.
var HardConstraints = map[string]Bound{
	"economy.gdp":                  {0, 100000},
	"economy.inflation":            {-20, 500},
	"economy.unemployment":         {0, 100},
	"economy.tax_rate":             {0, 100},
	"economy.tax_compliance":       {0, 1},
	"economy.market.supply":        {0, 100000},
	"economy.market.demand":        {0, 100000},
	"economy.market.price_index":   {0.01, 1000},
	"economy.wage_index":           {0.01, 100},
	"economy.budget.reserves":      {-10000, 100000},
	"society.stability":            {0, 100},
	"society.public_trust":         {0, 100},
	"society.satisfaction":         {0, 100},
	"society.radicalization":       {0, 100},
	"society.protest_pressure":     {0, 1},
	"government.approval.overall":  {0, 100},
	"government.approval.economic": {0, 100},
	"government.approval.social":   {0, 100},
	"government.approval.foreign":  {0, 100},
}

// GetPath reads the value at a dot-path. The second return is false when the
// path is not addressable.
func GetPath(w *WorldState, path string) (float64, bool) {
	l, ok := pathRegistry[path]
	if !ok {
		return 0, false
	}
	return l.get(w), true
}

// setPath writes a value, applying the hard constraint for the path if one
// exists. Callers must have verified the path via GetPath first.
func setPath(w *WorldState, path string, v float64) {
	if b, ok := HardConstraints[path]; ok {
		v = ClampValue(v, b.Min, b.Max)
	}
	pathRegistry[path].set(w, v)
}

// ClampValue restricts v to [min, max].
func ClampValue(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
