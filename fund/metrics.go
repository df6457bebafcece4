package fund

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Calculator computes performance metrics for a fund from its transaction
// ledgers. The metric names match the formula package's published vocabulary,
// so Values can feed formula evaluation directly.
type Calculator struct {
	store *Store
}

func NewCalculator(s *Store) *Calculator {
	return &Calculator{store: s}
}

// PIC is paid-in capital: total capital calls less total adjustments.
func (c *Calculator) PIC(fundID uint) (float64, error) {
	calls, err := c.store.sum(&CapitalCall{}, fundID)
	if err != nil {
		return 0, err
	}
	adj, err := c.store.sum(&Adjustment{}, fundID)
	if err != nil {
		return 0, err
	}
	return calls - adj, nil
}

// TotalDistributions is the sum of all distributions to the LPs.
func (c *Calculator) TotalDistributions(fundID uint) (float64, error) {
	return c.store.sum(&Distribution{}, fundID)
}

// DPI is distributions to paid-in: realized return per unit of called
// capital. Zero when nothing has been called.
func (c *Calculator) DPI(fundID uint) (float64, error) {
	pic, err := c.PIC(fundID)
	if err != nil {
		return 0, err
	}
	if pic == 0 {
		return 0, nil
	}
	dist, err := c.TotalDistributions(fundID)
	if err != nil {
		return 0, err
	}
	return dist / pic, nil
}

// RVPI is residual value to paid-in: the fund's NAV per unit of called
// capital. Zero when nothing has been called.
func (c *Calculator) RVPI(fundID uint) (float64, error) {
	pic, err := c.PIC(fundID)
	if err != nil {
		return 0, err
	}
	if pic == 0 {
		return 0, nil
	}
	f, err := c.store.Fund(fundID)
	if err != nil {
		return 0, err
	}
	return f.NAV / pic, nil
}

// TVPI is total value to paid-in, realized plus residual: DPI + RVPI.
func (c *Calculator) TVPI(fundID uint) (float64, error) {
	dpi, err := c.DPI(fundID)
	if err != nil {
		return 0, err
	}
	rvpi, err := c.RVPI(fundID)
	if err != nil {
		return 0, err
	}
	return dpi + rvpi, nil
}

// CashFlow is one signed entry of a fund's flow series: calls are outflows
// (negative), distributions and the terminal NAV are inflows (positive).
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
	Source string    `json:"source"`
}

// CashFlows assembles the fund's dated flow series in date order. When the
// fund carries a NAV it is appended as a terminal inflow dated today.
func (c *Calculator) CashFlows(fundID uint) ([]CashFlow, error) {
	calls, err := c.store.CapitalCalls(fundID)
	if err != nil {
		return nil, err
	}
	dists, err := c.store.Distributions(fundID)
	if err != nil {
		return nil, err
	}
	f, err := c.store.Fund(fundID)
	if err != nil {
		return nil, err
	}
	flows := make([]CashFlow, 0, len(calls)+len(dists)+1)
	for _, cc := range calls {
		flows = append(flows, CashFlow{Date: cc.Date, Amount: -cc.Amount, Source: "capital_call"})
	}
	for _, d := range dists {
		flows = append(flows, CashFlow{Date: d.Date, Amount: d.Amount, Source: "distribution"})
	}
	if f.NAV != 0 {
		flows = append(flows, CashFlow{Date: time.Now(), Amount: f.NAV, Source: "nav"})
	}
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
	return flows, nil
}

// IRR is the fund's annualized internal rate of return over its dated cash
// flows. ok is false when the series has no rate: fewer than two flows, or
// flows all of one sign.
func (c *Calculator) IRR(fundID uint) (irr float64, ok bool, err error) {
	flows, err := c.CashFlows(fundID)
	if err != nil {
		return 0, false, err
	}
	r, ok := xirr(flows)
	return r, ok, nil
}

// xirr solves NPV(r) = 0 for dated flows by Newton iteration, falling back
// to bisection when Newton strays or stalls.
func xirr(flows []CashFlow) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}
	var neg, pos bool
	for _, f := range flows {
		if f.Amount < 0 {
			neg = true
		}
		if f.Amount > 0 {
			pos = true
		}
	}
	if !neg || !pos {
		return 0, false
	}
	t0 := flows[0].Date
	// years from t0 for each flow
	yrs := make([]float64, len(flows))
	for i, f := range flows {
		yrs[i] = f.Date.Sub(t0).Hours() / 24 / 365.25
	}
	npv := func(r float64) (v, dv float64) {
		for i, f := range flows {
			g := math.Pow(1+r, yrs[i])
			v += f.Amount / g
			dv -= yrs[i] * f.Amount / (g * (1 + r))
		}
		return v, dv
	}
	const tol = 1e-9
	r := 0.1
	for i := 0; i < 50; i++ {
		v, dv := npv(r)
		if math.Abs(v) < tol {
			return r, true
		}
		if dv == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			break
		}
		next := r - v/dv
		if next <= -1 {
			// Rates at or below -100% have no meaning; hand off to bisection.
			break
		}
		if math.Abs(next-r) < tol {
			return next, true
		}
		r = next
	}
	// Bisection over a wide but finite bracket.
	lo, hi := -0.9999, 10.0
	flo, _ := npv(lo)
	fhi, _ := npv(hi)
	if flo*fhi > 0 {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fm, _ := npv(mid)
		if math.Abs(fm) < tol || hi-lo < tol {
			return mid, true
		}
		if flo*fm < 0 {
			hi = mid
		} else {
			lo, flo = mid, fm
		}
	}
	return (lo + hi) / 2, true
}

// Values computes the full metric vocabulary for a fund, keyed the way the
// formula language expects: dpi, irr, nav, pic, rvpi, total_distributions,
// tvpi. An IRR that cannot be computed is reported as NaN so that formulas
// referencing it still evaluate, with an undefined result.
func (c *Calculator) Values(fundID uint) (map[string]float64, error) {
	f, err := c.store.Fund(fundID)
	if err != nil {
		return nil, err
	}
	pic, err := c.PIC(fundID)
	if err != nil {
		return nil, err
	}
	dist, err := c.TotalDistributions(fundID)
	if err != nil {
		return nil, err
	}
	dpi, rvpi := 0.0, 0.0
	if pic != 0 {
		dpi = dist / pic
		rvpi = f.NAV / pic
	}
	irr, ok, err := c.IRR(fundID)
	if err != nil {
		return nil, err
	}
	if !ok {
		irr = math.NaN()
	}
	return map[string]float64{
		"dpi":                 dpi,
		"irr":                 irr,
		"nav":                 f.NAV,
		"pic":                 pic,
		"rvpi":                rvpi,
		"total_distributions": dist,
		"tvpi":                dpi + rvpi,
	}, nil
}

// Breakdown explains how one metric was computed: the result, the
// intermediate totals behind it, and the ledger entries that fed it.
type Breakdown struct {
	Metric     string             `json:"metric"`
	Result     float64            `json:"result"`
	Computable bool               `json:"computable"`
	Components map[string]float64 `json:"components"`
	// Transactions maps ledger name to its entries in date order.
	Transactions map[string]any `json:"transactions"`
	// CashFlows is the signed flow series, present for irr only.
	CashFlows []CashFlow `json:"cash_flows,omitempty"`
}

// Breakdown builds the calculation breakdown for the named metric. The metric
// name is one of the formula vocabulary: pic, dpi, rvpi, tvpi, irr,
// total_distributions, or nav.
func (c *Calculator) Breakdown(fundID uint, metric string) (*Breakdown, error) {
	f, err := c.store.Fund(fundID)
	if err != nil {
		return nil, err
	}
	calls, err := c.store.CapitalCalls(fundID)
	if err != nil {
		return nil, err
	}
	dists, err := c.store.Distributions(fundID)
	if err != nil {
		return nil, err
	}
	adjs, err := c.store.Adjustments(fundID)
	if err != nil {
		return nil, err
	}
	var totalCalls, totalAdjs, totalDists float64
	for _, t := range calls {
		totalCalls += t.Amount
	}
	for _, t := range adjs {
		totalAdjs += t.Amount
	}
	for _, t := range dists {
		totalDists += t.Amount
	}
	pic := totalCalls - totalAdjs
	b := &Breakdown{
		Metric:     metric,
		Computable: true,
		Components: map[string]float64{
			"total_calls":       totalCalls,
			"total_adjustments": totalAdjs,
			"pic":               pic,
		},
		Transactions: map[string]any{
			"capital_calls": calls,
			"distributions": dists,
			"adjustments":   adjs,
		},
	}
	switch metric {
	case "pic":
		b.Result = pic
	case "total_distributions":
		b.Result = totalDists
		b.Components["total_distributions"] = totalDists
	case "nav":
		b.Result = f.NAV
		b.Components["nav"] = f.NAV
	case "dpi":
		b.Components["total_distributions"] = totalDists
		if pic != 0 {
			b.Result = totalDists / pic
		}
	case "rvpi":
		b.Components["nav"] = f.NAV
		if pic != 0 {
			b.Result = f.NAV / pic
		}
	case "tvpi":
		b.Components["total_distributions"] = totalDists
		b.Components["nav"] = f.NAV
		if pic != 0 {
			b.Result = (totalDists + f.NAV) / pic
		}
	case "irr":
		flows, err := c.CashFlows(fundID)
		if err != nil {
			return nil, err
		}
		var in, out float64
		for _, fl := range flows {
			if fl.Amount > 0 {
				in += fl.Amount
			} else {
				out += fl.Amount
			}
		}
		b.CashFlows = flows
		b.Components["total_inflows"] = in
		b.Components["total_outflows"] = out
		r, ok := xirr(flows)
		b.Result, b.Computable = r, ok
	default:
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	return b, nil
}
