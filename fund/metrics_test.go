package fund

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedBasicFund(t *testing.T, s *Store) uint {
	t.Helper()
	f := &Fund{Name: "Test Fund"}
	require.NoError(t, s.CreateFund(f))
	return f.ID
}

func TestPIC(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: date(2020, 1, 1), Amount: 100}))
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: date(2020, 2, 1), Amount: 50}))
	require.NoError(t, s.AddAdjustment(&Adjustment{FundID: id, Date: date(2020, 3, 1), Amount: 10}))

	calc := NewCalculator(s)
	pic, err := calc.PIC(id)
	require.NoError(t, err)
	assert.Equal(t, 140.0, pic) // 100 + 50 - 10
}

func TestDPIZeroPIC(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	// No capital calls, so PIC is 0; DPI must not divide.
	require.NoError(t, s.AddDistribution(&Distribution{FundID: id, Date: date(2021, 1, 1), Amount: 25}))

	calc := NewCalculator(s)
	dpi, err := calc.DPI(id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dpi)
}

func TestDPI(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: date(2020, 1, 1), Amount: 200}))
	require.NoError(t, s.AddAdjustment(&Adjustment{FundID: id, Date: date(2020, 1, 15), Amount: 20}))
	require.NoError(t, s.AddDistribution(&Distribution{FundID: id, Date: date(2020, 6, 1), Amount: 90}))

	calc := NewCalculator(s)
	dpi, err := calc.DPI(id)
	require.NoError(t, err)
	// PIC = 180, distributions = 90
	assert.Equal(t, 0.5, dpi)
}

func TestRVPIAndTVPI(t *testing.T) {
	s := newTestStore(t)
	f := &Fund{Name: "Test Fund", NAV: 90}
	require.NoError(t, s.CreateFund(f))
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: f.ID, Date: date(2020, 1, 1), Amount: 180}))
	require.NoError(t, s.AddDistribution(&Distribution{FundID: f.ID, Date: date(2020, 6, 1), Amount: 90}))

	calc := NewCalculator(s)
	rvpi, err := calc.RVPI(f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rvpi)
	tvpi, err := calc.TVPI(f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, tvpi)
}

func TestIRRMinimumFlows(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	// -100 then +110 a year later: the rate must come out positive.
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: date(2020, 1, 1), Amount: 100}))
	require.NoError(t, s.AddDistribution(&Distribution{FundID: id, Date: date(2021, 1, 1), Amount: 110}))

	calc := NewCalculator(s)
	irr, ok, err := calc.IRR(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, irr, 0.0)
	assert.InDelta(t, 0.10, irr, 0.01)
}

func TestIRRNotComputable(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	// A single flow has no rate of return.
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: date(2020, 1, 1), Amount: 100}))

	calc := NewCalculator(s)
	_, ok, err := calc.IRR(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValues(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: date(2020, 1, 1), Amount: 100}))
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: date(2020, 2, 1), Amount: 50}))
	require.NoError(t, s.AddAdjustment(&Adjustment{FundID: id, Date: date(2020, 3, 1), Amount: 10}))
	require.NoError(t, s.AddDistribution(&Distribution{FundID: id, Date: date(2020, 6, 1), Amount: 90}))
	require.NoError(t, s.AddDistribution(&Distribution{FundID: id, Date: date(2021, 1, 1), Amount: 50}))

	calc := NewCalculator(s)
	m, err := calc.Values(id)
	require.NoError(t, err)
	assert.InDelta(t, 140.0, m["pic"], 0.001)
	assert.InDelta(t, 140.0, m["total_distributions"], 0.001)
	assert.Equal(t, 1.0, m["dpi"])
	assert.Equal(t, 0.0, m["rvpi"])
	assert.Equal(t, 1.0, m["tvpi"])
	for _, name := range []string{"dpi", "irr", "nav", "pic", "rvpi", "total_distributions", "tvpi"} {
		_, ok := m[name]
		assert.True(t, ok, "missing metric %s", name)
	}
}

func TestValuesIRRUndefined(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)

	calc := NewCalculator(s)
	m, err := calc.Values(id)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m["irr"]))
}

func TestBreakdownDPI(t *testing.T) {
	s := newTestStore(t)
	id := seedFlows(t, s)
	calc := NewCalculator(s)

	b, err := calc.Breakdown(id, "dpi")
	require.NoError(t, err)
	assert.Equal(t, "dpi", b.Metric)
	dpi, err := calc.DPI(id)
	require.NoError(t, err)
	assert.Equal(t, dpi, b.Result)
	assert.Equal(t, 140.0, b.Components["pic"])
	assert.Len(t, b.Transactions["capital_calls"], 2)
	assert.Len(t, b.Transactions["distributions"], 2)
	assert.Len(t, b.Transactions["adjustments"], 1)
}

func TestBreakdownPIC(t *testing.T) {
	s := newTestStore(t)
	id := seedFlows(t, s)
	calc := NewCalculator(s)

	b, err := calc.Breakdown(id, "pic")
	require.NoError(t, err)
	assert.Equal(t, 140.0, b.Result)
	assert.Equal(t, 150.0, b.Components["total_calls"])
	assert.Equal(t, 10.0, b.Components["total_adjustments"])
}

func TestBreakdownIRR(t *testing.T) {
	s := newTestStore(t)
	id := seedFlows(t, s)
	calc := NewCalculator(s)

	b, err := calc.Breakdown(id, "irr")
	require.NoError(t, err)
	// Call flows are negative, distribution flows positive.
	assert.Less(t, b.Components["total_outflows"], 0.0)
	assert.Greater(t, b.Components["total_inflows"], 0.0)
	assert.GreaterOrEqual(t, len(b.CashFlows), 4)
}

func TestBreakdownUnknownMetric(t *testing.T) {
	s := newTestStore(t)
	id := seedFlows(t, s)
	calc := NewCalculator(s)

	_, err := calc.Breakdown(id, "sharpe")
	assert.Error(t, err)
}

func seedFlows(t *testing.T, s *Store) uint {
	t.Helper()
	f := &Fund{Name: "Breakdown Fund"}
	require.NoError(t, s.CreateFund(f))
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: f.ID, Date: date(2020, 1, 1), Amount: 100, Description: "Initial call"}))
	require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: f.ID, Date: date(2020, 2, 1), Amount: 50, Description: "Follow-on"}))
	require.NoError(t, s.AddAdjustment(&Adjustment{FundID: f.ID, Date: date(2020, 3, 1), Amount: 10, Description: "Fee"}))
	require.NoError(t, s.AddDistribution(&Distribution{FundID: f.ID, Date: date(2020, 6, 1), Amount: 90, Description: "Proceeds"}))
	require.NoError(t, s.AddDistribution(&Distribution{FundID: f.ID, Date: date(2021, 1, 1), Amount: 50, Description: "Proceeds"}))
	return f.ID
}

func TestDeleteFund(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	require.NoError(t, s.DeleteFund(id))
	_, err := s.Fund(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteFund(id), ErrNotFound)
}

func TestTransactionsPaging(t *testing.T) {
	s := newTestStore(t)
	id := seedBasicFund(t, s)
	for i := 0; i < 5; i++ {
		d := date(2020, time.Month(i+1), 1)
		require.NoError(t, s.AddCapitalCall(&CapitalCall{FundID: id, Date: d, Amount: float64(i + 1)}))
	}
	p, err := s.Transactions(id, "capital_calls", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Total)
	assert.Equal(t, 3, p.Pages)
	items := *p.Items.(*[]CapitalCall)
	require.Len(t, items, 2)
	assert.Equal(t, 3.0, items[0].Amount)

	_, err = s.Transactions(id, "valuations", 1, 10)
	assert.Error(t, err)
}
