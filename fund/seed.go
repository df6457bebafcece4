package fund

import "time"

// Seed creates a demo fund with a small transaction history and returns its
// id. Useful for trying out the API and the formula CLI against real data.
func Seed(s *Store) (uint, error) {
	f := &Fund{Name: "Demo Growth Fund III", VintageYear: 2020, Commitment: 500, NAV: 120}
	if err := s.CreateFund(f); err != nil {
		return 0, err
	}
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	calls := []CapitalCall{
		{FundID: f.ID, Date: date(2020, 1, 1), Amount: 100, Description: "Initial call"},
		{FundID: f.ID, Date: date(2020, 2, 1), Amount: 50, Description: "Follow-on"},
	}
	for i := range calls {
		if err := s.AddCapitalCall(&calls[i]); err != nil {
			return 0, err
		}
	}
	if err := s.AddAdjustment(&Adjustment{FundID: f.ID, Date: date(2020, 3, 1), Amount: 10, Description: "Fee rebate"}); err != nil {
		return 0, err
	}
	dists := []Distribution{
		{FundID: f.ID, Date: date(2020, 6, 1), Amount: 90, Description: "Proceeds"},
		{FundID: f.ID, Date: date(2021, 1, 1), Amount: 50, Description: "Proceeds"},
	}
	for i := range dists {
		if err := s.AddDistribution(&dists[i]); err != nil {
			return 0, err
		}
	}
	return f.ID, nil
}
