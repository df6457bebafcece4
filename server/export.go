package server

import (
	"encoding/csv"
	"math"
	"net/http"
	"strconv"
	"time"
)

// exportHandler streams a fund's metrics and transaction ledgers as CSV.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := fundID(r)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund id")
		return
	}
	f, err := s.store.Fund(id)
	if err != nil {
		s.fundError(w, err)
		return
	}
	m, err := s.calc.Values(id)
	if err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	calls, err := s.store.CapitalCalls(id)
	if err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dists, err := s.store.Distributions(id)
	if err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	adjs, err := s.store.Adjustments(id)
	if err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`.csv"`)
	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{"section", "date", "type", "amount", "description"})
	for _, k := range []string{"pic", "total_distributions", "nav", "dpi", "rvpi", "tvpi", "irr"} {
		v := ""
		// An uncomputable metric exports as an empty cell.
		if !math.IsNaN(m[k]) {
			v = strconv.FormatFloat(m[k], 'g', -1, 64)
		}
		cw.Write([]string{"metric", "", k, v, ""})
	}
	day := func(t time.Time) string { return t.Format("2006-01-02") }
	amt := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, c := range calls {
		cw.Write([]string{"transaction", day(c.Date), "capital_call", amt(c.Amount), c.Description})
	}
	for _, d := range dists {
		cw.Write([]string{"transaction", day(d.Date), "distribution", amt(d.Amount), d.Description})
	}
	for _, a := range adjs {
		cw.Write([]string{"transaction", day(a.Date), "adjustment", amt(a.Amount), a.Description})
	}
}
