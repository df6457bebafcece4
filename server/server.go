// Package server exposes funds, their transaction ledgers, computed metrics,
// and formula evaluation over a JSON REST API.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundview/formula"
	"github.com/fundview/formula/fund"
)

// Server carries the handlers' shared state.
type Server struct {
	store *fund.Store
	calc  *fund.Calculator
	log   *slog.Logger
}

func New(store *fund.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: store, calc: fund.NewCalculator(store), log: log}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Get("/health", s.healthHandler)
	r.Route("/api/funds", func(r chi.Router) {
		r.Get("/", s.listFundsHandler)
		r.Post("/", s.createFundHandler)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getFundHandler)
			r.Put("/", s.updateFundHandler)
			r.Delete("/", s.deleteFundHandler)
			r.Get("/transactions", s.transactionsHandler)
			r.Post("/capital_calls", s.addCapitalCallHandler)
			r.Post("/distributions", s.addDistributionHandler)
			r.Post("/adjustments", s.addAdjustmentHandler)
			r.Get("/metrics", s.metricsHandler)
			r.Get("/metrics/{metric}/breakdown", s.breakdownHandler)
			r.Post("/formula", s.formulaHandler)
			r.Get("/export.csv", s.exportHandler)
		})
	})
	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// writeJSON encodes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response", "err", err)
	}
}

// reportError writes the JSON error envelope.
func (s *Server) reportError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]any{"detail": detail, "status_code": status})
}

// fundID extracts the {id} route parameter.
func fundID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// fundResponse is a fund with its computed metrics attached.
type fundResponse struct {
	fund.Fund
	Metrics map[string]any `json:"metrics"`
}

// jsonMetrics converts a metric map for JSON, turning NaN values into null.
func jsonMetrics(m map[string]float64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if math.IsNaN(v) {
			out[k] = nil
		} else {
			out[k] = v
		}
	}
	return out
}

func (s *Server) listFundsHandler(w http.ResponseWriter, r *http.Request) {
	funds, err := s.store.Funds()
	if err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]fundResponse, 0, len(funds))
	for _, f := range funds {
		m, err := s.calc.Values(f.ID)
		if err != nil {
			s.reportError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp = append(resp, fundResponse{Fund: f, Metrics: jsonMetrics(m)})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createFundHandler(w http.ResponseWriter, r *http.Request) {
	var f fund.Fund
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund: "+err.Error())
		return
	}
	f.ID = 0
	if err := s.store.CreateFund(&f); err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, f)
}

func (s *Server) getFundHandler(w http.ResponseWriter, r *http.Request) {
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
	s.writeJSON(w, http.StatusOK, fundResponse{Fund: *f, Metrics: jsonMetrics(m)})
}

func (s *Server) updateFundHandler(w http.ResponseWriter, r *http.Request) {
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
	if err := json.NewDecoder(r.Body).Decode(f); err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund: "+err.Error())
		return
	}
	f.ID = id
	if err := s.store.UpdateFund(f); err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, f)
}

func (s *Server) deleteFundHandler(w http.ResponseWriter, r *http.Request) {
	id, err := fundID(r)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund id")
		return
	}
	if err := s.store.DeleteFund(id); err != nil {
		s.fundError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "fund deleted"})
}

// fundError maps store errors to a response.
func (s *Server) fundError(w http.ResponseWriter, err error) {
	if errors.Is(err, fund.ErrNotFound) {
		s.reportError(w, http.StatusNotFound, "fund not found")
		return
	}
	s.reportError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) transactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := fundID(r)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund id")
		return
	}
	if _, err := s.store.Fund(id); err != nil {
		s.fundError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	p, err := s.store.Transactions(id, r.URL.Query().Get("type"), page, limit)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) addCapitalCallHandler(w http.ResponseWriter, r *http.Request) {
	addTransaction(s, w, r, func(id uint, c *fund.CapitalCall) error {
		c.FundID = id
		return s.store.AddCapitalCall(c)
	})
}

func (s *Server) addDistributionHandler(w http.ResponseWriter, r *http.Request) {
	addTransaction(s, w, r, func(id uint, d *fund.Distribution) error {
		d.FundID = id
		return s.store.AddDistribution(d)
	})
}

func (s *Server) addAdjustmentHandler(w http.ResponseWriter, r *http.Request) {
	addTransaction(s, w, r, func(id uint, a *fund.Adjustment) error {
		a.FundID = id
		return s.store.AddAdjustment(a)
	})
}

// addTransaction is the shared decode-insert-respond path of the three ledger
// POST handlers.
func addTransaction[T any](s *Server, w http.ResponseWriter, r *http.Request, insert func(uint, *T) error) {
	id, err := fundID(r)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund id")
		return
	}
	if _, err := s.store.Fund(id); err != nil {
		s.fundError(w, err)
		return
	}
	var t T
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid transaction: "+err.Error())
		return
	}
	if err := insert(id, &t); err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, t)
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := fundID(r)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund id")
		return
	}
	if _, err := s.store.Fund(id); err != nil {
		s.fundError(w, err)
		return
	}
	m, err := s.calc.Values(id)
	if err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, jsonMetrics(m))
}

func (s *Server) breakdownHandler(w http.ResponseWriter, r *http.Request) {
	id, err := fundID(r)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund id")
		return
	}
	if _, err := s.store.Fund(id); err != nil {
		s.fundError(w, err)
		return
	}
	b, err := s.calc.Breakdown(id, chi.URLParam(r, "metric"))
	if err != nil {
		s.reportError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

// formulaRequest is the body of POST /api/funds/{id}/formula.
type formulaRequest struct {
	Expression string `json:"expression"`
}

// formulaResponse reports a formula evaluation. Result is null and Undefined
// true when the value is NaN, e.g. an undefined ratio.
type formulaResponse struct {
	Expression string   `json:"expression"`
	Result     *float64 `json:"result"`
	Undefined  bool     `json:"undefined"`
}

func (s *Server) formulaHandler(w http.ResponseWriter, r *http.Request) {
	id, err := fundID(r)
	if err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid fund id")
		return
	}
	if _, err := s.store.Fund(id); err != nil {
		s.fundError(w, err)
		return
	}
	var req formulaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reportError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	vars, err := s.calc.Values(id)
	if err != nil {
		s.reportError(w, http.StatusInternalServerError, err.Error())
		return
	}
	v, err := formula.Eval(req.Expression, vars)
	if err != nil {
		// Any compile or evaluation failure means the formula is currently
		// invalid; the message is the user-facing explanation.
		s.reportError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	resp := formulaResponse{Expression: req.Expression}
	if math.IsNaN(v) {
		resp.Undefined = true
	} else {
		resp.Result = &v
	}
	s.writeJSON(w, http.StatusOK, resp)
}
