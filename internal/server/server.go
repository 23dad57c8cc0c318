// Package server exposes the dashboard queries as a read-only JSON API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"agristats/internal/engine"
)

// Server is the HTTP API server for the dashboard.
type Server struct {
	eng     *engine.Engine
	log     zerolog.Logger
	reg     *prometheus.Registry
	metrics *metrics
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithRegistry registers the request metrics on reg instead of a private
// registry. /metrics serves whatever reg gathers.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.reg = reg
	}
}

// New creates a server answering queries with eng.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		eng: eng,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reg == nil {
		s.reg = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.reg)
	return s
}

// Handler returns the http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "/api/production/timeseries/", "production_timeseries", s.handleProductionTimeseries)
	s.route(mux, "/api/production/top/", "top_producers", s.handleTopProducers)
	s.route(mux, "/api/production/vs-price/", "production_vs_price", s.handleProductionVsPrice)
	s.route(mux, "/api/production/fertilizer-vs-production/", "fertilizer_vs_production", s.handleFertilizerVsProduction)
	s.route(mux, "/api/price/timeseries/", "price_timeseries", s.handlePriceTimeseries)
	s.route(mux, "/api/price/by-country/", "price_by_country", s.handlePriceByCountry)
	s.route(mux, "/api/fdi/stacked/", "fdi_stacked", s.handleFDIStacked)
	s.route(mux, "/api/price/boxplot/", "price_boxplot", s.handlePriceBoxplot)
	s.route(mux, "/api/land/share/", "land_share", s.handleLandShare)
	s.route(mux, "/api/employment/timeseries/", "employment_timeseries", s.handleEmploymentTimeseries)
	s.route(mux, "/api/employment/vs-production/", "employment_vs_production", s.handleEmploymentVsProduction)
	s.route(mux, "/api/options/", "filter_options", s.handleFilterOptions)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	return withRequestID(mux)
}

// apiHandler answers one query. A non-nil error is turned into a status code
// by route.
type apiHandler func(r *http.Request, q *params) (any, error)

// route registers h for GET requests on exactly path. Other methods get 405
// from the mux.
func (s *Server) route(mux *http.ServeMux, path, op string, h apiHandler) {
	mux.HandleFunc("GET "+path+"{$}", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		q := &params{values: r.URL.Query()}

		status := http.StatusOK
		result, err := h(r, q)
		if err == nil {
			err = q.err
		}
		if err != nil {
			status = s.writeError(w, r, op, err)
		} else {
			writeJSON(w, status, result)
		}

		elapsed := time.Since(start)
		s.metrics.observe(op, status, elapsed)
		s.log.Info().
			Str("request_id", w.Header().Get(requestIDHeader)).
			Str("op", op).
			Str("query", r.URL.RawQuery).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) int {
	var verr *engine.ValidationError
	var perr *paramError
	switch {
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: perr.Error()})
		return http.StatusBadRequest
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message})
		return http.StatusBadRequest
	}
	s.log.Error().Err(err).
		Str("request_id", w.Header().Get(requestIDHeader)).
		Str("op", op).
		Str("path", r.URL.Path).
		Msg("query failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	return http.StatusInternalServerError
}

func (s *Server) handleProductionTimeseries(r *http.Request, q *params) (any, error) {
	return s.eng.ProductionTimeseries(r.Context(), engine.ProductionTimeseriesParams{
		Product: q.str("product"),
		Country: q.str("country"),
	})
}

func (s *Server) handleTopProducers(r *http.Request, q *params) (any, error) {
	p := engine.TopProducersParams{
		Product: q.str("product"),
		Year:    q.int("year"),
		N:       q.optionalInt("n"),
	}
	if q.err != nil {
		return nil, q.err
	}
	return s.eng.TopProducers(r.Context(), p)
}

func (s *Server) handleProductionVsPrice(r *http.Request, q *params) (any, error) {
	p := engine.ProductionVsPriceParams{
		Product: q.str("product"),
		Country: q.str("country"),
		Year:    q.int("year"),
	}
	if q.err != nil {
		return nil, q.err
	}
	return s.eng.ProductionVsPrice(r.Context(), p)
}

func (s *Server) handleFertilizerVsProduction(r *http.Request, q *params) (any, error) {
	return s.eng.FertilizerVsProduction(r.Context(), engine.FertilizerVsProductionParams{
		Product:        q.str("product"),
		Country:        q.str("country"),
		FertilizerType: q.str("fertilizer_type"),
	})
}

func (s *Server) handlePriceTimeseries(r *http.Request, q *params) (any, error) {
	return s.eng.PriceTimeseries(r.Context(), engine.PriceTimeseriesParams{
		Product: q.str("product"),
		Country: q.str("country"),
	})
}

func (s *Server) handlePriceByCountry(r *http.Request, q *params) (any, error) {
	p := engine.PriceByCountryParams{
		Product: q.str("product"),
		Year:    q.int("year"),
	}
	if q.err != nil {
		return nil, q.err
	}
	return s.eng.PriceByCountry(r.Context(), p)
}

func (s *Server) handleFDIStacked(r *http.Request, q *params) (any, error) {
	p := engine.FDIStackedParams{Year: q.int("year")}
	if q.err != nil {
		return nil, q.err
	}
	return s.eng.FDIStacked(r.Context(), p)
}

func (s *Server) handlePriceBoxplot(r *http.Request, q *params) (any, error) {
	return s.eng.PriceBoxplot(r.Context(), engine.PriceBoxplotParams{
		Product: q.str("product"),
		Country: q.str("country"),
	})
}

func (s *Server) handleLandShare(r *http.Request, q *params) (any, error) {
	p := engine.LandShareParams{
		Country: q.str("country"),
		Year:    q.int("year"),
	}
	if q.err != nil {
		return nil, q.err
	}
	return s.eng.LandShare(r.Context(), p)
}

func (s *Server) handleEmploymentTimeseries(r *http.Request, q *params) (any, error) {
	return s.eng.EmploymentTimeseries(r.Context(), engine.EmploymentTimeseriesParams{
		Country: q.str("country"),
	})
}

func (s *Server) handleEmploymentVsProduction(r *http.Request, q *params) (any, error) {
	p := engine.EmploymentVsProductionParams{
		Country: q.str("country"),
		Year:    q.int("year"),
		Product: q.str("product"),
	}
	if q.err != nil {
		return nil, q.err
	}
	return s.eng.EmploymentVsProduction(r.Context(), p)
}

func (s *Server) handleFilterOptions(r *http.Request, _ *params) (any, error) {
	return s.eng.FilterOptions(r.Context())
}

type errorResponse struct {
	Error string `json:"error"`
}

// params reads query string values. The first malformed integer is kept in
// err and later reads return zero values.
type params struct {
	values url.Values
	err    error
}

type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return e.name + " must be an integer, got " + strconv.Quote(e.value)
}

func (p *params) str(name string) string {
	return p.values.Get(name)
}

// int parses an integer parameter. Missing or empty values read as 0, which
// the engine treats as absent.
func (p *params) int(name string) int {
	raw := p.values.Get(name)
	if raw == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.err = &paramError{name: name, value: raw}
		return 0
	}
	return n
}

// optionalInt is int for parameters where an explicit 0 differs from absent.
func (p *params) optionalInt(name string) *int {
	if !p.values.Has(name) {
		return nil
	}
	raw := p.values.Get(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		if p.err == nil {
			p.err = &paramError{name: name, value: raw}
		}
		return nil
	}
	return &n
}

const requestIDHeader = "X-Request-ID"

// withRequestID tags every response with a request id, reusing the caller's
// when one is supplied.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
