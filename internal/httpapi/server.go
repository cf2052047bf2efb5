// Package httpapi serves report, color-map and normalization endpoints over
// HTTP.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/election-toolkit/internal/export"
	"github.com/sells-group/election-toolkit/internal/geo"
	"github.com/sells-group/election-toolkit/internal/loader"
	"github.com/sells-group/election-toolkit/internal/mapbind"
	"github.com/sells-group/election-toolkit/internal/model"
	"github.com/sells-group/election-toolkit/internal/report"
)

// Config holds the HTTP-level settings.
type Config struct {
	RateLimit    float64
	RateBurst    int
	MaxBodyBytes int64
	CORSOrigins  []string
}

// Server handles API requests. Report options are shared read-only across
// requests; every request builds its own reports.
type Server struct {
	opts     report.Options
	cfg      Config
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter
	requests *prometheus.CounterVec
}

// New creates a Server. Request metrics are registered with reg, which is
// also served on /metrics.
func New(opts report.Options, cfg Config, reg *prometheus.Registry) *Server {
	return &Server{
		opts:     opts,
		cfg:      cfg,
		gatherer: reg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "election_http_requests_total",
				Help: "HTTP requests served, by route and status code.",
			},
			[]string{"route", "code"},
		),
	}
}

// Routes returns the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.observe)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/reports", s.postReports)
		r.Post("/colormap", s.postColorMap)
		r.Post("/normalize", s.postNormalize)
	})
	return r
}

// observe logs each request and counts it by route pattern and status.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		zap.L().Debug("httpapi: request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postReports builds reports from a savefile body. Query parameters: kind
// (one election kind, default all), format (json, csv, xlsx; default json),
// table (for csv), counties (bool).
func (s *Server) postReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := export.FormatJSON
	if f := q.Get("format"); f != "" {
		parsed, err := export.ParseFormat(f)
		if err != nil || parsed == export.FormatTable {
			writeError(w, http.StatusBadRequest, "unsupported format "+strconv.Quote(f), "")
			return
		}
		format = parsed
	}
	table, err := export.ParseTable(q.Get("table"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	opts := s.opts
	if c := q.Get("counties"); c != "" {
		v, err := strconv.ParseBool(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, "counties must be a boolean", "")
			return
		}
		opts.Counties = v
	}

	reports, ok := s.buildReports(w, r, opts, model.ElectionKind(strings.ToLower(q.Get("kind"))))
	if !ok {
		return
	}
	writeReports(w, format, table, reports)
}

// writeReports renders reports with the content type of format.
func writeReports(w http.ResponseWriter, format export.Format, table export.Table, reports []*report.Report) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, table, reports); err != nil {
		zap.L().Error("httpapi: write reports", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report export failed", "")
		return
	}

	switch format {
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
	case export.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="reports.xlsx"`)
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		zap.L().Warn("httpapi: send reports", zap.Error(err))
	}
}

// colorMapResponse is the body of a color-map response.
type colorMapResponse struct {
	ReportID  string             `json:"report_id"`
	Kind      model.ElectionKind `json:"kind"`
	Level     mapbind.Level      `json:"level"`
	Colors    map[string]string  `json:"colors"`
	Unmatched []string           `json:"unmatched"`
	Coverage  *mapbind.Coverage  `json:"coverage,omitempty"`
}

// postColorMap returns the color map of one election kind. With state set,
// it returns the county map of that state's drill-down instead.
func (s *Server) postColorMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := model.ElectionKind(strings.ToLower(q.Get("kind")))
	state := q.Get("state")

	opts := s.opts
	opts.Counties = state != ""

	reports, ok := s.buildReports(w, r, opts, kind)
	if !ok {
		return
	}
	if len(reports) != 1 {
		writeError(w, http.StatusBadRequest, "kind is required when the savefile has several election kinds", "")
		return
	}
	rep := reports[0]

	resp := colorMapResponse{
		ReportID:  rep.ID,
		Kind:      rep.Kind,
		Level:     rep.ColorMap.Level,
		Colors:    rep.ColorMap.Colors,
		Unmatched: rep.ColorMap.Unmatched,
		Coverage:  rep.Coverage,
	}
	if state != "" {
		key := geo.NormalizeStateID(state)
		var found bool
		for _, c := range rep.Counties {
			if c.State == key {
				resp.Level = c.ColorMap.Level
				resp.Colors = c.ColorMap.Colors
				resp.Unmatched = c.ColorMap.Unmatched
				resp.Coverage = c.Coverage
				found = true
				break
			}
		}
		if !found {
			writeError(w, http.StatusNotFound, "no county results for state "+strconv.Quote(state), "")
			return
		}
	}
	if resp.Unmatched == nil {
		resp.Unmatched = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type normalizeRequest struct {
	Level string   `json:"level"`
	Names []string `json:"names"`
}

// postNormalize maps raw names to canonical identifiers at a level. Names
// that do not normalize map to "".
func (s *Server) postNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	level, ok := mapbind.ParseLevel(req.Level)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown level "+strconv.Quote(req.Level), "")
		return
	}

	ids := make(map[string]string, len(req.Names))
	for _, name := range req.Names {
		ids[name] = mapbind.Key(level, name)
	}
	writeJSON(w, http.StatusOK, map[string]any{"level": level, "ids": ids})
}

// buildReports decodes the savefile body and builds reports, optionally for
// one kind only. It writes the error response itself and reports false on
// failure.
func (s *Server) buildReports(w http.ResponseWriter, r *http.Request, opts report.Options, kind model.ElectionKind) ([]*report.Report, bool) {
	sf, err := loader.Decode(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var se *model.SchemaError
		if errors.As(err, &se) {
			writeError(w, http.StatusBadRequest, se.Msg, se.Path)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid savefile", "")
		return nil, false
	}

	if kind != "" {
		entries, ok := sf.Elections[kind]
		if !ok {
			writeError(w, http.StatusNotFound, "no results for election kind "+strconv.Quote(string(kind)), "")
			return nil, false
		}
		sf = &model.Savefile{Elections: map[model.ElectionKind][]model.RaceEntry{kind: entries}}
	}

	reports, err := report.BuildAll(r.Context(), sf, opts)
	if err != nil {
		zap.L().Error("httpapi: build reports", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report build failed", "")
		return nil, false
	}
	return reports, true
}

type errorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, path string) {
	writeJSON(w, status, errorResponse{Error: msg, Path: path})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("httpapi: encode response", zap.Error(err))
	}
}
