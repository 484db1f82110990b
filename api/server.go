// Package api provides the HTTP server for jsdabond.
//
// It exposes the reference price pipeline as JSON endpoints, SVG charts and
// a server-rendered viewer page.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/jsdabond/internal/analysis/curve"
	"github.com/seenimoa/jsdabond/internal/config"
	"github.com/seenimoa/jsdabond/internal/pipeline"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/internal/report"
	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// Version is reported by /health; set by the CLI at startup.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	svc    *pipeline.Service
	log    *logrus.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, svc *pipeline.Service, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	srv := &Server{cfg: cfg, svc: svc, log: log}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.API.TimeoutSec > 0 {
		return time.Duration(s.cfg.API.TimeoutSec) * time.Second
	}
	return 60 * time.Second
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// Viewer page
	r.Get("/", s.handleViewer)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/config", s.handleGetConfig)
		r.Post("/cache/holidays", s.handleRefreshHolidays)

		r.Get("/prices", s.handlePrices)
		r.Get("/issues", s.handleIssues)
		r.Get("/curve", s.handleCurve)
		r.Get("/curve.svg", s.handleCurveSVG)
		r.Get("/history", s.handleHistory)
		r.Get("/history.svg", s.handleHistorySVG)
		r.Get("/holidays", s.handleHolidays)
		r.Get("/notices", s.handleNotices)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PricesResponse is the data of GET /api/v1/prices.
type PricesResponse struct {
	Date     string     `json:"date"`
	URL      string     `json:"url"`
	FileName string     `json:"file_name"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
	Unmapped []string   `json:"unmapped,omitempty"`
	Cached   bool       `json:"cached"`
}

// IssuesResponse is the data of GET /api/v1/issues.
type IssuesResponse struct {
	Date   string               `json:"date"`
	Issues []curve.IssueSummary `json:"issues"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	today := s.svc.Today()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":       "ok",
			"version":      Version,
			"time_jst":     utils.FormatDateTimeJST(utils.NowJST()),
			"business_day": s.svc.Calendar().IsBusinessDay(today),
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.svc.Status(r.Context())})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	ds, err := s.dataset(r)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}

	t := ds.Table
	if boolParam(r, "raw") {
		t = ds.Raw
	}
	if limit > 0 {
		t = t.Head(limit)
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: PricesResponse{
			Date:     utils.FormatDateJST(ds.Date),
			URL:      ds.URL,
			FileName: ds.FileName,
			Columns:  t.Columns,
			Rows:     t.Rows,
			RowCount: ds.Table.Len(),
			Unmapped: ds.Unmapped,
			Cached:   ds.Cached,
		},
	})
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	sums := curve.Summaries(ds.Quotes)
	if len(sums) == 0 {
		s.writePipelineError(w, r, curve.ErrNoIssues)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    IssuesResponse{Date: utils.FormatDateJST(ds.Date), Issues: sums},
	})
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	c, err := s.curve(r)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: c})
}

func (s *Server) handleCurveSVG(w http.ResponseWriter, r *http.Request) {
	cfg := report.Sized(s.cfg.Chart.Width, s.cfg.Chart.Height)
	c, err := s.curve(r)
	if err != nil {
		s.logError(r, err)
		writeSVG(w, pipeline.HTTPStatus(err), report.YieldCurveChart(nil, cfg))
		return
	}
	writeSVG(w, http.StatusOK, report.YieldCurveChart(c, cfg))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	res, err := s.history(r)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleHistorySVG(w http.ResponseWriter, r *http.Request) {
	cfg := report.Sized(s.cfg.Chart.Width, s.cfg.Chart.Height)
	res, err := s.history(r)
	if err != nil {
		s.logError(r, err)
		writeSVG(w, pipeline.HTTPStatus(err), report.HistoryChart(nil, "", cfg))
		return
	}
	writeSVG(w, http.StatusOK, report.HistoryChart(res.Points, res.Filter.Issue, cfg))
}

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", s.svc.Today().Year())
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	if year < 2000 || year > 2100 {
		s.writePipelineError(w, r, &provider.ErrInvalidParam{Param: "year", Value: r.URL.Query().Get("year"), Detail: "expected a year between 2000 and 2100"})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.svc.Holidays(year)})
}

func (s *Server) handleRefreshHolidays(w http.ResponseWriter, r *http.Request) {
	added, err := s.svc.RefreshHolidays(r.Context(), true)
	if err != nil {
		s.logError(r, err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("holiday refresh failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]int{"added": added}})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", s.cfg.Notices.Limit)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	notices, err := s.svc.Notices(r.Context(), limit)
	if err != nil {
		s.logError(r, err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("notices unavailable: %v", err))
		return
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: notices})
}

// ============================================================
// Pipeline helpers
// ============================================================

// dataset loads ?date=, or the latest published file when it is empty.
func (s *Server) dataset(r *http.Request) (*pipeline.Dataset, error) {
	date, ok, err := dateParam(r, "date")
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.svc.Latest(r.Context(), s.svc.Today())
	}
	return s.svc.Load(r.Context(), date, boolParam(r, "refresh"))
}

func (s *Server) curve(r *http.Request) (*models.YieldCurve, error) {
	f, err := filterParams(r)
	if err != nil {
		return nil, err
	}
	ds, err := s.dataset(r)
	if err != nil {
		return nil, err
	}
	return curve.Build(ds.Quotes, ds.Date, f)
}

func (s *Server) history(r *http.Request) (*pipeline.HistoryResult, error) {
	f, err := filterParams(r)
	if err != nil {
		return nil, err
	}
	to, ok, err := dateParam(r, "to")
	if err != nil {
		return nil, err
	}
	if !ok {
		to = s.svc.Today()
	}
	from, ok, err := dateParam(r, "from")
	if err != nil {
		return nil, err
	}
	if !ok {
		from = to.AddDate(0, -1, 0)
	}
	return s.svc.History(r.Context(), from, to, f)
}

func filterParams(r *http.Request) (curve.Filter, error) {
	issue := r.URL.Query().Get("issue")
	if issue == "" {
		return curve.Filter{}, &provider.ErrMissingParam{Param: "issue"}
	}
	return curve.Filter{Issue: issue, Prefix: boolParam(r, "prefix")}, nil
}

// dateParam parses a YYYY-MM-DD query parameter. ok is false when it is absent.
func dateParam(r *http.Request, key string) (time.Time, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, false, nil
	}
	d, err := utils.ParseDateJST(v)
	if err != nil {
		return time.Time{}, false, &provider.ErrInvalidParam{Param: key, Value: v, Detail: "expected YYYY-MM-DD"}
	}
	return d, true, nil
}

func boolParam(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// intParam returns def when key is absent and ErrInvalidParam when it is not a number.
func intParam(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &provider.ErrInvalidParam{Param: key, Value: v, Detail: "expected an integer"}
	}
	return n, nil
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	writeError(w, pipeline.HTTPStatus(err), s.svc.UserMessage(err))
}

func (s *Server) logError(r *http.Request, err error) {
	s.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
		"status":     pipeline.HTTPStatus(err),
	}).WithError(err).Warn("request failed")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func writeSVG(w http.ResponseWriter, status int, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(svg))
}
