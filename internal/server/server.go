// Package server exposes the arrange solver and the renderer over HTTP.
//
// Arrange runs are asynchronous: POST /v1/arrange answers with a job id,
// GET /v1/arrange/{id} reports progress and finally the arranged document,
// and DELETE /v1/arrange/{id} cancels. Rendering is synchronous. Both go
// through a [pipeline.Runner], so repeated requests are served from cache.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/noderelax/pkg/arrange"
	nrerrors "github.com/matzehuels/noderelax/pkg/errors"
	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/observability"
	"github.com/matzehuels/noderelax/pkg/pipeline"
	"github.com/matzehuels/noderelax/pkg/render"
)

// MaxBodyBytes limits request bodies.
const MaxBodyBytes = 8 << 20

const shutdownTimeout = 10 * time.Second

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	jobs     *Manager
	defaults pipeline.Options
	metrics  *Metrics
	logger   *log.Logger
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the options requests start from before their own
// overrides are applied.
func WithDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server that arranges and renders through runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		defaults: pipeline.DefaultOptions(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.jobs = NewManager(runner, s.logger)
	return s
}

// Jobs returns the server's job manager.
func (s *Server) Jobs() *Manager { return s.jobs }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/arrange", s.handleSubmit)
		r.Get("/arrange/{id}", s.handleGet)
		r.Delete("/arrange/{id}", s.handleCancel)
		r.Post("/render", s.handleRender)
	})
	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully and
// cancels running jobs.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if jobErr := s.jobs.Shutdown(shutdownCtx); err == nil {
		err = jobErr
	}
	return err
}

// =============================================================================
// Handlers
// =============================================================================

type arrangeRequest struct {
	Document graph.Document `json:"document"`
	Config   arrange.Config `json:"config"`
	Refresh  bool           `json:"refresh"`
}

type renderRequest struct {
	Document   graph.Document `json:"document"`
	Format     string         `json:"format"`
	PortLabels bool           `json:"port_labels"`
	HideFrames bool           `json:"hide_frames"`
}

// ErrorBody is the JSON error payload.
type ErrorBody struct {
	Code    nrerrors.Code `json:"code"`
	Message string        `json:"message"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req := arrangeRequest{Config: s.defaults.Arrange}
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.defaults
	opts.Arrange = req.Config
	opts.Refresh = req.Refresh

	snap, err := s.jobs.Submit(req.Document, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/arrange/"+snap.ID)
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	snap, err := s.jobs.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusAccepted
	if snap.State != StateRunning {
		status = http.StatusOK
	}
	writeJSON(w, status, snap)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req := renderRequest{Format: pipeline.DefaultFormat}
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.defaults
	opts.Render = pipeline.RenderOptions{
		Formats:    []string{string(format)},
		PortLabels: req.PortLabels,
		HideFrames: req.HideFrames,
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), req.Document, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifacts[string(format)]); err != nil {
		s.logger.Debug("write render response", "err", err)
	}
}

// =============================================================================
// Helpers
// =============================================================================

// observe reports every response to the HTTP hooks, labeled with the
// matched route pattern rather than the raw path.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"elapsed", elapsed, "request_id", middleware.GetReqID(r.Context()))
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nrerrors.Wrap(nrerrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func errorBody(err error) ErrorBody {
	code := nrerrors.GetCode(err)
	if code == "" {
		code = nrerrors.ErrCodeInternal
	}
	return ErrorBody{Code: code, Message: nrerrors.UserMessage(err)}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := nrerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentType(f render.Format) string {
	switch f {
	case render.FormatSVG:
		return "image/svg+xml"
	case render.FormatPNG:
		return "image/png"
	case render.FormatPDF:
		return "application/pdf"
	default:
		return "text/vnd.graphviz"
	}
}
