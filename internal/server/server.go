// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness check
//	GET  /v1/version   build information
//	POST /v1/pack      flat pack protocol (board.PackRequest → board.PackResponse)
//	POST /v1/layout    board → layout plus optional rendered artifacts
//
// Errors are answered as {"error": ..., "code": ...} with the status from
// errors.HTTPStatus, except /v1/pack which always answers a PackResponse.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/buildinfo"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/observability"
	"github.com/matzehuels/boardpack/pkg/pipeline"
)

const (
	maxBodyBytes    = 8 << 20
	requestTimeout  = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server handles API requests with a shared Runner.
type Server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. defaults supplies the solver, clustering and
// render settings that requests do not override.
func New(runner *pipeline.Runner, defaults pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, defaults: defaults, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Post("/pack", s.handlePack)
		r.Post("/layout", s.handleLayout)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	var req board.PackRequest
	if err := decode(w, r, &req); err != nil {
		resp := board.FailedResponse(err)
		writeJSON(w, errors.HTTPStatus(err), resp)
		return
	}

	resp := s.runner.Pack(r.Context(), req, s.defaults.SolverOptions())
	status := http.StatusOK
	if !resp.Success {
		status = errors.HTTPStatus(errors.New(errors.Code(resp.Code), "%s", resp.Error))
	}
	writeJSON(w, status, resp)
}

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Board   json.RawMessage `json:"board"`
	Formats []string        `json:"formats,omitempty"`
	// Optional overrides of the server defaults.
	Padding      *float64 `json:"padding,omitempty"`
	EdgePatterns []string `json:"edge_patterns,omitempty"`
	Orphans      string   `json:"orphans,omitempty"`
	Refresh      bool     `json:"refresh,omitempty"`
}

// LayoutResponse is the answer of POST /v1/layout. Artifacts are base64
// encoded by encoding/json.
type LayoutResponse struct {
	RunID     string            `json:"run_id"`
	Cached    bool              `json:"cached"`
	Layout    *board.Layout     `json:"layout"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Board) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing board"))
		return
	}
	b, err := board.Parse(req.Board, board.FormatJSON)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.defaults
	opts.Formats = req.Formats
	opts.Refresh = req.Refresh
	opts.OnCluster = nil
	if req.Padding != nil {
		opts.Padding = *req.Padding
	}
	if len(req.EdgePatterns) > 0 {
		opts.EdgePatterns = req.EdgePatterns
	}
	if req.Orphans != "" {
		opts.Orphans = cluster.OrphanPolicy(req.Orphans)
	}

	res, err := s.runner.Execute(r.Context(), b, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{
		RunID:     res.RunID,
		Cached:    res.CacheInfo.LayoutHit,
		Layout:    res.Layout,
		Artifacts: res.Artifacts,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("Server", buildinfo.UserAgent())

		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", d)
	})
}

// decode reads a size-limited JSON body, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "empty request body")
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
