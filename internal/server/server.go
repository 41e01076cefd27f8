// Package server exposes the layout engine over HTTP.
//
// Routes:
//
//	GET  /healthz                 liveness and build version
//	POST /layout                  lay out a world sent in the body
//	GET  /layout/current          most recently published layout
//	POST /layout/select           change the selection of the current layout
//	GET  /worlds                  world ids in the configured source
//	GET  /worlds/{id}/layout      lay out a world from the configured source
//	GET  /metrics                 Prometheus metrics, when enabled
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/worldloom/worldloom/pkg/buildinfo"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/observability"
	"github.com/worldloom/worldloom/pkg/pipeline"
	"github.com/worldloom/worldloom/pkg/source"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 8 << 20

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	runner   *pipeline.Runner
	coord    *engine.Coordinator
	defaults pipeline.Options
	logger   *log.Logger

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// New creates a server. defaults seeds every request's options; its Source
// backs the /worlds routes.
func New(runner *pipeline.Runner, coord *engine.Coordinator, defaults pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{runner: runner, coord: coord, defaults: defaults, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)

	r.Route("/layout", func(r chi.Router) {
		r.Post("/", s.layout)
		r.Get("/current", s.current)
		r.Post("/select", s.selectNode)
	})

	r.Route("/worlds", func(r chi.Router) {
		r.Get("/", s.listWorlds)
		r.Get("/{worldID}/layout", s.worldLayout)
	})

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// requestLogger logs each request and reports it to the HTTP hooks.
func requestLogger(logger *log.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			dur := time.Since(start)
			observability.HTTP().OnRequest(r.Context(), r.Method, route)
			observability.HTTP().OnResponse(r.Context(), r.Method, route, status, dur)

			logger.Debug("http request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", dur,
				"request_id", chimiddleware.GetReqID(r.Context()))
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// layoutRequest is the body of POST /layout. Option fields sit next to the
// world, e.g. {"world": {...}, "strategy": "circular"}.
type layoutRequest struct {
	World json.RawMessage `json:"world"`
	pipeline.Options
}

// layoutsResponse is returned when every strategy is requested.
type layoutsResponse struct {
	Layouts []graph.Layout `json:"layouts"`
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	req := layoutRequest{Options: s.requestDefaults()}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.World) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "world is required"))
		return
	}
	wld, err := graph.UnmarshalWorld(req.World, graph.FormatJSON)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := req.Options
	opts.WorldFile, opts.Source, opts.WorldID = "", "", ""
	if err := opts.ValidateForLayout(); err != nil {
		s.writeError(w, err)
		return
	}

	if opts.IsAll() {
		snaps, err := s.runner.LayoutAll(r.Context(), &wld, opts)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp := layoutsResponse{}
		for _, snap := range snaps {
			resp.Layouts = append(resp.Layouts, graph.FromSnapshot(snap))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	// Single strategies go through the coordinator so subscribers see them.
	snap, published, err := s.coord.Recompute(r.Context(), wld.Elements, wld.Relationships, opts.Request(opts.Strategies()[0]))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if opts.Select != "" {
		snap = s.selectOwn(snap, published, opts.Select)
	}
	writeJSON(w, http.StatusOK, graph.FromSnapshot(snap))
}

// selectOwn applies a selection to the caller's own snapshot. The shared
// selection only moves while that snapshot is still the published one; a
// superseded snapshot is selected locally.
func (s *Server) selectOwn(snap *engine.Snapshot, published bool, id string) *engine.Snapshot {
	if published {
		if sel, ok := s.coord.SelectIfCurrent(snap.Seq, id); ok {
			return sel
		}
	}
	return snap.Select(id)
}

func (s *Server) current(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Current()
	if snap == nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no layout published yet"))
		return
	}
	writeJSON(w, http.StatusOK, graph.FromSnapshot(snap))
}

type selectRequest struct {
	ID string `json:"id"`
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	snap := s.coord.Select(req.ID)
	if snap == nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no layout published yet"))
		return
	}
	writeJSON(w, http.StatusOK, graph.FromSnapshot(snap))
}

func (s *Server) listWorlds(w http.ResponseWriter, r *http.Request) {
	if s.defaults.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no world source configured"))
		return
	}
	src, err := source.Open(r.Context(), s.defaults.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer src.Close()

	ids, err := src.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": src.Kind(), "worlds": ids})
}

func (s *Server) worldLayout(w http.ResponseWriter, r *http.Request) {
	if s.defaults.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no world source configured"))
		return
	}
	opts := s.requestDefaults()
	opts.Source = s.defaults.Source
	opts.WorldID = chi.URLParam(r, "worldID")
	if err := applyQuery(&opts, r); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(res.Layouts) == 1 {
		writeJSON(w, http.StatusOK, res.Layouts[0])
		return
	}
	writeJSON(w, http.StatusOK, layoutsResponse{Layouts: res.Layouts})
}

// requestDefaults returns the layout defaults without load fields.
func (s *Server) requestDefaults() pipeline.Options {
	return pipeline.Options{
		Strategy:   s.defaults.Strategy,
		ShowLabels: s.defaults.ShowLabels,
		Width:      s.defaults.Width,
		Height:     s.defaults.Height,
		Iterations: s.defaults.Iterations,
		Seed:       s.defaults.Seed,
		Logger:     s.logger,
	}
}

// applyQuery reads layout options from the query string.
func applyQuery(opts *pipeline.Options, r *http.Request) error {
	q := r.URL.Query()
	if v := q.Get("strategy"); v != "" {
		opts.Strategy = v
	}
	if v := q.Get("type"); v != "" {
		opts.TypeFilter = v
	}
	if v := q.Get("select"); v != "" {
		opts.Select = v
	}
	if v := q.Get("labels"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "labels")
		}
		opts.ShowLabels = b
	}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "seed")
		}
		opts.Seed = n
	}
	if v := q.Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "refresh")
		}
		opts.Refresh = b
	}
	return nil
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.IsInvalid(err), errors.Is(err, errors.ErrCodeUnsupportedSource):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeNetwork), errors.Is(err, errors.ErrCodeTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
