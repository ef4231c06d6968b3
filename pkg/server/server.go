// Package server exposes the visualizer over an HTTP control API.
//
// # Routes
//
//	GET    /healthz                 liveness and controller status
//	GET    /graph                   the held scene graph document
//	POST   /graph                   replace the scene graph (JSON document)
//	DELETE /graph                   clear every channel and drop the graph
//	GET    /config                  current configuration snapshot
//	PUT    /config/visualizer       update shared settings
//	PUT    /config/layers/{layer}   update one layer ("places" or "3")
//	POST   /redraw                  arm a redraw
//	GET    /metrics                 Prometheus exposition, when configured
//
// PUT bodies are decoded over the current values, so a partial object only
// changes the fields it names. Errors are returned as
// {"code": "...", "error": "..."} with a status derived from the error code.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/dsgviz/pkg/buildinfo"
	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/observability"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
	"github.com/matzehuels/dsgviz/pkg/visualizer"
)

// maxBodyBytes bounds request bodies; graphs are the largest payload.
const maxBodyBytes = 64 << 20

// Options configures a Server.
type Options struct {
	// Logger receives one line per request. Nil discards.
	Logger *log.Logger

	// Metrics serves GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler
}

// Server routes control requests to a controller and a config store.
type Server struct {
	ctl    *visualizer.Controller
	store  *config.Store
	opts   Options
	router chi.Router
}

// New builds the router.
func New(ctl *visualizer.Controller, store *config.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{ctl: ctl, store: store, opts: opts}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)

	r.Route("/graph", func(r chi.Router) {
		r.Get("/", s.getGraph)
		r.Post("/", s.setGraph)
		r.Delete("/", s.clearGraph)
	})

	r.Route("/config", func(r chi.Router) {
		r.Get("/", s.getConfig)
		r.Put("/visualizer", s.putVisualizer)
		r.Put("/layers/{layer}", s.putLayer)
	})

	r.Post("/redraw", s.redraw)

	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	return r
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status   string    `json:"status"`
	Version  string    `json:"version"`
	HasGraph bool      `json:"has_graph"`
	Nodes    int       `json:"nodes"`
	Edges    int       `json:"edges"`
	Dirty    bool      `json:"dirty"`
	Passes   int       `json:"passes"`
	LastPass time.Time `json:"last_pass,omitzero"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	st := s.ctl.Status()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Version:  buildinfo.Version,
		HasGraph: st.HasGraph,
		Nodes:    st.Nodes,
		Edges:    st.Edges,
		Dirty:    st.Dirty,
		Passes:   st.Passes,
		LastPass: st.LastPass,
	})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	g := s.ctl.Graph()
	if g == nil {
		writeError(w, errors.New(errors.ErrCodeGraphNotFound, "no scene graph is loaded"))
		return
	}
	writeJSON(w, http.StatusOK, scenegraph.ToDocument(g))
}

func (s *Server) setGraph(w http.ResponseWriter, r *http.Request) {
	g, err := scenegraph.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ctl.SetGraph(r.Context(), g); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) putVisualizer(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	vc, err := s.store.UpdateVisualizer(func(vc *config.VisualizerConfig) error {
		return decodeJSON(body, vc)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vc)
}

func (s *Server) putLayer(w http.ResponseWriter, r *http.Request) {
	id, err := scenegraph.ParseLayerID(chi.URLParam(r, "layer"))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "layer"))
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	lc, err := s.store.UpdateLayer(id, func(lc *config.LayerConfig) error {
		return decodeJSON(body, lc)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lc)
}

func (s *Server) redraw(w http.ResponseWriter, r *http.Request) {
	s.ctl.ConfigChanged()
	w.WriteHeader(http.StatusAccepted)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		d := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, ww.Status(), d)
		s.opts.Logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", d,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// readBody reads a bounded request body. Config patches are decoded later,
// under the store lock.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	return data, nil
}

// decodeJSON overlays the fields present in data onto v.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidConfig, errors.ErrCodeEmptyGraph:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeGraphNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Error: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
