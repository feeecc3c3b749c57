// Package server exposes the schema inspection API over HTTP: the live
// introspected schema and the migration plan against the declared schema
// file, as JSON.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/introspect"
	"github.com/koustreak/MigRi/internal/logger"
	"github.com/koustreak/MigRi/internal/schema"
	"github.com/koustreak/MigRi/internal/sqlgen"
)

// Server serves the inspection API for one database.
type Server struct {
	addr         string
	dialect      database.Dialect
	introspector introspect.Introspector
	schemaPath   string
	gen          *sqlgen.Generator
	log          *logger.Logger

	http *http.Server
}

// New builds a Server. schemaPath points at the declarative YAML schema the
// /plan endpoint diffs against.
func New(addr string, dialect database.Dialect, intro introspect.Introspector, schemaPath string, log *logger.Logger) (*Server, error) {
	gen, err := sqlgen.New(dialect)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New(logger.DefaultConfig())
	}

	s := &Server{
		addr:         addr,
		dialect:      dialect,
		introspector: intro,
		schemaPath:   schemaPath,
		gen:          gen,
		log:          log,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Router returns the HTTP handler; exposed separately so tests can drive it
// without a listening socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Get("/plan", s.handlePlan)
	return r
}

// ListenAndServe blocks until the server stops or ctx is cancelled, then
// drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Infof("inspection API listening on %s", s.addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"dialect": string(s.dialect),
	})
}

// schemaResponse is the /schema payload.
type schemaResponse struct {
	Dialect string          `json:"dialect"`
	Tables  []*schema.Table `json:"tables"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	db, err := s.introspector.Introspect(r.Context())
	if err != nil {
		s.writeError(w, "introspection failed", err)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Dialect: string(s.dialect),
		Tables:  db.Tables(),
	})
}

// planResponse is the /plan payload: the typed changes plus the rendered
// statements in both directions.
type planResponse struct {
	Dialect string          `json:"dialect"`
	Changes []schema.Change `json:"changes"`
	Up      []string        `json:"up"`
	Down    []string        `json:"down"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	current, err := s.introspector.Introspect(r.Context())
	if err != nil {
		s.writeError(w, "introspection failed", err)
		return
	}
	desired, err := schema.Load(s.schemaPath)
	if err != nil {
		s.writeError(w, "failed to load schema file", err)
		return
	}

	changes := schema.Diff(current, desired)
	m := s.gen.Generate(changes)
	if changes == nil {
		changes = []schema.Change{}
	}
	writeJSON(w, http.StatusOK, planResponse{
		Dialect: string(s.dialect),
		Changes: changes,
		Up:      m.Up,
		Down:    m.Down,
	})
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("duration", time.Since(start).String()).
			Logger().
			Info("request")
	})
}

// errorResponse is the shape of every non-2xx body.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) writeError(w http.ResponseWriter, msg string, err error) {
	s.log.ErrorWith(msg, err, nil)
	writeJSON(w, statusFor(err), errorResponse{
		Error: err.Error(),
		Kind:  kindString(err),
	})
}

// statusFor maps the unified error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsInvalidInput(err):
		return http.StatusBadRequest
	case errs.IsPermissionDenied(err):
		return http.StatusForbidden
	case errs.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errs.IsConnectionFailed(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func kindString(err error) string {
	switch {
	case errs.IsNotFound(err):
		return "not_found"
	case errs.IsInvalidInput(err):
		return "invalid_input"
	case errs.IsPermissionDenied(err):
		return "permission_denied"
	case errs.IsTimeout(err):
		return "timeout"
	case errs.IsConnectionFailed(err):
		return "connection_failed"
	default:
		return "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
