package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/namespace"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the session JSON API.
type Server struct {
	streams *StreamManager
	logger  *slog.Logger
}

type options struct {
	logger   *slog.Logger
	cookie   CookieOptions
	hooks    domain.Hooks
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
}

// Option configures the handler.
type Option func(*options)

// WithLogger configures a logger for the handler and the sessions it hosts.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCookie configures the session cookie.
func WithCookie(cookie CookieOptions) Option {
	return func(o *options) {
		o.cookie = cookie
	}
}

// WithHooks registers namespace hooks for every hosted session.
func WithHooks(hooks domain.Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithMetrics records namespace activity in m and serves g on /metrics.
func WithMetrics(m *observability.Metrics, g prometheus.Gatherer) Option {
	return func(o *options) {
		o.metrics = m
		o.gatherer = g
	}
}

// NewHandler creates the HTTP handler for sessions persisted in backend.
func NewHandler(backend ports.Backend, opts ...Option) (http.Handler, error) {
	o := &options{
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(o)
	}

	router, err := newRouter(context.Background())
	if err != nil {
		return nil, err
	}

	hooks := o.hooks
	if o.metrics != nil {
		hooks = o.metrics.Hooks(hooks)
	}

	server := &Server{
		streams: NewStreamManager(o.logger),
		logger:  o.logger,
	}
	host := NewHost(backend, o.cookie, hooks, server.streams, o.logger)

	r := chi.NewRouter()

	// Swagger UI
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openAPIDocument)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(validateRequests(router, o.logger))
		r.Get("/events", server.SubscribeEvents)

		r.Group(func(r chi.Router) {
			r.Use(host.Middleware)

			r.Delete("/session", server.ClearSession)
			r.Post("/session/destroy", server.DestroySession)
			r.Get("/session/{key}", server.GetSessionValue)
			r.Put("/session/{key}", server.SetSessionValue)
			r.Delete("/session/{key}", server.RemoveSessionValue)

			r.Get("/namespaces/{ns}", server.GetNamespace)
			r.Delete("/namespaces/{ns}", server.ClearNamespace)
			r.Post("/namespaces/{ns}/lock", server.LockNamespace)
			r.Post("/namespaces/{ns}/unlock", server.UnlockNamespace)
			r.Post("/namespaces/{ns}/destroy", server.DestroyNamespace)
			r.Get("/namespaces/{ns}/{key}", server.GetNamespaceValue)
			r.Put("/namespaces/{ns}/{key}", server.SetNamespaceValue)
			r.Delete("/namespaces/{ns}/{key}", server.RemoveNamespaceValue)
		})
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Stash API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ValueResponse is the body of a successful read.
type ValueResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// NamespaceResponse describes a namespace.
type NamespaceResponse struct {
	Namespace string         `json:"namespace"`
	Locked    bool           `json:"locked"`
	Exists    bool           `json:"exists"`
	Data      map[string]any `json:"data"`
}

// GetSessionValue handles GET /session/{key}.
func (s *Server) GetSessionValue(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	value, found, err := f.Get(key)
	s.writeValue(w, key, value, found, err)
}

// SetSessionValue handles PUT /session/{key}.
func (s *Server) SetSessionValue(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	value, ok := s.decodeValue(w, r)
	if !ok {
		return
	}
	done, err := f.Set(chi.URLParam(r, "key"), value)
	s.writeResult(w, done, err)
}

// RemoveSessionValue handles DELETE /session/{key}.
func (s *Server) RemoveSessionValue(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	done, err := f.Remove(chi.URLParam(r, "key"))
	s.writeResult(w, done, err)
}

// ClearSession handles DELETE /session.
func (s *Server) ClearSession(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	done, err := f.RemoveAll()
	s.writeResult(w, done, err)
}

// DestroySession handles POST /session/destroy.
func (s *Server) DestroySession(w http.ResponseWriter, r *http.Request) {
	var regenerate bool
	if err := runtime.BindQueryParameter("form", true, false, "regenerate", r.URL.Query(), &regenerate); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	done, err := f.Destroy(r.Context(), regenerate)
	s.writeResult(w, done, err)
}

// GetNamespace handles GET /namespaces/{ns}.
func (s *Server) GetNamespace(w http.ResponseWriter, r *http.Request) {
	ns, ok := s.namespace(w, r)
	if !ok {
		return
	}
	locked, err := ns.IsLocked()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	data, exists, err := ns.GetAll()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, s.logger, http.StatusOK, NamespaceResponse{
		Namespace: ns.Name(),
		Locked:    locked,
		Exists:    exists,
		Data:      data,
	})
}

// ClearNamespace handles DELETE /namespaces/{ns}.
func (s *Server) ClearNamespace(w http.ResponseWriter, r *http.Request) {
	s.mutateNamespace(w, r, (*namespace.Store).RemoveAll)
}

// LockNamespace handles POST /namespaces/{ns}/lock.
func (s *Server) LockNamespace(w http.ResponseWriter, r *http.Request) {
	s.mutateNamespace(w, r, (*namespace.Store).Lock)
}

// UnlockNamespace handles POST /namespaces/{ns}/unlock.
func (s *Server) UnlockNamespace(w http.ResponseWriter, r *http.Request) {
	s.mutateNamespace(w, r, (*namespace.Store).Unlock)
}

// DestroyNamespace handles POST /namespaces/{ns}/destroy.
func (s *Server) DestroyNamespace(w http.ResponseWriter, r *http.Request) {
	s.mutateNamespace(w, r, (*namespace.Store).Destroy)
}

// GetNamespaceValue handles GET /namespaces/{ns}/{key}.
func (s *Server) GetNamespaceValue(w http.ResponseWriter, r *http.Request) {
	ns, ok := s.namespace(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	value, found, err := ns.Get(key)
	s.writeValue(w, key, value, found, err)
}

// SetNamespaceValue handles PUT /namespaces/{ns}/{key}.
func (s *Server) SetNamespaceValue(w http.ResponseWriter, r *http.Request) {
	ns, ok := s.namespace(w, r)
	if !ok {
		return
	}
	value, ok := s.decodeValue(w, r)
	if !ok {
		return
	}
	done, err := ns.Set(chi.URLParam(r, "key"), value)
	s.writeResult(w, done, err)
}

// RemoveNamespaceValue handles DELETE /namespaces/{ns}/{key}.
func (s *Server) RemoveNamespaceValue(w http.ResponseWriter, r *http.Request) {
	ns, ok := s.namespace(w, r)
	if !ok {
		return
	}
	done, err := ns.Remove(chi.URLParam(r, "key"))
	s.writeResult(w, done, err)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":     "stash-http",
		"version": strings.TrimSpace(stash.Version),
	})
}

// -- Helpers --

func (s *Server) facade(w http.ResponseWriter, r *http.Request) (*session.Facade, bool) {
	f, ok := session.FromContext(r.Context())
	if !ok {
		s.logger.Error("No session bound to request", "path", r.URL.Path)
		writeError(w, s.logger, http.StatusInternalServerError, domain.ErrSessionNotStarted)
	}
	return f, ok
}

func (s *Server) namespace(w http.ResponseWriter, r *http.Request) (*namespace.Store, bool) {
	f, ok := s.facade(w, r)
	if !ok {
		return nil, false
	}
	ns, err := f.Namespace(r.Context(), chi.URLParam(r, "ns"))
	if err != nil {
		s.writeDomainError(w, err)
		return nil, false
	}
	return ns, true
}

func (s *Server) mutateNamespace(w http.ResponseWriter, r *http.Request, op func(*namespace.Store) (bool, error)) {
	ns, ok := s.namespace(w, r)
	if !ok {
		return
	}
	done, err := op(ns)
	s.writeResult(w, done, err)
}

func (s *Server) decodeValue(w http.ResponseWriter, r *http.Request) (any, bool) {
	var value any
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		s.logger.Warn("Invalid request body", "err", err)
		writeError(w, s.logger, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return nil, false
	}
	return value, true
}

func (s *Server) writeValue(w http.ResponseWriter, key string, value any, found bool, err error) {
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, s.logger, http.StatusNotFound, fmt.Errorf("key %q not found", key))
		return
	}
	writeJSON(w, s.logger, http.StatusOK, ValueResponse{Key: key, Value: value})
}

// writeResult answers a mutation. A lock denial is a 409 with ok=false.
func (s *Server) writeResult(w http.ResponseWriter, ok bool, err error) {
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	writeJSON(w, s.logger, status, map[string]bool{"ok": ok})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidNamespaceName) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("Session operation failed", "err", err)
	}
	writeError(w, s.logger, status, err)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	writeJSON(w, logger, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
