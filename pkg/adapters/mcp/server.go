package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/hostsession"
	"github.com/aretw0/stash/pkg/namespace"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsResponse lists the stored session IDs.
type SessionsResponse struct {
	Sessions []string `json:"sessions" jsonschema_description:"Stored session IDs"`
}

// InspectResponse describes the namespaces of one session.
type InspectResponse struct {
	SessionID  string                   `json:"session_id"`
	Namespaces []registry.NamespaceInfo `json:"namespaces" jsonschema_description:"Namespaces with their lock state and data"`
}

// ValueResponse is the result of get_value.
type ValueResponse struct {
	Found bool `json:"found" jsonschema_description:"Whether the key is present"`
	Value any  `json:"value,omitempty"`
}

// ResultResponse is the result of a mutation. OK is false when the namespace is locked.
type ResultResponse struct {
	OK bool `json:"ok" jsonschema_description:"False when the namespace is locked"`
}

// KeyArgs addresses a key inside a namespace of a session.
type KeyArgs struct {
	SessionID string `json:"session_id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// SetArgs carries a JSON encoded value for set_value.
type SetArgs struct {
	KeyArgs
	Value string `json:"value"`
}

// NamespaceArgs addresses a namespace of a session.
type NamespaceArgs struct {
	SessionID string `json:"session_id"`
	Namespace string `json:"namespace"`
}

// SessionArgs addresses a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

const sessionsURI = "stash://sessions"

// Server exposes session administration as an MCP Server.
type Server struct {
	backend   ports.Backend
	view      ports.Backend
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithReadView sets the backend used by read-only tools, typically a redacting view of the
// main backend.
func WithReadView(view ports.Backend) Option {
	return func(s *Server) {
		s.view = view
	}
}

// NewServer creates a new MCP Server instance over backend.
func NewServer(backend ports.Backend, opts ...Option) *Server {
	s := &Server{
		backend:   backend,
		view:      backend,
		mcpServer: server.NewMCPServer("stash-mcp", strings.TrimSpace(stash.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the IDs of every stored session."),
		mcp.WithOutputSchema[SessionsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListSessions))

	s.mcpServer.AddTool(mcp.NewTool("inspect_session",
		mcp.WithDescription("Show the namespaces of a session with their lock state and data. Sensitive keys may be masked."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[InspectResponse](),
	), mcp.NewStructuredToolHandler(s.handleInspectSession))

	s.mcpServer.AddTool(mcp.NewTool("get_value",
		mcp.WithDescription("Read a key from a namespace of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace name")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key inside the namespace")),
		mcp.WithOutputSchema[ValueResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetValue))

	s.mcpServer.AddTool(mcp.NewTool("set_value",
		mcp.WithDescription("Write a key in a namespace of a session. Refused while the namespace is locked."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace name")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key inside the namespace")),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON encoded value")),
		mcp.WithOutputSchema[ResultResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetValue))

	s.mcpServer.AddTool(mcp.NewTool("lock_namespace",
		mcp.WithDescription("Lock a namespace of a session against mutations."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace name")),
		mcp.WithOutputSchema[ResultResponse](),
	), mcp.NewStructuredToolHandler(s.handleLock))

	s.mcpServer.AddTool(mcp.NewTool("unlock_namespace",
		mcp.WithDescription("Unlock a namespace of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("namespace", mcp.Required(), mcp.Description("Namespace name")),
		mcp.WithOutputSchema[ResultResponse](),
	), mcp.NewStructuredToolHandler(s.handleUnlock))
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SessionsResponse, error) {
	ids, err := s.backend.List(ctx)
	if err != nil {
		return SessionsResponse{}, fmt.Errorf("list failed: %w", err)
	}
	return SessionsResponse{Sessions: ids}, nil
}

func (s *Server) handleInspectSession(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (InspectResponse, error) {
	snap, err := s.view.Load(ctx, args.SessionID)
	if err != nil {
		return InspectResponse{}, fmt.Errorf("load failed: %w", err)
	}
	hs := hostsession.New(args.SessionID, snap)
	if err := hs.EnsureActive(ctx); err != nil {
		return InspectResponse{}, err
	}
	return InspectResponse{
		SessionID:  args.SessionID,
		Namespaces: registry.New(hs).Describe(),
	}, nil
}

func (s *Server) handleGetValue(ctx context.Context, request mcp.CallToolRequest, args KeyArgs) (ValueResponse, error) {
	var resp ValueResponse
	err := s.withNamespace(ctx, s.view, args.SessionID, args.Namespace, func(ns *namespace.Store) (bool, error) {
		value, found, err := ns.Get(args.Key)
		resp = ValueResponse{Found: found, Value: value}
		return false, err
	})
	return resp, err
}

func (s *Server) handleSetValue(ctx context.Context, request mcp.CallToolRequest, args SetArgs) (ResultResponse, error) {
	var value any
	if err := json.Unmarshal([]byte(args.Value), &value); err != nil {
		return ResultResponse{}, fmt.Errorf("value is not valid JSON: %w", err)
	}
	return s.mutate(ctx, args.SessionID, args.Namespace, func(ns *namespace.Store) (bool, error) {
		return ns.Set(args.Key, value)
	})
}

func (s *Server) handleLock(ctx context.Context, request mcp.CallToolRequest, args NamespaceArgs) (ResultResponse, error) {
	return s.mutate(ctx, args.SessionID, args.Namespace, (*namespace.Store).Lock)
}

func (s *Server) handleUnlock(ctx context.Context, request mcp.CallToolRequest, args NamespaceArgs) (ResultResponse, error) {
	return s.mutate(ctx, args.SessionID, args.Namespace, (*namespace.Store).Unlock)
}

// mutate applies op and saves the session back when op took effect.
func (s *Server) mutate(ctx context.Context, sessionID, name string, op func(*namespace.Store) (bool, error)) (ResultResponse, error) {
	var ok bool
	err := s.withNamespace(ctx, s.backend, sessionID, name, func(ns *namespace.Store) (bool, error) {
		var err error
		ok, err = op(ns)
		return ok, err
	})
	return ResultResponse{OK: ok}, err
}

// withNamespace loads a session from backend, runs fn on one of its namespaces and
// saves the session when fn reports a change.
func (s *Server) withNamespace(ctx context.Context, backend ports.Backend, sessionID, name string, fn func(*namespace.Store) (bool, error)) error {
	snap, err := backend.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	hs := hostsession.New(sessionID, snap, hostsession.WithLogger(s.logger))
	ns, err := namespace.New(ctx, hs, name, namespace.WithLogger(s.logger))
	if err != nil {
		return err
	}

	changed, err := fn(ns)
	if err != nil || !changed {
		return err
	}
	if err := backend.Save(ctx, sessionID, hs.Snapshot()); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	s.logger.Info("MCP: Session updated", "session_id", sessionID, "namespace", ns.Name())
	return nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), s.handleSessionsResource)
}

func (s *Server) handleSessionsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	body, err := json.Marshal(SessionsResponse{Sessions: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sessions: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sessionsURI,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}
