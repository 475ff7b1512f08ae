package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/hostsession"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
)

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Path   string
	Secure bool
}

// DefaultCookieName is used when no cookie name is configured.
const DefaultCookieName = "stash_session"

// Host binds a session Facade to each request.
//
// The session ID travels in a cookie. The snapshot is loaded from the backend
// before the handler runs and saved back once it returns. Unknown IDs are never
// adopted; a fresh ID is issued instead.
//
// The save happens after the handler has written its response, so a failed save
// is only logged: the client may already hold a success answer for a change that
// was not stored.
type Host struct {
	backend ports.Backend
	cookie  CookieOptions
	hooks   domain.Hooks
	streams *StreamManager
	logger  *slog.Logger
}

// NewHost creates a Host over backend.
func NewHost(backend ports.Backend, cookie CookieOptions, hooks domain.Hooks, streams *StreamManager, logger *slog.Logger) *Host {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Host{
		backend: backend,
		cookie:  cookie,
		hooks:   hooks,
		streams: streams,
		logger:  logger,
	}
}

// Middleware loads the session, places its Facade in the request context and
// persists the session after next returns.
func (h *Host) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, snap, err := h.load(ctx, r)
		if err != nil {
			h.logger.Error("Failed to load session", "err", err)
			writeError(w, h.logger, http.StatusInternalServerError, err)
			return
		}

		tw := &trackingWriter{ResponseWriter: w}
		hs := hostsession.New(id, snap,
			hostsession.WithCommitted(tw.Committed),
			hostsession.WithOnStart(func(ctx context.Context, newID string) error {
				if newID != id {
					h.setCookie(tw, newID)
				}
				return nil
			}),
			hostsession.WithOnRotate(func(ctx context.Context, oldID, newID string) error {
				h.setCookie(tw, newID)
				return nil
			}),
			hostsession.WithLogger(h.logger),
		)

		facade, err := session.New(ctx, hs,
			session.WithLogger(h.logger),
			session.WithHooks(h.sessionHooks(hs)),
		)
		if err != nil {
			h.logger.Error("Failed to set up session", "err", err)
			writeError(w, h.logger, http.StatusInternalServerError, err)
			return
		}

		next.ServeHTTP(tw, r.WithContext(session.NewContext(ctx, facade)))

		// The client may be gone already; the session must still be saved.
		h.persist(context.WithoutCancel(ctx), hs)
	})
}

func (h *Host) load(ctx context.Context, r *http.Request) (string, domain.Snapshot, error) {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil || c.Value == "" {
		return "", nil, nil
	}

	snap, err := h.backend.Load(ctx, c.Value)
	if errors.Is(err, domain.ErrSessionNotFound) {
		h.logger.Debug("Unknown session id, issuing a new one")
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return c.Value, snap, nil
}

func (h *Host) persist(ctx context.Context, hs *hostsession.Session) {
	for _, old := range hs.Retired() {
		if err := h.backend.Delete(ctx, old); err != nil {
			h.logger.Error("Failed to delete retired session", "session_id", old, "err", err)
		}
	}
	if !hs.Dirty() || hs.ID() == "" {
		return
	}
	if err := h.backend.Save(ctx, hs.ID(), hs.Snapshot()); err != nil {
		h.logger.Error("Failed to save session", "session_id", hs.ID(), "err", err)
	}
}

func (h *Host) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    id,
		Path:     h.cookie.Path,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionHooks forwards namespace events to the configured hooks and to the
// event stream of the session.
func (h *Host) sessionHooks(hs *hostsession.Session) domain.Hooks {
	return domain.Hooks{
		OnMutation: func(e *domain.NamespaceEvent) {
			if h.hooks.OnMutation != nil {
				h.hooks.OnMutation(e)
			}
			h.streams.Broadcast(hs.ID(), *e)
		},
		OnDenied: func(e *domain.NamespaceEvent) {
			if h.hooks.OnDenied != nil {
				h.hooks.OnDenied(e)
			}
		},
	}
}

// trackingWriter records whether the response was committed.
type trackingWriter struct {
	http.ResponseWriter
	committed atomic.Bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.committed.Store(true)
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.committed.Store(true)
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.committed.Store(true)
		f.Flush()
	}
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Committed reports whether headers were sent.
func (w *trackingWriter) Committed() bool {
	return w.committed.Load()
}
