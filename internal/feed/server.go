package feed

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fraudlens/ringview/internal/graph"
	"github.com/fraudlens/ringview/internal/model"
)

// Server owns the authoritative graph for a case and pushes every accepted
// mutation to connected consoles. Pipeline events arrive over NATS (see
// RunBridge); console-originated mutations arrive over the websocket.
type Server struct {
	model  *graph.Model
	hub    *Hub
	logger *slog.Logger
}

// NewServer wires a feed server around the given graph model.
func NewServer(m *graph.Model, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		model:  m,
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Hub exposes the websocket hub, mainly for tests and metrics.
func (s *Server) Hub() *Hub { return s.hub }

// NewHTTPHandler returns the feed's HTTP surface. When authToken is
// non-empty every route except GET /v1/health requires a Bearer token.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/graph", s.handleGetGraph)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleGetGraph serves the initial-state fetch that seeds a console's
// graph model before it attaches to the stream.
func (s *Server) handleGetGraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.model.Snapshot())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeConn(w, r, func(env model.Envelope) {
		if err := s.Apply(env); err != nil {
			s.logger.Warn("rejecting console event", "topic", env.Type, "error", err)
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Apply interprets one envelope against the graph and, when accepted,
// rebroadcasts it to every console. Unknown topics are routed without
// inspection; malformed payloads are dropped with an error.
func (s *Server) Apply(env model.Envelope) error {
	ev, err := model.DecodeGraphEvent(env)
	var unknown *model.ErrUnknownTopic
	switch {
	case errors.As(err, &unknown):
		// Routed verbatim; the core does not interpret it.
	case err != nil:
		return err
	case ev.NodeUpserted != nil:
		s.model.UpsertNode(ev.NodeUpserted.Node)
	case ev.EdgeUpserted != nil:
		if !s.model.UpsertEdge(ev.EdgeUpserted.Edge) {
			// Orphan edge: logged by the model, not rebroadcast.
			return nil
		}
	case ev.NodeRemoved != nil:
		s.model.RemoveNode(ev.NodeRemoved.NodeID)
	case ev.Alert != nil:
		s.model.SetFlagged(ev.Alert.NodeID, true)
	}

	s.hub.Broadcast(env)
	return nil
}

// RunBridge consumes pipeline messages from sub until ctx is done, applying
// each one to the graph and fanning it out. Malformed pipeline payloads are
// logged and skipped.
func (s *Server) RunBridge(ctx context.Context, messages <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			env := model.Envelope{Type: msg.Topic, Payload: msg.Data}
			// Pipeline messages carry bare payloads; wrap and stamp them.
			if stamped, err := model.NewEnvelope(msg.Topic, json.RawMessage(msg.Data)); err == nil {
				env = stamped
			}
			if err := s.Apply(env); err != nil {
				s.logger.Warn("rejecting pipeline event", "topic", msg.Topic, "error", err)
			}
		}
	}
}

// AuthMiddleware checks the Authorization header for a valid Bearer token.
// When token is empty, auth is disabled. GET /v1/health is always exempt.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "invalid authorization scheme")
			return
		}
		provided := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
