// Package server exposes the analysis engine over HTTP: JSON endpoints for
// one-shot requests and a websocket that streams search progress.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"azul/engine"
)

type Server struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

func New(eng *engine.Engine) *Server {
	return &Server{
		engine: eng,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Post("/api/analyze", s.handleAnalyze)
	r.Post("/api/validate", s.handleValidate)
	r.Post("/api/moves", s.handleMoves)
	r.Get("/ws/analyze", s.handleAnalyzeWS)

	return r
}

func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("analysis server listening")
	return srv.ListenAndServe()
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	resp, err := s.engine.Analyze(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req engine.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	resp, err := s.engine.Validate(req)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	var req struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	moves, err := s.engine.LegalMoves(req.State)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"moves": moves})
}

// handleAnalyzeWS reads one analysis request off the socket, then streams
// progress events until the search finishes. One request per connection.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req engine.Request
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(engine.Event{Stage: "error", Error: "invalid request"})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events := make(chan engine.Event, 8)
	go s.engine.AnalyzeStream(ctx, req, 500*time.Millisecond, events)

	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			log.Debug().Err(err).Msg("websocket client gone")
			cancel()
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}
