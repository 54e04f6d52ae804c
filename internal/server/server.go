// Package server exposes the refresh cycle, health score, advisory and
// chat stream over a small JSON API. Rendering beyond the advisory HTML
// is a client concern.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/finwatch/finwatch/internal/advisor"
	"github.com/finwatch/finwatch/internal/chat"
	"github.com/finwatch/finwatch/internal/logger"
	"github.com/finwatch/finwatch/internal/refresh"
)

var md = goldmark.New()

// Server is the HTTP server for the finwatch API.
type Server struct {
	orchestrator *refresh.Orchestrator
	advisor      *advisor.Advisor
	chatClient   *chat.Client
	mux          *http.ServeMux
}

// New creates a Server. advisor and chatClient may be nil when those
// features are not configured.
func New(orchestrator *refresh.Orchestrator, adv *advisor.Advisor, chatClient *chat.Client) *Server {
	s := &Server{
		orchestrator: orchestrator,
		advisor:      adv,
		chatClient:   chatClient,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/advisory", s.handleAdvisory)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
}

func (s *Server) refreshFor(r *http.Request) refresh.Result {
	portfolioID := r.URL.Query().Get("portfolio")
	if portfolioID == "" {
		portfolioID = "default"
	}
	return s.orchestrator.Refresh(r.Context(), portfolioID, nil)
}

// handleAlerts runs a refresh cycle and returns the display list.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.refreshFor(r))
}

// handleHealth returns only the health score from a refresh cycle.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res := s.refreshFor(r)
	writeJSON(w, res.Health)
}

// handleAdvisory renders the advisory markdown as HTML. A busy advisory
// service still yields the fallback text, never an error page.
func (s *Server) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		http.Error(w, "advisor not configured", http.StatusNotFound)
		return
	}

	res := s.refreshFor(r)
	snapshot := s.orchestrator.Portfolio(res.PortfolioID)

	text, err := s.advisor.Advise(r.Context(), snapshot, res.Alerts)
	if err != nil {
		logger.Log.Warnf("serving fallback advisory: %v", err)
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// chatRequest is the inbound chat body.
type chatRequest struct {
	Message   string          `json:"message"`
	SessionID string          `json:"sessionId"`
	Flags     map[string]bool `json:"flags,omitempty"`
	History   []chat.Message  `json:"history,omitempty"`
}

// handleChat streams the assembled assistant message as it grows, one
// snapshot line per update.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chatClient == nil {
		http.Error(w, "chat not configured", http.StatusNotFound)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")

	asm := chat.NewAssembler(func(current string) {
		line, err := json.Marshal(map[string]string{"role": chat.RoleAssistant, "content": current})
		if err != nil {
			return
		}
		w.Write(append(line, '\n'))
		if flusher != nil {
			flusher.Flush()
		}
	})

	if err := s.chatClient.Stream(r.Context(), asm, req.Message, req.SessionID, req.Flags, req.History); err != nil {
		logger.Log.Warnf("chat stream ended with error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("encoding response: %v", err)
	}
}

// ListenAndServe runs the server on the given port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.Log.Infof("serving on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}
