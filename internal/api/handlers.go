// Package api provides HTTP handlers for Pandora endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tanya931151/mental-scope/internal/engine"
	"github.com/Tanya931151/mental-scope/internal/models"
	"github.com/Tanya931151/mental-scope/internal/util"
)

// SessionIDHeader carries the caller's session identifier for transcript
// recording. When absent a fresh one is generated and echoed back.
const SessionIDHeader = "X-Session-ID"

// chatHandler handles POST /chat: one dialogue turn.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	var state models.SessionState
	if req.State != nil {
		state = *req.State
	}

	reply, newState, options := s.engine.ProcessTurn(r.Context(), req.Message, state)

	sessionID := r.Header.Get(SessionIDHeader)
	if sessionID == "" {
		sessionID = util.GenerateSessionID()
	}
	w.Header().Set(SessionIDHeader, sessionID)

	if s.st != nil {
		turn := models.Turn{
			SessionID: sessionID,
			UserText:  req.Message,
			Reply:     reply,
			Topic:     newState.Topic,
			Node:      newState.Expecting,
			Time:      time.Now().Unix(),
		}
		if err := s.st.AddTurn(turn); err != nil {
			// Transcript recording never fails the turn.
			slog.Error("Server.chatHandler: failed to record turn", "error", err, "session_id", sessionID)
		}
	}

	if options == nil {
		options = []models.Option{}
	}
	slog.Debug("Server.chatHandler: turn processed", "node", newState.Expecting, "topic", newState.Topic)
	writeJSONResponse(w, http.StatusOK, models.ChatResponse{Reply: reply, State: newState, Options: options})
}

// topicHandler handles POST /topic: deterministic topic triage for a text.
func (s *Server) topicHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.TopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.topicHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if engine.Normalize(req.Text) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Empty text"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.TopicResponse{Topic: engine.DetectTopic(req.Text)})
}

// transcriptHandler handles GET /transcript?session=<id>.
func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.st == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Transcript recording is not enabled"))
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing session parameter"))
		return
	}

	turns, err := s.st.GetTurns(sessionID)
	if err != nil {
		slog.Error("Server.transcriptHandler: failed to load transcript", "error", err, "session_id", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load transcript"))
		return
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(turns))
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
