package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tanya931151/mental-scope/internal/engine"
	"github.com/Tanya931151/mental-scope/internal/models"
	"github.com/Tanya931151/mental-scope/internal/store"
)

// Responder drives the dialogue engine from a messaging channel. It keeps one
// session state per sender, runs each inbound message through the engine, and
// sends the reply back over the same channel.
type Responder struct {
	engine  *engine.Engine
	service Service
	st      store.Store // optional transcript store

	mu       sync.Mutex
	sessions map[string]models.SessionState
}

// NewResponder builds a responder for the given engine and channel. st may be
// nil when transcript persistence is disabled.
func NewResponder(eng *engine.Engine, service Service, st store.Store) *Responder {
	return &Responder{
		engine:   eng,
		service:  service,
		st:       st,
		sessions: make(map[string]models.SessionState),
	}
}

// Run consumes inbound messages until the context is cancelled or the
// channel's Incoming stream is closed.
func (r *Responder) Run(ctx context.Context) {
	slog.Info("Responder.Run: started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Responder.Run: context cancelled")
			return
		case msg, ok := <-r.service.Incoming():
			if !ok {
				slog.Info("Responder.Run: incoming channel closed")
				return
			}
			r.handleMessage(ctx, msg)
		}
	}
}

func (r *Responder) handleMessage(ctx context.Context, msg models.IncomingMessage) {
	from, err := r.service.ValidateAndCanonicalizeRecipient(msg.From)
	if err != nil {
		slog.Warn("Responder: unusable sender, dropping message", "error", err, "from", msg.From)
		return
	}

	st := r.sessionState(from)
	reply, newState, _ := r.engine.ProcessTurn(ctx, msg.Body, st)
	r.setSessionState(from, newState)

	if r.st != nil {
		turn := models.Turn{
			SessionID: from,
			UserText:  msg.Body,
			Reply:     reply,
			Topic:     newState.Topic,
			Node:      newState.Expecting,
			Time:      time.Now().Unix(),
		}
		if err := r.st.AddTurn(turn); err != nil {
			// Persistence failure must not break the conversation.
			slog.Error("Responder: transcript write failed", "error", err, "session", from)
		}
	}

	if err := r.service.SendMessage(ctx, from, reply); err != nil {
		slog.Error("Responder: reply send failed", "error", err, "to", from)
	}
}

func (r *Responder) sessionState(from string) models.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[from]
}

func (r *Responder) setSessionState(from string, st models.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[from] = st
}
