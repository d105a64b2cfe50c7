// Package api provides HTTP handlers and the main API server logic for the
// Pandora dialogue engine.
//
// It exposes the turn endpoint consumed by the web frontend, plus topic
// triage, transcript, and health endpoints.
package api

import (
	"log/slog"
	"net/http"

	"github.com/Tanya931151/mental-scope/internal/engine"
	"github.com/Tanya931151/mental-scope/internal/store"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr     string
	Webhooks map[string]http.HandlerFunc
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithWebhook mounts an additional handler on the server mux, e.g. the
// Twilio inbound message webhook.
func WithWebhook(pattern string, h http.HandlerFunc) Option {
	return func(o *Opts) {
		if o.Webhooks == nil {
			o.Webhooks = make(map[string]http.HandlerFunc)
		}
		o.Webhooks[pattern] = h
	}
}

// Server serves the Pandora HTTP API.
type Server struct {
	engine   *engine.Engine
	st       store.Store
	addr     string
	webhooks map[string]http.HandlerFunc
}

// NewServer creates an API server around a configured engine. The store
// may be nil, in which case transcripts are not recorded.
func NewServer(eng *engine.Engine, st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("api.NewServer: server configured", "addr", cfg.Addr, "has_store", st != nil, "webhooks", len(cfg.Webhooks))
	return &Server{engine: eng, st: st, addr: cfg.Addr, webhooks: cfg.Webhooks}
}

// Handler returns the server's HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/topic", s.topicHandler)
	mux.HandleFunc("/transcript", s.transcriptHandler)
	mux.HandleFunc("/health", s.healthHandler)
	for pattern, h := range s.webhooks {
		mux.HandleFunc(pattern, h)
	}
	return corsMiddleware(mux)
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	slog.Info("api.Server.Run: Pandora API listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}
