// Package server exposes bindings, the event log and the live overlay over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/scrolly/internal/app"
	"github.com/ayusman/scrolly/internal/plugin"
	"github.com/ayusman/scrolly/internal/server/api"
	"github.com/ayusman/scrolly/internal/store"
)

// Pipeline is the part of the frame loop the server talks to.
type Pipeline interface {
	Subscribe() (<-chan app.Preview, func())
	Stats() app.Stats
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Plugins is the plugin registry the server reads from.
type Plugins interface {
	Get(name string) (*plugin.Plugin, error)
	List() []*plugin.Plugin
	Discover() error
}

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Plugins   Plugins
	Pipeline  Pipeline
	Logger    *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	config     Config
	logger     *slog.Logger
	mux        *http.ServeMux
	start      time.Time
	hub        *Hub
	httpServer *http.Server

	cancelForward func()
	forwardDone   chan struct{}
}

// New creates a Server. When a pipeline is configured, frame triggers are
// forwarded to /api/signals clients until Close.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		hub:    NewHub(logger),
	}
	s.setupRoutes()

	if config.Pipeline != nil {
		previews, cancel := config.Pipeline.Subscribe()
		s.cancelForward = cancel
		s.forwardDone = make(chan struct{})
		go s.forwardTriggers(previews)
	}
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/signals", s.hub)

	if s.config.Store != nil {
		var lookup api.PluginLookup
		if s.config.Plugins != nil {
			lookup = s.config.Plugins
		}
		bindings := api.NewBindingHandler(s.config.Store, lookup)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
		s.mux.Handle("/api/events", api.NewEventHandler(s.config.Store))
		s.mux.HandleFunc("/api/stats", s.handleStats)
	}

	if s.config.Plugins != nil {
		plugins := api.NewPluginHandler(s.config.Plugins)
		s.mux.Handle("/api/plugins", plugins)
		s.mux.Handle("/api/plugins/", plugins)
	}

	if s.config.Pipeline != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Pipeline))
		s.mux.HandleFunc("/api/detection", s.handleDetection)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// Hub returns the /api/signals broadcaster.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type statsResponse struct {
	Signals  map[string]int `json:"signals"`
	Pipeline *app.Stats     `json:"pipeline,omitempty"`
	Enabled  bool           `json:"enabled"`
	Clients  int            `json:"clients"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := s.config.Store.Events().CountBySignal()
	if err != nil {
		s.logger.Error("counting events", "error", err)
		http.Error(w, "Failed to count events", http.StatusInternalServerError)
		return
	}

	resp := statsResponse{Signals: counts, Clients: s.hub.Clients()}
	if s.config.Pipeline != nil {
		stats := s.config.Pipeline.Stats()
		resp.Pipeline = &stats
		resp.Enabled = s.config.Pipeline.IsEnabled()
	}
	writeJSON(w, http.StatusOK, resp)
}

type detectionRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleDetection reports (GET) or switches (PUT) detection.
func (s *Server) handleDetection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req detectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			http.Error(w, "Body must be {\"enabled\": bool}", http.StatusBadRequest)
			return
		}
		s.config.Pipeline.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.Pipeline.IsEnabled()})
}

// forwardTriggers broadcasts the triggers of every preview.
func (s *Server) forwardTriggers(previews <-chan app.Preview) {
	defer close(s.forwardDone)
	for p := range previews {
		for _, t := range p.Triggers {
			s.hub.Broadcast(TriggerMessage(t, p.At))
		}
	}
}

// ListenAndServe serves on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and closes websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close stops forwarding previews and disconnects websocket clients.
func (s *Server) Close() {
	if s.cancelForward != nil {
		s.cancelForward()
		<-s.forwardDone
		s.cancelForward = nil
	}
	s.hub.Close()
}
