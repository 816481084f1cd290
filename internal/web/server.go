// Package web provides an HTTP status server for the plantwatch daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sweeney/plantwatch/internal/logic"
	"github.com/sweeney/plantwatch/internal/status"
)

// defaultHistoryLimit is the number of records returned when no limit is given.
const defaultHistoryLimit = 144

// HistorySource returns stored reading records for a channel, oldest first.
type HistorySource interface {
	History(channel, limit int) ([]logic.Record, error)
}

// Options configures the optional routes of a Server.
type Options struct {
	// History serves /api/channels/{id}/history when set.
	History HistorySource
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    HistorySource
	log        *zap.Logger
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, o Options) *Server {
	s := &Server{tracker: tracker, history: o.History, log: o.Logger}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	if s.history != nil {
		r.HandleFunc("/api/channels/{id:[0-9]+}/history", s.handleHistory).Methods(http.MethodGet)
	}
	if o.Metrics != nil {
		r.Handle("/metrics", o.Metrics).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.log.Warn("render status page", zap.Error(err))
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// HistoryJSON is one stored reading.
type HistoryJSON struct {
	Timestamp     string  `json:"timestamp"`
	MoistureHz    float64 `json:"moisture_hz"`
	SaturationPct float64 `json:"saturation_pct"`
	Watered       bool    `json:"watered"`
	LightLux      float64 `json:"light_lux"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "bad channel", http.StatusBadRequest)
		return
	}
	if _, ok := s.tracker.Snapshot().Channel(id); !ok {
		http.NotFound(w, r)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
	}

	recs, err := s.history.History(id, limit)
	if err != nil {
		s.log.Error("read history", zap.Int("channel", id), zap.Error(err))
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	out := make([]HistoryJSON, len(recs))
	for i, rec := range recs {
		out[i] = HistoryJSON{
			Timestamp:     rec.Time.UTC().Format("2006-01-02T15:04:05Z"),
			MoistureHz:    rec.Moisture,
			SaturationPct: rec.SaturationPercent(),
			Watered:       rec.Watered,
			LightLux:      rec.Light,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.log.Warn("write history", zap.Error(err))
	}
}
