// Package server exposes the HTTP service surface: run triggers, run
// status, analysis results, portfolio state and store import/export.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"StockSentinel/internal/job"
	"StockSentinel/internal/model"
	"StockSentinel/internal/store"
)

// Server handles the JSON API.
type Server struct {
	Addr       string
	Controller *job.Controller

	TriggerAnalysis  func() error
	TriggerExitCheck func() error

	AnalysisStore  *store.Repository[model.AnalysisReport]
	PositionsStore *store.Repository[[]model.Position]
	HistoryStore   *store.Repository[[]model.TradeRecord]
	WatchlistStore *store.Repository[model.Watchlist]
}

// Routes builds the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/run/status", s.handleRunStatus)
	mux.HandleFunc("/api/exit-check", s.handleExitCheck)
	mux.HandleFunc("/api/analysis", s.handleAnalysis)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)
	mux.HandleFunc("/api/export/positions", s.handleExportPositions)
	mux.HandleFunc("/api/export/history", s.handleExportHistory)
	mux.HandleFunc("/api/import/positions", s.handleImportPositions)
	mux.HandleFunc("/api/import/history", s.handleImportHistory)
	return mux
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe() error {
	log.Printf("[INFO] http server listening on %s", s.Addr)
	return http.ListenAndServe(s.Addr, s.Routes())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleRun starts an analysis run: 202 when accepted, 409 while one is
// already running.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.TriggerAnalysis(); err != nil {
		if errors.Is(err, job.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, s.Controller.Status())
}

func (s *Server) handleExitCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.TriggerExitCheck(); err != nil {
		if errors.Is(err, job.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, s.Controller.Status())
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Controller.Status())
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.AnalysisStore.Load())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	positions := s.PositionsStore.Load()
	if positions == nil {
		positions = make([]model.Position, 0)
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	history := s.HistoryStore.Load()
	if history == nil {
		history = make([]model.TradeRecord, 0)
	}
	writeJSON(w, http.StatusOK, history)
}

// handleWatchlist serves the watchlist on GET and replaces it on POST.
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.WatchlistStore.Load())
	case http.MethodPost:
		var wl model.Watchlist
		if err := json.NewDecoder(r.Body).Decode(&wl); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.WatchlistStore.Save(wl); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, wl)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleExportPositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="positions.json"`)
	writeJSON(w, http.StatusOK, s.PositionsStore.Load())
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="trade_history.json"`)
	writeJSON(w, http.StatusOK, s.HistoryStore.Load())
}

func (s *Server) handleImportPositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var positions []model.Position
	if err := json.NewDecoder(r.Body).Decode(&positions); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	for _, pos := range positions {
		if pos.Symbol == "" {
			http.Error(w, "position with empty symbol", http.StatusBadRequest)
			return
		}
	}
	if err := s.PositionsStore.Save(positions); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] imported %d positions", len(positions))
	writeJSON(w, http.StatusOK, map[string]string{"status": fmt.Sprintf("imported %d positions", len(positions))})
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var history []model.TradeRecord
	if err := json.NewDecoder(r.Body).Decode(&history); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.HistoryStore.Save(history); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] imported %d trade records", len(history))
	writeJSON(w, http.StatusOK, map[string]string{"status": fmt.Sprintf("imported %d trade records", len(history))})
}
