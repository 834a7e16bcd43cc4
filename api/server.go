package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log15 "github.com/inconshreveable/log15"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/logging"
	"github.com/wricardo/mcp-training/gameoflife/transport/websocket"
)

// maxBodyBytes bounds request bodies; a 100x100 grid is well under it.
const maxBodyBytes = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.BoardService
	hub     *websocket.Hub
	router  *mux.Router
	log     log15.Logger
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503.
func NewServer(boardService service.BoardService, hub *websocket.Hub, logger log15.Logger) *Server {
	s := &Server{
		service: boardService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     logging.OrDiscard(logger).New("component", "api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	// Boards
	api.HandleFunc("/boards", s.handleCreateBoard).Methods("POST")
	api.HandleFunc("/boards", s.handleListBoards).Methods("GET")
	api.HandleFunc("/boards/{id}", s.handleGetBoard).Methods("GET")

	// Simulation
	api.HandleFunc("/boards/{id}/next", s.handleNextGeneration).Methods("GET")
	api.HandleFunc("/boards/{id}/start", s.handleStart).Methods("POST")
	api.HandleFunc("/boards/{id}/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/boards/{id}/advance/{steps:-?[0-9]+}", s.handleAdvance).Methods("POST")

	// Patterns
	api.HandleFunc("/patterns", s.handleListPatterns).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/health/live", s.handleLive).Methods("GET")
	s.router.HandleFunc("/health/ready", s.handleReady).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Envelope is the body of every API response. Exactly one of Data and
// Errors is set.
type Envelope struct {
	Data   any      `json:"data,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// CreateBoardResponse is returned by POST /api/boards
type CreateBoardResponse struct {
	BoardID string             `json:"board_id"`
	Board   *service.BoardInfo `json:"board"`
}

// BoardStateResponse acknowledges Start and Stop
type BoardStateResponse struct {
	BoardID   string `json:"board_id"`
	IsRunning bool   `json:"is_running"`
}

// AdvanceResponse acknowledges a queued advance
type AdvanceResponse struct {
	BoardID string `json:"board_id"`
	Steps   int    `json:"steps"`
	Status  string `json:"status"`
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Data: data})
}

func respondError(w http.ResponseWriter, status int, messages ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Errors: messages})
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrBoardNotFound):
		return http.StatusNotFound
	case service.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	switch {
	case errors.Is(err, engine.ErrMalformedState):
		s.log.Crit("corrupt board state", "path", r.URL.Path, "err", err)
	case status >= 500:
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	respondError(w, status, err.Error())
}

// Board Handlers

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBoardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	board, err := s.service.CreateBoard(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateBoardResponse{BoardID: board.ID, Board: board})
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, boards)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.service.GetBoard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

func (s *Server) handleNextGeneration(w http.ResponseWriter, r *http.Request) {
	board, err := s.service.NextGeneration(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	if err := s.service.Start(r.Context(), boardID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, BoardStateResponse{BoardID: boardID, IsRunning: true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	if err := s.service.Stop(r.Context(), boardID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, BoardStateResponse{BoardID: boardID, IsRunning: false})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	boardID := vars["id"]

	steps, err := strconv.Atoi(vars["steps"])
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("%v: %q", service.ErrInvalidSteps, vars["steps"]))
		return
	}

	if err := s.service.Advance(r.Context(), boardID, steps); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, AdvanceResponse{BoardID: boardID, Steps: steps, Status: "queued"})
}

// Pattern Handlers

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.service.ListPatterns(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, patterns)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket notifications are disabled")
		return
	}

	boardID := r.URL.Query().Get("board")
	if boardID != "" {
		if _, err := s.service.GetBoard(r.Context(), boardID); err != nil {
			s.respondServiceError(w, r, err)
			return
		}
	}

	s.hub.ServeWS(w, r, boardID)
}

// Health checks

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		s.log.Warn("readiness check failed", "err", err)
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"details": status,
	})
}

// Middleware

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "elapsed", time.Since(start))
	})
}
