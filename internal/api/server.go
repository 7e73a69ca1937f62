package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"creditbot/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the keep-alive ping and read-only views of the economy.
type Server struct {
	log     *slog.Logger
	game    *game.Service
	metrics http.Handler
	mux     *chi.Mux
}

// New builds the router. metrics may be nil to leave /metrics unmounted.
func New(logger *slog.Logger, gameSvc *game.Service, metrics http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:     logger,
		game:    gameSvc,
		metrics: metrics,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("I'm alive!"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/market", s.handleMarket)
		r.Get("/boost", s.handleBoost)
		r.Get("/accounts/{id}", s.handleAccount)
		r.Get("/accounts/{id}/inventory", s.handleInventory)
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.game.Leaderboard(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	entries, err := s.game.ListMarket(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []game.MarketEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": entries})
}

func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Boost(r.Context()))
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.game.Account(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.game.Inventory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []game.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
