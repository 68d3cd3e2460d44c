package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/portside/battleship/internal/middleware"
	"github.com/portside/battleship/internal/services/lobby"
)

// newAdminRouter exposes read-only operational state over HTTP
func newAdminRouter(registry *Registry, lb *lobby.Lobby, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/sessions", handleSessions(registry)).Methods(http.MethodGet)
	r.HandleFunc("/lobby", handleLobby(lb)).Methods(http.MethodGet)
	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleSessions(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sessions := registry.Sessions()
		views := make([]any, 0, len(sessions))
		for _, sess := range sessions {
			views = append(views, sess.View())
		}
		writeJSON(w, views)
	}
}

func handleLobby(lb *lobby.Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"waiting": lb.Waiting()})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
