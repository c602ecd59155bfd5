package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/scythe504/wordrace-backend/internal"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(s.corsMiddleware)

	r.HandleFunc("/rooms", s.GetRooms).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", s.Health).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/ws", s.ws)

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Websocket upgrades check origin in the hub.
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	if len(s.allowedOrigins) == 0 || slices.Contains(s.allowedOrigins, "*") {
		return "*"
	}
	if slices.Contains(s.allowedOrigins, origin) {
		return origin
	}
	return ""
}

// GetRooms lists every room with its current occupancy.
func (s *Server) GetRooms(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var (
		resp   internal.Response
		status int
	)
	rooms, err := s.rooms.Rooms(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("[GetRooms] listing failed")
		status = http.StatusInternalServerError
		resp = internal.Response{Success: false, Error: internal.ClientMessage(err)}
	} else {
		status = http.StatusOK
		resp = internal.Response{Success: true, Data: rooms}
	}

	endTime := time.Now().UnixMilli()
	resp.RespStartTime = startTime
	resp.RespEndTime = endTime
	resp.NetRespTime = endTime - startTime

	s.writeJSON(w, status, resp)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("[Health] store ping failed")
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"store":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("[writeJSON] encode failed")
	}
}
