package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatline/relay-service/internal/domain"
	"github.com/chatline/relay-service/internal/service"
)

type Handler struct {
	relay *service.RelayService
}

func NewHandler(relay *service.RelayService) *Handler {
	return &Handler{relay: relay}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /rooms/{room}/users
func (h *Handler) GetRoomUsers(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")

	data, err := h.relay.Roster(room)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "room is required"})
			return
		}
		slog.Error("handler.GetRoomUsers:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := RosterResponse{Room: data.Room, Users: make([]RosterUser, 0, len(data.Users))}
	for _, u := range data.Users {
		resp.Users = append(resp.Users, RosterUser{Username: u.Username, Room: u.Room})
	}

	writeJSON(w, http.StatusOK, resp)
}
