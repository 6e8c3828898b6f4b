package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tourneyhub/tourney-client/infrastructure/http/middleware"
	"github.com/tourneyhub/tourney-client/infrastructure/http/response"
)

// Record is an opaque tournament or player document.
type Record map[string]interface{}

// TournamentBackend stores tournaments and exposes players to admins.
type TournamentBackend interface {
	ListTournaments(ctx context.Context) ([]Record, error)
	GetTournament(ctx context.Context, id string) (Record, error)
	CreateTournament(ctx context.Context, data Record) (Record, error)
	UpdateTournament(ctx context.Context, id string, data Record) (Record, error)
	DeleteTournament(ctx context.Context, id string) error
	EndTournament(ctx context.Context, id string) error
	ListPlayers(ctx context.Context) ([]Record, error)
	GetPlayer(ctx context.Context, id string) (Record, error)
}

type TournamentHandler struct {
	backend TournamentBackend
}

func NewTournamentHandler(backend TournamentBackend) *TournamentHandler {
	return &TournamentHandler{
		backend: backend,
	}
}

// RegisterRoutes mounts the public listing, the authenticated writes and
// the admin surface.
func (h *TournamentHandler) RegisterRoutes(r *mux.Router, auth *middleware.AuthMiddleware) {
	r.HandleFunc("/tournaments", h.ListTournaments).Methods(http.MethodGet)
	r.HandleFunc("/tournaments/{id}", h.GetTournament).Methods(http.MethodGet)
	r.Handle("/tournaments", auth.RequireAuth(http.HandlerFunc(h.CreateTournament))).Methods(http.MethodPost)
	r.Handle("/tournaments/{id}", auth.RequireAuth(http.HandlerFunc(h.UpdateTournament))).Methods(http.MethodPut)
	r.Handle("/tournaments/{id}", auth.RequireAuth(http.HandlerFunc(h.DeleteTournament))).Methods(http.MethodDelete)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireAdmin)
	admin.HandleFunc("/tournaments", h.ListTournaments).Methods(http.MethodGet)
	admin.HandleFunc("/tournaments", h.CreateTournament).Methods(http.MethodPost)
	admin.HandleFunc("/tournaments/end/{id}", h.EndTournament).Methods(http.MethodDelete)
	admin.HandleFunc("/tournaments/{id}", h.GetTournament).Methods(http.MethodGet)
	admin.HandleFunc("/tournaments/{id}", h.UpdateTournament).Methods(http.MethodPut)
	admin.HandleFunc("/tournaments/{id}", h.DeleteTournament).Methods(http.MethodDelete)
	admin.HandleFunc("/players/", h.ListPlayers).Methods(http.MethodGet)
	admin.HandleFunc("/players/{id}", h.GetPlayer).Methods(http.MethodGet)
}

func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	items, err := h.backend.ListTournaments(r.Context())
	if err != nil {
		response.InternalServerError(w, "Internal server error")
		return
	}
	response.Success(w, http.StatusOK, items)
}

func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	item, err := h.backend.GetTournament(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeLookupError(w, err, "Tournament not found")
		return
	}
	response.Success(w, http.StatusOK, item)
}

func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var data Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if name, _ := data["name"].(string); name == "" {
		response.UnprocessableEntity(w, "Field required: name")
		return
	}

	item, err := h.backend.CreateTournament(r.Context(), data)
	if err != nil {
		response.InternalServerError(w, "Internal server error")
		return
	}
	response.Success(w, http.StatusCreated, item)
}

func (h *TournamentHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	var data Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	item, err := h.backend.UpdateTournament(r.Context(), mux.Vars(r)["id"], data)
	if err != nil {
		writeLookupError(w, err, "Tournament not found")
		return
	}
	response.Success(w, http.StatusOK, item)
}

func (h *TournamentHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteTournament(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeLookupError(w, err, "Tournament not found")
		return
	}
	response.NoContent(w)
}

func (h *TournamentHandler) EndTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.EndTournament(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeLookupError(w, err, "Tournament not found")
		return
	}
	response.NoContent(w)
}

func (h *TournamentHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	items, err := h.backend.ListPlayers(r.Context())
	if err != nil {
		response.InternalServerError(w, "Internal server error")
		return
	}
	response.Success(w, http.StatusOK, items)
}

func (h *TournamentHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	item, err := h.backend.GetPlayer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeLookupError(w, err, "Player not found")
		return
	}
	response.Success(w, http.StatusOK, item)
}

func writeLookupError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, notFound)
		return
	}
	response.InternalServerError(w, "Internal server error")
}
