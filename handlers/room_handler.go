package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
	"github.com/Dosada05/pingpong-league/services"
)

const defaultListLimit = 50

type RoomHandler struct {
	roomService services.RoomService
}

func NewRoomHandler(rs services.RoomService) *RoomHandler {
	return &RoomHandler{roomService: rs}
}

// CreateHandler обрабатывает POST /rooms
func (h *RoomHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateRoomInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.roomService.CreateRoom(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /rooms/{roomID}
func (h *RoomHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.roomService.GetRoom(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /rooms?status=&limit=&offset=
func (h *RoomHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListRoomsFilter{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.RoomStatus(raw)
		switch status {
		case models.RoomStatusOpen, models.RoomStatusInProgress, models.RoomStatusCompleted:
			filter.Status = &status
		default:
			badRequestResponse(w, r, errors.New("invalid status filter"))
			return
		}
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit", defaultListLimit); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rooms, err := h.roomService.ListRooms(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rooms": rooms}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PATCH /rooms/{roomID}
func (h *RoomHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateRoomInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.roomService.UpdateRoom(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /rooms/{roomID}
func (h *RoomHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.roomService.DeleteRoom(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomHandler) AddParticipantHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AddParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.roomService.AddParticipant(r.Context(), roomID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type bulkParticipantsRequest struct {
	Names []string `json:"names"`
}

// BulkAddParticipantsHandler обрабатывает POST /rooms/{roomID}/participants/bulk
func (h *RoomHandler) BulkAddParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input bulkParticipantsRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.roomService.AddParticipantsBulk(r.Context(), roomID, input.Names)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"added": result.Added, "failed": result.Failed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoomHandler) ClearParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	removed, err := h.roomService.ClearParticipants(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"removed": removed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoomHandler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.roomService.ListParticipants(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoomHandler) RemoveParticipantHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.roomService.RemoveParticipant(r.Context(), roomID, participantID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomHandler) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.roomService.ListTeams(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SaveTeamsHandler обрабатывает PUT /rooms/{roomID}/teams и заменяет все команды комнаты.
func (h *RoomHandler) SaveTeamsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Teams []services.TeamInput `json:"teams"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.roomService.SaveTeams(r.Context(), roomID, input.Teams)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoomHandler) AutoAssignTeamsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.roomService.AutoAssignTeams(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
