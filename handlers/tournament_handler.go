package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

type scoreRequest struct {
	Score1 *int `json:"score1"`
	Score2 *int `json:"score2"`
}

// GenerateGroupStageHandler обрабатывает POST /rooms/{roomID}/group-stage
func (h *TournamentHandler) GenerateGroupStageHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.tournamentService.GenerateGroupStage(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetGroupStageHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.tournamentService.GetGroupStage(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.tournamentService.ListMatches(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResultHandler обрабатывает PUT /matches/{matchID}/result
func (h *TournamentHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input scoreRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Score1 == nil || input.Score2 == nil {
		badRequestResponse(w, r, errors.New("score1 and score2 are required"))
		return
	}

	match, err := h.tournamentService.RecordMatchResult(r.Context(), matchID, *input.Score1, *input.Score2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BulkResultsHandler обрабатывает POST /rooms/{roomID}/results. Пакет применяется целиком или не применяется вовсе.
func (h *TournamentHandler) BulkResultsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Results []services.ResultInput `json:"results"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.tournamentService.BulkRecordResults(r.Context(), roomID, input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GridResultsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Cells []services.GridResultInput `json:"cells"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.tournamentService.RecordGridResults(r.Context(), roomID, input.Cells)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// rankingOverride reads the optional ?ranking= query parameter.
func rankingOverride(r *http.Request) *models.RankingMode {
	raw := r.URL.Query().Get("ranking")
	if raw == "" {
		return nil
	}
	mode := models.RankingMode(raw)
	return &mode
}

// GetGroupHandler обрабатывает GET /groups/{groupID}?ranking=
func (h *TournamentHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.tournamentService.GetGroupDetail(r.Context(), groupID, rankingOverride(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetStandingsHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.tournamentService.ComputeStandings(r.Context(), groupID, rankingOverride(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdvanceToFinalsHandler обрабатывает POST /rooms/{roomID}/finals
func (h *TournamentHandler) AdvanceToFinalsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	start, err := h.tournamentService.AdvanceToFinals(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": start}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) AdvanceRoundHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	advance, err := h.tournamentService.AdvanceBracketRound(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"advance": advance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.GetBracket(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetFinalResultHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.GetFinalResult(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetHandler обрабатывает POST /rooms/{roomID}/reset
func (h *TournamentHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.ResetRoom(r.Context(), roomID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) SimulateGroupStageHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.tournamentService.SimulateGroupStage(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) SimulateBracketRoundHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.tournamentService.SimulateBracketRound(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
