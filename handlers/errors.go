package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/pingpong-league/services"
)

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы по их виду.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		notFoundResponse(w, r, err)
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrConflict):
		conflictResponse(w, r, err)
	case errors.Is(err, services.ErrInvalidConfiguration),
		errors.Is(err, services.ErrInsufficientEntrants):
		unprocessableResponse(w, r, err)
	case errors.Is(err, services.ErrValidationFailed):
		badRequestResponse(w, r, err)
	default:
		serverErrorResponse(w, r, err)
	}
}
