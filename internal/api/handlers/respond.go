package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps application error types to HTTP status codes.
// Room conflicts additionally carry the conflicting room ids so clients can
// retry with different rooms.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeInvalidRange:
		respondWithError(w, http.StatusUnprocessableEntity, appErr.Message)
	case apperrors.ErrorTypeRoomUnavailable:
		respondWithJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     appErr.Message,
			"conflicts": appErr.Conflicts,
		})
	case apperrors.ErrorTypeInvalidTransition, apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeTimeout:
		respondWithError(w, http.StatusGatewayTimeout, appErr.Message)
	case apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
