package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/edumint/edumint/internal/content"
	"github.com/edumint/edumint/internal/extract"
	"github.com/edumint/edumint/internal/learner"
	"github.com/edumint/edumint/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps domain errors onto HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound), errors.Is(err, quiz.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, content.ErrForbidden), errors.Is(err, quiz.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, quiz.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, learner.ErrAlreadySolved):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, quiz.ErrNoSummary):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, content.ErrContentRejected), errors.Is(err, extract.ErrExtractionFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, quiz.ErrMalformedQuiz):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
