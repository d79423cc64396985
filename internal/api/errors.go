package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/validate"
)

// writeError renders err as a plain-text response. missingUser is the body
// used when the referenced user does not exist.
func writeError(w http.ResponseWriter, r *http.Request, err error, missingUser string) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeText(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrUsernameTaken):
		writeText(w, http.StatusBadRequest, "Username is taken")
	case errors.Is(err, domain.ErrUserNotFound):
		writeText(w, http.StatusNotFound, missingUser)
	case errors.Is(err, errUnparsableBody):
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected request body")
		writeText(w, http.StatusBadRequest, errUnparsableBody.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
