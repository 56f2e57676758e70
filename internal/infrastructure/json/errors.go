package json

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/haptiq/haptiq-server/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, err error, msg string) {
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func WriteValidationError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, err, err.Error())
}

func WriteBadRequestError(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadRequest, errors.New("bad request"), msg)
}

func WriteInternalError(w http.ResponseWriter, err error) {
	log.Printf("Internal error: %v", err)
	WriteError(w, http.StatusInternalServerError, err, "An unexpected error occurred")
}

// WriteGameError maps domain sentinel errors onto HTTP statuses. Anything
// unrecognized is treated as an internal error.
func WriteGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrPlayerNotFound):
		WriteError(w, http.StatusNotFound, err, err.Error())
	case errors.Is(err, domain.ErrRoomExpired):
		WriteError(w, http.StatusGone, err, err.Error())
	case errors.Is(err, domain.ErrNotHost):
		WriteError(w, http.StatusForbidden, err, err.Error())
	case errors.Is(err, domain.ErrRoomAlreadyExists), errors.Is(err, domain.ErrWrongState):
		WriteError(w, http.StatusConflict, err, err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidVote),
		errors.Is(err, domain.ErrInsufficientPlayers):
		WriteError(w, http.StatusBadRequest, err, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		WriteError(w, http.StatusServiceUnavailable, err, "Storage backend is unavailable")
	default:
		WriteInternalError(w, err)
	}
}

func WriteRateLimitError(w http.ResponseWriter, retryAfter int) {
	resp := ErrorResponse{
		Error:   http.StatusText(http.StatusTooManyRequests),
		Message: "Too many requests. Please try again later.",
	}

	w.Header().Set("Content-Type", "application/json")
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(resp)
}
