package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blockwatch/blockwatch/internal/domain"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, statusCode int, status bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Envelope{Status: status, Message: message, Data: data})
}

func respondSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, true, message, data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, false, message, nil)
}

// respondDomainError maps lifecycle errors onto HTTP status codes: validation
// 400, unknown id 404, token mismatch 401, double remove 409, firewall
// failure 502, everything else 500.
func respondDomainError(w http.ResponseWriter, err error) {
	var syncErr *domain.SyncError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEntryNotFound):
		respondError(w, http.StatusNotFound, "Entry not found")
	case errors.Is(err, domain.ErrAlreadyRemoved):
		respondError(w, http.StatusConflict, "Entry already removed")
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &syncErr):
		respondError(w, http.StatusBadGateway, syncErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
