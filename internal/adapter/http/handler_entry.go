package http

import (
	"encoding/json"
	"net/http"

	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/gorilla/mux"
)

// EntryHandler handles HTTP requests for blocking entries.
type EntryHandler struct {
	entries *usecase.EntryUseCase
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(entries *usecase.EntryUseCase) *EntryHandler {
	return &EntryHandler{entries: entries}
}

// RegisterRoutes registers entry routes.
func (h *EntryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/entries", h.ListEntries).Methods("GET")
	router.HandleFunc("/entries", h.CreateEntry).Methods("POST")
	router.HandleFunc("/entries/{id}", h.GetEntry).Methods("GET")
	router.HandleFunc("/entries/{id}", h.DeleteEntry).Methods("DELETE")
	router.HandleFunc("/entries/{id}", h.PatchEntry).Methods("PATCH")
}

// ListEntries returns the full entry set, no filtering.
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Entries retrieved", entries)
}

// CreateEntry runs the CREATE pipeline. A failed first sync is not a request
// failure: the returned entry carries FAILED/ERROR and the caller inspects
// its status.
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Actor = actorFrom(r)

	entry, err := h.entries.Create(r.Context(), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "Entry created", entry)
}

// GetEntry returns a single entry.
func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entries.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Entry retrieved", entry)
}

// DeleteEntry runs the REMOVE transition. A firewall failure leaves the
// entry unchanged and is reported as a request error.
func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.entries.Remove(r.Context(), id, actorFrom(r)); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Entry removed", nil)
}

type patchEntryRequest struct {
	Action  string  `json:"action,omitempty"`
	Months  int     `json:"months,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// PatchEntry dispatches {action: "extend"|"resync"} to the corresponding
// lifecycle transition, or applies a plain field patch when no action is
// given.
func (h *EntryHandler) PatchEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req patchEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	actor := actorFrom(r)

	switch req.Action {
	case "extend":
		entry, err := h.entries.Extend(r.Context(), id, req.Months, actor)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Entry extended", entry)
	case "resync":
		entry, err := h.entries.Resync(r.Context(), id, actor)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Entry resynced", entry)
	case "":
		entry, err := h.entries.Patch(r.Context(), id, usecase.PatchRequest{Comment: req.Comment})
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Entry updated", entry)
	default:
		respondError(w, http.StatusBadRequest, "Unknown action: "+req.Action)
	}
}
