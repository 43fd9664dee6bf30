package http

import (
	"net/http"

	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/gorilla/mux"
)

// AuditHandler handles HTTP requests for the audit log.
type AuditHandler struct {
	entries *usecase.EntryUseCase
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(entries *usecase.EntryUseCase) *AuditHandler {
	return &AuditHandler{entries: entries}
}

// RegisterRoutes registers audit routes.
func (h *AuditHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/audit", h.ListAudit).Methods("GET")
}

// ListAudit returns audit records newest first, optionally filtered by
// ?entry_id=.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	records, err := h.entries.ListAudit(r.Context(), r.URL.Query().Get("entry_id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Audit log retrieved", records)
}
