package http

import (
	"errors"
	"net/http"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/gorilla/mux"
)

// EDLHandler serves the plain-text IP list the firewall polls.
type EDLHandler struct {
	edl *usecase.EDLUseCase
}

// NewEDLHandler creates a new distribution endpoint handler.
func NewEDLHandler(edl *usecase.EDLUseCase) *EDLHandler {
	return &EDLHandler{edl: edl}
}

// RegisterRoutes registers the EDL route. It lives at the root, not under
// the API prefix, because the firewall consumes it directly.
func (h *EDLHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ip.txt", h.ServeList).Methods("GET")
}

// ServeList renders the current block set as text/plain with no-cache
// headers. A configured token must match or the request is rejected with an
// empty body.
func (h *EDLHandler) ServeList(w http.ResponseWriter, r *http.Request) {
	content, err := h.edl.Render(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}
