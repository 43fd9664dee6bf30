package http

import (
	"encoding/json"
	"net/http"

	"github.com/blockwatch/blockwatch/internal/service/auth"
	"github.com/gorilla/mux"
)

// AuthHandler issues operator tokens.
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: svc}
}

// RegisterRoutes registers the login route.
func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
}

// Login exchanges the admin password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.auth.Enabled() {
		respondError(w, http.StatusNotFound, "Authentication is not configured")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.auth.Login(req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	respondSuccess(w, http.StatusOK, "Login successful", map[string]string{"token": token})
}
