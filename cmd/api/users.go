package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"addressme/verification"
)

// handleRegister records the token's subject as a new user. Verifiers wait for
// approval before they hold their role.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.FullName) == "" || body.Role == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "fullName and role are required"})
		return
	}

	userID, _ := actorFromContext(r.Context())
	user, err := s.users.Register(r.Context(), userID, body.FullName, verification.Role(body.Role))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := actorFromContext(r.Context())
	user, err := s.users.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	userID, _ := actorFromContext(r.Context())
	user, err := s.users.Approve(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
