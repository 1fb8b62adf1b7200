package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gutenbae/gutenbae-server/internal/http/response"
	"github.com/gutenbae/gutenbae-server/internal/service"
)

// handleChangePassword rotates the caller's password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	caller := getCaller(r.Context())
	userID := chi.URLParam(r, "userID")

	var req service.ChangePasswordRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.authService.ChangePassword(r.Context(), caller, userID, req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{
		"message": "password updated",
	}, s.logger)
}

// handleDeleteAccount removes the caller's account and all their reviews.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller := getCaller(r.Context())
	userID := chi.URLParam(r, "userID")

	if err := s.userService.DeleteAccount(r.Context(), caller, userID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
