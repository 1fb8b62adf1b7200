package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/gutenbae/gutenbae-server/internal/http/response"
	"github.com/gutenbae/gutenbae-server/internal/service"
)

// handleRegister creates a new account and returns an access token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.authService.Register(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, resp, s.logger)
}

// handleLogin verifies credentials and returns an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.authService.Login(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}

// handleGetCurrentUser returns the profile behind the presented token.
// Doubles as token verification for clients restoring a session.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	caller := getCaller(r.Context())

	user, err := s.authService.GetUser(r.Context(), caller.ID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}
