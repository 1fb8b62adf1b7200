package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gutenbae/gutenbae-server/internal/http/response"
	"github.com/gutenbae/gutenbae-server/internal/service"
)

// handleListBookReviews returns all reviews for a book, newest first.
// Public; books without reviews return an empty list.
func (s *Server) handleListBookReviews(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil || bookID <= 0 {
		response.BadRequest(w, "Invalid book ID", s.logger)
		return
	}

	reviews, err := s.reviewService.ListForBook(r.Context(), bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"reviews": reviews,
	}, s.logger)
}

// handleSubmitReview creates a review, or updates the caller's existing
// review of the same book. Responds 201 on create, 200 on update; either
// way the body carries the stored review.
func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	caller := getCaller(r.Context())

	var req service.SubmitRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.reviewService.Submit(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if resp.Created {
		response.Created(w, resp.Review, s.logger)
		return
	}
	response.Success(w, resp.Review, s.logger)
}

// handleEditReview updates a review's rating and text. Author only.
func (s *Server) handleEditReview(w http.ResponseWriter, r *http.Request) {
	caller := getCaller(r.Context())
	reviewID := chi.URLParam(r, "id")

	var req service.EditRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	review, err := s.reviewService.Edit(r.Context(), caller, reviewID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, review, s.logger)
}

// handleDeleteReview removes a review. Author only.
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	caller := getCaller(r.Context())
	reviewID := chi.URLParam(r, "id")

	if err := s.reviewService.Remove(r.Context(), caller, reviewID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleListUserReviews returns the reviews authored by a user.
// Callers may only list their own.
func (s *Server) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
	caller := getCaller(r.Context())
	userID := chi.URLParam(r, "userID")

	reviews, err := s.reviewService.ListForUser(r.Context(), caller, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"reviews": reviews,
	}, s.logger)
}
