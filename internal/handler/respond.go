package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/propfeed/propfeed/internal/auth"
	"github.com/propfeed/propfeed/internal/repository"
	"github.com/propfeed/propfeed/internal/usecase"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondUsecaseError maps the shared error taxonomy onto HTTP statuses.
// Verify and reset map some of their own cases first and fall back here.
func respondUsecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrDuplicateEmail),
		errors.Is(err, usecase.ErrDuplicateUsername),
		errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrInactiveUser),
		errors.Is(err, usecase.ErrInvalidLink),
		errors.Is(err, usecase.ErrInvalidProperty),
		errors.Is(err, usecase.ErrInvalidReservation),
		errors.Is(err, usecase.ErrInvalidRole),
		errors.Is(err, auth.ErrPasswordWhitespace),
		errors.Is(err, auth.ErrPasswordLength),
		errors.Is(err, auth.ErrPasswordCharset),
		errors.Is(err, auth.ErrPasswordMismatch):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, usecase.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, usecase.ErrPropertyNotFound),
		errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "something went wrong / bad request")
	}
}
