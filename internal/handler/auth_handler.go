package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/propfeed/propfeed/internal/entity"
	"github.com/propfeed/propfeed/internal/middleware"
	"github.com/propfeed/propfeed/internal/usecase"
)

type AuthHandler struct {
	usecase    *usecase.AuthUsecase
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

func NewAuthHandler(uc *usecase.AuthUsecase, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		usecase:    uc,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger.Named("AuthHandler"),
	}
}

type userResponse struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	Role         string    `json:"role"`
	AuthProvider string    `json:"auth_provider"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:           u.ID.Hex(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Username:     u.Username,
		IsVerified:   u.IsVerified,
		IsActive:     u.IsActive,
		IsSuperuser:  u.IsSuperuser,
		Role:         string(u.Role),
		AuthProvider: string(u.AuthProvider),
		Avatar:       u.Avatar,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	user, err := h.usecase.Register(r.Context(), usecase.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"user": toUserResponse(user)})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	redirectURL := r.URL.Query().Get("redirect_url")
	if token == "" || redirectURL == "" {
		respondError(w, http.StatusBadRequest, "token and redirect_url are required")
		return
	}

	if err := h.usecase.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrInvalidLink) || errors.Is(err, usecase.ErrUserNotFound) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondUsecaseError(w, err)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tokens, err := h.usecase.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}

	h.setCookie(w, "access_token", tokens.Access, h.accessTTL)
	h.setCookie(w, "refresh_token", tokens.Refresh, h.refreshTTL)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":  toUserResponse(user),
		"token": tokens.Body,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		respondError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	accessToken, bodyToken, err := h.usecase.RefreshAccessToken(r.Context(), cookie.Value)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}

	h.setCookie(w, "access_token", accessToken, h.accessTTL)
	respondJSON(w, http.StatusOK, map[string]string{"token": bodyToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("refresh_token"); err == nil {
		h.usecase.Logout(r.Context(), cookie.Value)
	}
	h.clearCookie(w, "access_token")
	h.clearCookie(w, "refresh_token")
	respondJSON(w, http.StatusOK, map[string]string{"message": "success"})
}

type recoverRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.usecase.RecoverPassword(r.Context(), strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		respondUsecaseError(w, err)
		return
	}
	// Identical response whether or not the account exists.
	respondJSON(w, http.StatusOK, map[string]string{"message": "password recovery email sent"})
}

type resetRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password != req.PasswordConfirm {
		respondError(w, http.StatusUnauthorized, "passwords do not match")
		return
	}

	if err := h.usecase.ResetPassword(r.Context(), req.Token, req.Password, req.PasswordConfirm); err != nil {
		if errors.Is(err, usecase.ErrInvalidLink) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated successfully"})
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(user)})
}

type profileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := usecase.ProfilePatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.Role != nil {
		role := entity.UserRole(*req.Role)
		patch.Role = &role
	}

	updated, err := h.usecase.UpdateProfile(r.Context(), user, patch)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(updated)})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
