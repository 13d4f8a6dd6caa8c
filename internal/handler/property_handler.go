package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/propfeed/propfeed/internal/entity"
	"github.com/propfeed/propfeed/internal/middleware"
	"github.com/propfeed/propfeed/internal/usecase"
)

type PropertyHandler struct {
	usecase *usecase.PropertyUsecase
	logger  *zap.Logger
}

func NewPropertyHandler(uc *usecase.PropertyUsecase, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		usecase: uc,
		logger:  logger.Named("PropertyHandler"),
	}
}

type addressPayload struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

type mediaPayload struct {
	IsFeature bool   `json:"is_feature"`
	ImageURL  string `json:"image_url"`
}

type propertyResponse struct {
	ID           string         `json:"id"`
	Owner        ownerResponse  `json:"owner"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Description  string         `json:"description"`
	IsActive     bool           `json:"is_active"`
	Price        float64        `json:"price"`
	PropertyType string         `json:"property_type"`
	Address      addressPayload `json:"address"`
	Media        []mediaPayload `json:"media"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ownerResponse struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type reservationResponse struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	DateStart  time.Time `json:"date_start"`
	DateEnd    time.Time `json:"date_end"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toPropertyResponse(p *entity.Property) propertyResponse {
	media := make([]mediaPayload, 0, len(p.Media))
	for _, row := range p.Media {
		media = append(media, mediaPayload{IsFeature: row.IsFeature, ImageURL: row.ImageURL})
	}
	return propertyResponse{
		ID: p.ID.Hex(),
		Owner: ownerResponse{
			Email:     p.Owner.Email,
			Username:  p.Owner.Username,
			FirstName: p.Owner.FirstName,
			LastName:  p.Owner.LastName,
		},
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		IsActive:     p.IsActive,
		Price:        p.Price,
		PropertyType: string(p.PropertyType),
		Address:      addressPayload{Street: p.Address.Street, City: p.Address.City},
		Media:        media,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toPropertyResponses(properties []*entity.Property) []propertyResponse {
	out := make([]propertyResponse, 0, len(properties))
	for _, p := range properties {
		out = append(out, toPropertyResponse(p))
	}
	return out
}

func toReservationResponse(r *entity.Reservation) reservationResponse {
	return reservationResponse{
		ID:         r.ID.Hex(),
		PropertyID: r.PropertyID.Hex(),
		DateStart:  r.DateStart,
		DateEnd:    r.DateEnd,
		Body:       r.Body,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toReservationResponses(reservations []*entity.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationResponse(r))
	}
	return out
}

func feedFilter(r *http.Request) entity.PropertyFilter {
	query := r.URL.Query()
	limit, _ := strconv.ParseInt(query.Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(query.Get("offset"), 10, 64)
	return entity.PropertyFilter{
		Type:   entity.PropertyType(query.Get("type")),
		Owner:  query.Get("owner"),
		Limit:  limit,
		Offset: offset,
	}
}

// Feed is the public listing feed.
func (h *PropertyHandler) Feed(w http.ResponseWriter, r *http.Request) {
	properties, err := h.usecase.Feed(r.Context(), feedFilter(r))
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"properties":       toPropertyResponses(properties),
		"properties_count": len(properties),
	})
}

// FeedProperty returns a single public listing with its reservations.
func (h *PropertyHandler) FeedProperty(w http.ResponseWriter, r *http.Request) {
	propertySlug := chi.URLParam(r, "slug")
	property, reservations, err := h.usecase.GetBySlug(r.Context(), propertySlug)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"property":     toPropertyResponse(property),
		"reservations": toReservationResponses(reservations),
	})
}

type createPropertyRequest struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Price        float64        `json:"price"`
	PropertyType string         `json:"property_type"`
	Address      addressPayload `json:"address"`
	Media        []mediaPayload `json:"media"`
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req createPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	media := make([]entity.Media, 0, len(req.Media))
	for _, row := range req.Media {
		media = append(media, entity.Media{IsFeature: row.IsFeature, ImageURL: row.ImageURL})
	}

	property, err := h.usecase.Create(r.Context(), user, usecase.CreatePropertyInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		PropertyType: entity.PropertyType(req.PropertyType),
		Address:      entity.Address{Street: req.Address.Street, City: req.Address.City},
		Media:        media,
	})
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"property": toPropertyResponse(property)})
}

// ListOwn returns the caller's own listings.
func (h *PropertyHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	properties, err := h.usecase.ListOwn(r.Context(), user, feedFilter(r))
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"properties":       toPropertyResponses(properties),
		"properties_count": len(properties),
	})
}

// GetOwn returns one of the caller's listings with reservations.
func (h *PropertyHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	property, reservations, err := h.usecase.Get(r.Context(), user, chi.URLParam(r, "slug"))
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"property":     toPropertyResponse(property),
		"reservations": toReservationResponses(reservations),
	})
}

type updatePropertyRequest struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Price        *float64        `json:"price"`
	IsActive     *bool           `json:"is_active"`
	PropertyType *string         `json:"property_type"`
	Address      *addressPayload `json:"address"`
	Media        []mediaPayload  `json:"media"`
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req updatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := usecase.PropertyPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
	}
	if req.PropertyType != nil {
		propertyType := entity.PropertyType(*req.PropertyType)
		patch.PropertyType = &propertyType
	}
	if req.Address != nil {
		patch.Address = &entity.Address{Street: req.Address.Street, City: req.Address.City}
	}
	if req.Media != nil {
		media := make([]entity.Media, 0, len(req.Media))
		for _, row := range req.Media {
			media = append(media, entity.Media{IsFeature: row.IsFeature, ImageURL: row.ImageURL})
		}
		patch.Media = media
	}

	property, err := h.usecase.Update(r.Context(), user, chi.URLParam(r, "slug"), patch)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"property": toPropertyResponse(property)})
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := h.usecase.Delete(r.Context(), user, chi.URLParam(r, "slug")); err != nil {
		respondUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createReservationRequest struct {
	DateStart *time.Time `json:"date_start"`
	DateEnd   *time.Time `json:"date_end"`
	Body      string     `json:"body"`
}

func (h *PropertyHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := usecase.ReservationInput{Body: req.Body}
	if req.DateStart != nil {
		input.DateStart = *req.DateStart
	}
	if req.DateEnd != nil {
		input.DateEnd = *req.DateEnd
	}

	reservation, err := h.usecase.CreateReservation(r.Context(), user, chi.URLParam(r, "slug"), input)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"reservation": toReservationResponse(reservation)})
}

func (h *PropertyHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	reservations, err := h.usecase.ListReservations(r.Context(), user, chi.URLParam(r, "slug"))
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reservations":       toReservationResponses(reservations),
		"reservations_count": len(reservations),
	})
}

type updateReservationRequest struct {
	ID        string     `json:"id"`
	DateStart *time.Time `json:"date_start"`
	DateEnd   *time.Time `json:"date_end"`
	Body      *string    `json:"body"`
}

func (h *PropertyHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		respondError(w, http.StatusBadRequest, "reservation id is required")
		return
	}

	reservation, err := h.usecase.UpdateReservation(r.Context(), user, chi.URLParam(r, "slug"), req.ID, usecase.ReservationPatch{
		DateStart: req.DateStart,
		DateEnd:   req.DateEnd,
		Body:      req.Body,
	})
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reservation": toReservationResponse(reservation)})
}
