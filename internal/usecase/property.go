package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	natsadapter "github.com/propfeed/propfeed/internal/adapter/messaging/nats"
	"github.com/propfeed/propfeed/internal/entity"
	"github.com/propfeed/propfeed/internal/platform/random"
	"github.com/propfeed/propfeed/internal/repository"
)

const (
	slugSuffixLength = 10
	defaultFeedLimit = 20
)

type PropertyStore interface {
	Create(ctx context.Context, property *entity.Property) (primitive.ObjectID, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Property, error)
	Feed(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, error)
	UpdateBySlug(ctx context.Context, slug string, property *entity.Property) error
	DeleteBySlug(ctx context.Context, slug, ownerEmail string) error
}

type ReservationStore interface {
	Create(ctx context.Context, reservation *entity.Reservation) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*entity.Reservation, error)
	FindByProperty(ctx context.Context, propertyID primitive.ObjectID) ([]*entity.Reservation, error)
	Update(ctx context.Context, reservation *entity.Reservation) error
	DeleteByProperty(ctx context.Context, propertyID primitive.ObjectID) error
}

type StaffStore interface {
	IsAssigned(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error)
}

// PropertyCacheStore is the optional Redis read-through cache for
// slug lookups. A nil cache disables caching.
type PropertyCacheStore interface {
	GetProperty(ctx context.Context, slug string) (*entity.Property, error)
	SetProperty(ctx context.Context, property *entity.Property) error
	DeleteProperty(ctx context.Context, slug string) error
}

// EventPublisher is the optional NATS publisher for property lifecycle
// events. A nil publisher disables eventing.
type EventPublisher interface {
	PublishPropertyEvent(eventType, slug string) error
}

type CreatePropertyInput struct {
	Title        string
	Description  string
	Price        float64
	PropertyType entity.PropertyType
	Address      entity.Address
	Media        []entity.Media
}

type PropertyPatch struct {
	Title        *string
	Description  *string
	Price        *float64
	IsActive     *bool
	PropertyType *entity.PropertyType
	Address      *entity.Address
	Media        []entity.Media
}

type ReservationInput struct {
	DateStart time.Time
	DateEnd   time.Time
	Body      string
}

type ReservationPatch struct {
	DateStart *time.Time
	DateEnd   *time.Time
	Body      *string
}

type PropertyUsecase struct {
	properties   PropertyStore
	reservations ReservationStore
	staff        StaffStore
	cache        PropertyCacheStore
	events       EventPublisher
	logger       *zap.Logger
}

func NewPropertyUsecase(
	properties PropertyStore,
	reservations ReservationStore,
	staff StaffStore,
	cache PropertyCacheStore,
	events EventPublisher,
	logger *zap.Logger,
) *PropertyUsecase {
	return &PropertyUsecase{
		properties:   properties,
		reservations: reservations,
		staff:        staff,
		cache:        cache,
		events:       events,
		logger:       logger.Named("PropertyUsecase"),
	}
}

// Feed lists properties for the public feed.
func (uc *PropertyUsecase) Feed(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultFeedLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown property type %q", ErrInvalidProperty, filter.Type)
	}
	return uc.properties.Feed(ctx, filter)
}

// GetBySlug returns a property with its reservations. Reads go through the
// cache when one is configured.
func (uc *PropertyUsecase) GetBySlug(ctx context.Context, propertySlug string) (*entity.Property, []*entity.Reservation, error) {
	property, err := uc.findBySlug(ctx, propertySlug)
	if err != nil {
		return nil, nil, err
	}
	reservations, err := uc.reservations.FindByProperty(ctx, property.ID)
	if err != nil {
		return nil, nil, err
	}
	return property, reservations, nil
}

// ListOwn returns the authenticated user's own listings.
func (uc *PropertyUsecase) ListOwn(ctx context.Context, user *entity.User, filter entity.PropertyFilter) ([]*entity.Property, error) {
	if err := requireListerRole(user); err != nil {
		return nil, err
	}
	filter.Owner = user.Username
	return uc.Feed(ctx, filter)
}

// Create inserts a new listing owned by user. Slugs derive from the title;
// a collision gets a random suffix, retried once under the unique index.
func (uc *PropertyUsecase) Create(ctx context.Context, user *entity.User, input CreatePropertyInput) (*entity.Property, error) {
	if err := requireListerRole(user); err != nil {
		return nil, err
	}
	if !user.IsActive || !user.IsVerified {
		return nil, ErrForbidden
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidProperty)
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidProperty)
	}
	if !input.PropertyType.Valid() {
		return nil, fmt.Errorf("%w: unknown property type %q", ErrInvalidProperty, input.PropertyType)
	}

	property := &entity.Property{
		Owner: entity.Owner{
			Email:     user.Email,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
		Title:        input.Title,
		Slug:         uc.uniqueSlug(ctx, input.Title, primitive.NilObjectID),
		Description:  input.Description,
		IsActive:     true,
		Price:        input.Price,
		PropertyType: input.PropertyType,
		Address:      input.Address,
		Media:        input.Media,
	}

	id, err := uc.properties.Create(ctx, property)
	if errors.Is(err, repository.ErrDuplicateSlug) {
		// Lost the race on the unique index; retry once with a fresh suffix.
		property.Slug = suffixedSlug(property.Slug)
		id, err = uc.properties.Create(ctx, property)
	}
	if err != nil {
		return nil, err
	}
	property.ID = id

	uc.publish(natsadapter.EventPropertyCreated, property.Slug)
	return property, nil
}

// Get returns a property for its owner (or assigned staff), reservations
// included.
func (uc *PropertyUsecase) Get(ctx context.Context, user *entity.User, propertySlug string) (*entity.Property, []*entity.Reservation, error) {
	property, err := uc.authorize(ctx, user, propertySlug)
	if err != nil {
		return nil, nil, err
	}
	reservations, err := uc.reservations.FindByProperty(ctx, property.ID)
	if err != nil {
		return nil, nil, err
	}
	return property, reservations, nil
}

// Update patches a listing. A title change regenerates the slug with the
// same collision policy as Create.
func (uc *PropertyUsecase) Update(ctx context.Context, user *entity.User, propertySlug string, patch PropertyPatch) (*entity.Property, error) {
	property, err := uc.authorize(ctx, user, propertySlug)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil && *patch.Title != property.Title {
		property.Title = *patch.Title
		property.Slug = uc.uniqueSlug(ctx, *patch.Title, property.ID)
	}
	if patch.Description != nil {
		property.Description = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be positive", ErrInvalidProperty)
		}
		property.Price = *patch.Price
	}
	if patch.IsActive != nil {
		property.IsActive = *patch.IsActive
	}
	if patch.PropertyType != nil {
		if !patch.PropertyType.Valid() {
			return nil, fmt.Errorf("%w: unknown property type %q", ErrInvalidProperty, *patch.PropertyType)
		}
		property.PropertyType = *patch.PropertyType
	}
	if patch.Address != nil {
		property.Address = *patch.Address
	}
	if patch.Media != nil {
		property.Media = patch.Media
	}

	err = uc.properties.UpdateBySlug(ctx, propertySlug, property)
	if errors.Is(err, repository.ErrDuplicateSlug) {
		// Lost the race on the unique index; retry once with a fresh suffix.
		property.Slug = suffixedSlug(property.Slug)
		err = uc.properties.UpdateBySlug(ctx, propertySlug, property)
	}
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, propertySlug)
	if property.Slug != propertySlug {
		uc.invalidate(ctx, property.Slug)
	}
	uc.publish(natsadapter.EventPropertyUpdated, property.Slug)
	return property, nil
}

// Delete removes a listing and all of its reservations.
func (uc *PropertyUsecase) Delete(ctx context.Context, user *entity.User, propertySlug string) error {
	property, err := uc.authorize(ctx, user, propertySlug)
	if err != nil {
		return err
	}

	if err := uc.reservations.DeleteByProperty(ctx, property.ID); err != nil {
		return err
	}
	if err := uc.properties.DeleteBySlug(ctx, propertySlug, property.Owner.Email); err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return ErrPropertyNotFound
		}
		return err
	}
	uc.invalidate(ctx, propertySlug)
	uc.publish(natsadapter.EventPropertyDeleted, propertySlug)
	return nil
}

func (uc *PropertyUsecase) CreateReservation(ctx context.Context, user *entity.User, propertySlug string, input ReservationInput) (*entity.Reservation, error) {
	property, err := uc.authorize(ctx, user, propertySlug)
	if err != nil {
		return nil, err
	}
	if input.DateEnd.IsZero() {
		return nil, fmt.Errorf("%w: date_end is required", ErrInvalidReservation)
	}
	if input.DateStart.IsZero() {
		input.DateStart = time.Now()
	}
	if !input.DateEnd.After(input.DateStart) {
		return nil, fmt.Errorf("%w: date_end must be after date_start", ErrInvalidReservation)
	}

	reservation := &entity.Reservation{
		PropertyID: property.ID,
		DateStart:  input.DateStart,
		DateEnd:    input.DateEnd,
		Body:       input.Body,
	}
	id, err := uc.reservations.Create(ctx, reservation)
	if err != nil {
		return nil, err
	}
	reservation.ID = id
	return reservation, nil
}

func (uc *PropertyUsecase) ListReservations(ctx context.Context, user *entity.User, propertySlug string) ([]*entity.Reservation, error) {
	property, err := uc.authorize(ctx, user, propertySlug)
	if err != nil {
		return nil, err
	}
	return uc.reservations.FindByProperty(ctx, property.ID)
}

func (uc *PropertyUsecase) UpdateReservation(ctx context.Context, user *entity.User, propertySlug, reservationID string, patch ReservationPatch) (*entity.Reservation, error) {
	property, err := uc.authorize(ctx, user, propertySlug)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(reservationID)
	if err != nil {
		return nil, repository.ErrReservationNotFound
	}
	reservation, err := uc.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.PropertyID != property.ID {
		return nil, ErrForbidden
	}

	if patch.DateStart != nil {
		reservation.DateStart = *patch.DateStart
	}
	if patch.DateEnd != nil {
		reservation.DateEnd = *patch.DateEnd
	}
	if patch.Body != nil {
		reservation.Body = *patch.Body
	}
	if !reservation.DateEnd.After(reservation.DateStart) {
		return nil, fmt.Errorf("%w: date_end must be after date_start", ErrInvalidReservation)
	}

	if err := uc.reservations.Update(ctx, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

// authorize loads the property and checks the caller may mutate it: the
// owning user by email match, or a staff user with an assignment.
func (uc *PropertyUsecase) authorize(ctx context.Context, user *entity.User, propertySlug string) (*entity.Property, error) {
	if err := requireListerRole(user); err != nil {
		return nil, err
	}
	property, err := uc.properties.FindBySlug(ctx, propertySlug)
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	if property.Owner.Email == user.Email {
		return property, nil
	}
	if user.Role == entity.RoleStaff {
		assigned, err := uc.staff.IsAssigned(ctx, user.ID, property.ID)
		if err != nil {
			return nil, err
		}
		if assigned {
			return property, nil
		}
	}
	uc.logger.Warn("Property mutation forbidden",
		zap.String("slug", propertySlug), zap.String("user", user.Email), zap.String("role", string(user.Role)))
	return nil, ErrForbidden
}

func requireListerRole(user *entity.User) error {
	if user.Role != entity.RoleOwner && user.Role != entity.RoleStaff {
		return ErrForbidden
	}
	return nil
}

// uniqueSlug derives a slug from title, suffixing on collision. selfID is
// the property being retitled, so that a title slugifying back to its own
// slug is not treated as a collision; pass NilObjectID when creating.
func (uc *PropertyUsecase) uniqueSlug(ctx context.Context, title string, selfID primitive.ObjectID) string {
	candidate := slug.Make(title)
	if existing, err := uc.properties.FindBySlug(ctx, candidate); err == nil {
		if selfID.IsZero() || existing.ID != selfID {
			candidate = suffixedSlug(candidate)
		}
	}
	return candidate
}

func suffixedSlug(base string) string {
	return fmt.Sprintf("%s-%s", base, random.String(slugSuffixLength))
}

func (uc *PropertyUsecase) findBySlug(ctx context.Context, propertySlug string) (*entity.Property, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetProperty(ctx, propertySlug)
		if err != nil {
			uc.logger.Warn("Property cache read failed", zap.String("slug", propertySlug), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	property, err := uc.properties.FindBySlug(ctx, propertySlug)
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetProperty(ctx, property); err != nil {
			uc.logger.Warn("Property cache write failed", zap.String("slug", propertySlug), zap.Error(err))
		}
	}
	return property, nil
}

func (uc *PropertyUsecase) invalidate(ctx context.Context, propertySlug string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteProperty(ctx, propertySlug); err != nil {
		uc.logger.Warn("Property cache invalidation failed", zap.String("slug", propertySlug), zap.Error(err))
	}
}

func (uc *PropertyUsecase) publish(eventType, propertySlug string) {
	if uc.events == nil {
		return
	}
	go func() {
		if err := uc.events.PublishPropertyEvent(eventType, propertySlug); err != nil {
			uc.logger.Warn("Failed to publish property event",
				zap.String("type", eventType), zap.String("slug", propertySlug), zap.Error(err))
		}
	}()
}
