package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/propfeed/propfeed/internal/entity"
	"github.com/propfeed/propfeed/internal/repository"
)

type MockPropertyStore struct{ mock.Mock }

func (m *MockPropertyStore) Create(ctx context.Context, property *entity.Property) (primitive.ObjectID, error) {
	args := m.Called(ctx, property)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockPropertyStore) FindBySlug(ctx context.Context, slug string) (*entity.Property, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Property), args.Error(1)
}
func (m *MockPropertyStore) Feed(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Property), args.Error(1)
}
func (m *MockPropertyStore) UpdateBySlug(ctx context.Context, slug string, property *entity.Property) error {
	args := m.Called(ctx, slug, property)
	return args.Error(0)
}
func (m *MockPropertyStore) DeleteBySlug(ctx context.Context, slug, ownerEmail string) error {
	args := m.Called(ctx, slug, ownerEmail)
	return args.Error(0)
}

type MockReservationStore struct{ mock.Mock }

func (m *MockReservationStore) Create(ctx context.Context, reservation *entity.Reservation) (primitive.ObjectID, error) {
	args := m.Called(ctx, reservation)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockReservationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*entity.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reservation), args.Error(1)
}
func (m *MockReservationStore) FindByProperty(ctx context.Context, propertyID primitive.ObjectID) ([]*entity.Reservation, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Reservation), args.Error(1)
}
func (m *MockReservationStore) Update(ctx context.Context, reservation *entity.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}
func (m *MockReservationStore) DeleteByProperty(ctx context.Context, propertyID primitive.ObjectID) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

type MockStaffStore struct{ mock.Mock }

func (m *MockStaffStore) IsAssigned(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, userID, propertyID)
	return args.Bool(0), args.Error(1)
}

type propertyFixture struct {
	properties   *MockPropertyStore
	reservations *MockReservationStore
	staff        *MockStaffStore
	uc           *PropertyUsecase
}

func newPropertyFixture(t *testing.T) *propertyFixture {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	f := &propertyFixture{
		properties:   new(MockPropertyStore),
		reservations: new(MockReservationStore),
		staff:        new(MockStaffStore),
	}
	f.uc = NewPropertyUsecase(f.properties, f.reservations, f.staff, nil, nil, logger)
	return f
}

func ownerUser() *entity.User {
	return &entity.User{
		ID:         primitive.NewObjectID(),
		Email:      "owner@example.com",
		Username:   "owner",
		FirstName:  "Olga",
		LastName:   "Ivanova",
		Role:       entity.RoleOwner,
		IsActive:   true,
		IsVerified: true,
	}
}

func TestPropertyUsecase_Create(t *testing.T) {
	ctx := context.Background()
	input := CreatePropertyInput{
		Title:        "Cozy Apartment",
		Description:  "Two rooms near the park",
		Price:        1200,
		PropertyType: entity.TypeApartment,
		Address:      entity.Address{Street: "Main St 1", City: "Riga"},
	}

	t.Run("Success", func(t *testing.T) {
		f := newPropertyFixture(t)
		user := ownerUser()
		propertyID := primitive.NewObjectID()
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(nil, repository.ErrPropertyNotFound).Once()
		f.properties.On("Create", ctx, mock.AnythingOfType("*entity.Property")).Return(propertyID, nil).Once()

		property, err := f.uc.Create(ctx, user, input)

		assert.NoError(t, err)
		assert.Equal(t, propertyID, property.ID)
		assert.Equal(t, "cozy-apartment", property.Slug)
		assert.Equal(t, user.Email, property.Owner.Email)
		assert.True(t, property.IsActive)
		f.properties.AssertExpectations(t)
	})

	t.Run("SlugCollisionGetsSuffix", func(t *testing.T) {
		f := newPropertyFixture(t)
		user := ownerUser()
		f.properties.On("FindBySlug", ctx, "cozy-apartment").
			Return(&entity.Property{Slug: "cozy-apartment"}, nil).Once()
		f.properties.On("Create", ctx, mock.AnythingOfType("*entity.Property")).
			Return(primitive.NewObjectID(), nil).Once()

		property, err := f.uc.Create(ctx, user, input)

		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(property.Slug, "cozy-apartment-"))
		assert.Len(t, property.Slug, len("cozy-apartment-")+10)
	})

	t.Run("IndexRaceRetriesOnce", func(t *testing.T) {
		f := newPropertyFixture(t)
		user := ownerUser()
		propertyID := primitive.NewObjectID()
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(nil, repository.ErrPropertyNotFound).Once()
		f.properties.On("Create", ctx, mock.AnythingOfType("*entity.Property")).
			Return(primitive.NilObjectID, repository.ErrDuplicateSlug).Once()
		f.properties.On("Create", ctx, mock.AnythingOfType("*entity.Property")).
			Return(propertyID, nil).Once()

		property, err := f.uc.Create(ctx, user, input)

		assert.NoError(t, err)
		assert.Equal(t, propertyID, property.ID)
		assert.True(t, strings.HasPrefix(property.Slug, "cozy-apartment-"))
		f.properties.AssertExpectations(t)
	})

	t.Run("BuyerRoleForbidden", func(t *testing.T) {
		f := newPropertyFixture(t)
		user := ownerUser()
		user.Role = entity.RoleBuyer

		_, err := f.uc.Create(ctx, user, input)

		assert.ErrorIs(t, err, ErrForbidden)
		f.properties.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("UnverifiedUserForbidden", func(t *testing.T) {
		f := newPropertyFixture(t)
		user := ownerUser()
		user.IsVerified = false

		_, err := f.uc.Create(ctx, user, input)

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("InvalidType", func(t *testing.T) {
		f := newPropertyFixture(t)
		bad := input
		bad.PropertyType = "Castle"

		_, err := f.uc.Create(ctx, ownerUser(), bad)

		assert.ErrorIs(t, err, ErrInvalidProperty)
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		f := newPropertyFixture(t)
		bad := input
		bad.Price = 0

		_, err := f.uc.Create(ctx, ownerUser(), bad)

		assert.ErrorIs(t, err, ErrInvalidProperty)
	})
}

func TestPropertyUsecase_Feed(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultLimitApplied", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("Feed", ctx, entity.PropertyFilter{Limit: 20}).
			Return([]*entity.Property{}, nil).Once()

		_, err := f.uc.Feed(ctx, entity.PropertyFilter{})

		assert.NoError(t, err)
		f.properties.AssertExpectations(t)
	})

	t.Run("InvalidTypeFilter", func(t *testing.T) {
		f := newPropertyFixture(t)

		_, err := f.uc.Feed(ctx, entity.PropertyFilter{Type: "Castle"})

		assert.ErrorIs(t, err, ErrInvalidProperty)
		f.properties.AssertNotCalled(t, "Feed", mock.Anything, mock.Anything)
	})
}

func TestPropertyUsecase_GetBySlug(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsPropertyWithReservations", func(t *testing.T) {
		f := newPropertyFixture(t)
		propertyID := primitive.NewObjectID()
		f.properties.On("FindBySlug", ctx, "cozy-apartment").
			Return(&entity.Property{ID: propertyID, Slug: "cozy-apartment"}, nil).Once()
		f.reservations.On("FindByProperty", ctx, propertyID).
			Return([]*entity.Reservation{{PropertyID: propertyID}}, nil).Once()

		property, reservations, err := f.uc.GetBySlug(ctx, "cozy-apartment")

		assert.NoError(t, err)
		assert.Equal(t, propertyID, property.ID)
		assert.Len(t, reservations, 1)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "missing").Return(nil, repository.ErrPropertyNotFound).Once()

		_, _, err := f.uc.GetBySlug(ctx, "missing")

		assert.ErrorIs(t, err, ErrPropertyNotFound)
	})
}

func TestPropertyUsecase_Authorization(t *testing.T) {
	ctx := context.Background()
	propertyID := primitive.NewObjectID()
	stored := &entity.Property{
		ID:    propertyID,
		Slug:  "cozy-apartment",
		Owner: entity.Owner{Email: "owner@example.com", Username: "owner"},
	}

	t.Run("OwnerByEmail", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()
		f.reservations.On("FindByProperty", ctx, propertyID).Return([]*entity.Reservation{}, nil).Once()

		_, _, err := f.uc.Get(ctx, ownerUser(), "cozy-apartment")

		assert.NoError(t, err)
		f.staff.AssertNotCalled(t, "IsAssigned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AssignedStaff", func(t *testing.T) {
		f := newPropertyFixture(t)
		staff := ownerUser()
		staff.Email = "staff@example.com"
		staff.Role = entity.RoleStaff
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()
		f.staff.On("IsAssigned", ctx, staff.ID, propertyID).Return(true, nil).Once()
		f.reservations.On("FindByProperty", ctx, propertyID).Return([]*entity.Reservation{}, nil).Once()

		_, _, err := f.uc.Get(ctx, staff, "cozy-apartment")

		assert.NoError(t, err)
	})

	t.Run("UnassignedStaffForbidden", func(t *testing.T) {
		f := newPropertyFixture(t)
		staff := ownerUser()
		staff.Email = "staff@example.com"
		staff.Role = entity.RoleStaff
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()
		f.staff.On("IsAssigned", ctx, staff.ID, propertyID).Return(false, nil).Once()

		_, _, err := f.uc.Get(ctx, staff, "cozy-apartment")

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("StrangerOwnerForbidden", func(t *testing.T) {
		f := newPropertyFixture(t)
		stranger := ownerUser()
		stranger.Email = "other@example.com"
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()

		_, _, err := f.uc.Get(ctx, stranger, "cozy-apartment")

		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestPropertyUsecase_Update(t *testing.T) {
	ctx := context.Background()
	propertyID := primitive.NewObjectID()

	stored := func() *entity.Property {
		return &entity.Property{
			ID:    propertyID,
			Title: "Cozy Apartment",
			Slug:  "cozy-apartment",
			Price: 1200,
			Owner: entity.Owner{Email: "owner@example.com", Username: "owner"},
		}
	}

	t.Run("TitleChangeRegeneratesSlug", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored(), nil).Once()
		f.properties.On("FindBySlug", ctx, "sunny-villa").Return(nil, repository.ErrPropertyNotFound).Once()
		f.properties.On("UpdateBySlug", ctx, "cozy-apartment", mock.AnythingOfType("*entity.Property")).
			Return(nil).Once()

		title := "Sunny Villa"
		property, err := f.uc.Update(ctx, ownerUser(), "cozy-apartment", PropertyPatch{Title: &title})

		assert.NoError(t, err)
		assert.Equal(t, "sunny-villa", property.Slug)
		f.properties.AssertExpectations(t)
	})

	t.Run("TitleSlugifyingToOwnSlugKeepsIt", func(t *testing.T) {
		f := newPropertyFixture(t)
		// authorize and the slug check both resolve the same document.
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored(), nil).Twice()
		f.properties.On("UpdateBySlug", ctx, "cozy-apartment", mock.AnythingOfType("*entity.Property")).
			Return(nil).Once()

		title := "Cozy  Apartment"
		property, err := f.uc.Update(ctx, ownerUser(), "cozy-apartment", PropertyPatch{Title: &title})

		assert.NoError(t, err)
		assert.Equal(t, "cozy-apartment", property.Slug)
	})

	t.Run("SlugIndexRaceRetriesOnce", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored(), nil).Once()
		f.properties.On("FindBySlug", ctx, "sunny-villa").Return(nil, repository.ErrPropertyNotFound).Once()
		f.properties.On("UpdateBySlug", ctx, "cozy-apartment", mock.AnythingOfType("*entity.Property")).
			Return(repository.ErrDuplicateSlug).Once()
		f.properties.On("UpdateBySlug", ctx, "cozy-apartment", mock.AnythingOfType("*entity.Property")).
			Return(nil).Once()

		title := "Sunny Villa"
		property, err := f.uc.Update(ctx, ownerUser(), "cozy-apartment", PropertyPatch{Title: &title})

		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(property.Slug, "sunny-villa-"))
		assert.Len(t, property.Slug, len("sunny-villa-")+10)
		f.properties.AssertExpectations(t)
	})

	t.Run("NonPositivePriceRejected", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored(), nil).Once()

		price := -5.0
		_, err := f.uc.Update(ctx, ownerUser(), "cozy-apartment", PropertyPatch{Price: &price})

		assert.ErrorIs(t, err, ErrInvalidProperty)
		f.properties.AssertNotCalled(t, "UpdateBySlug", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPropertyUsecase_Delete(t *testing.T) {
	ctx := context.Background()
	propertyID := primitive.NewObjectID()
	stored := &entity.Property{
		ID:    propertyID,
		Slug:  "cozy-apartment",
		Owner: entity.Owner{Email: "owner@example.com"},
	}

	t.Run("CascadesReservations", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()
		f.reservations.On("DeleteByProperty", ctx, propertyID).Return(nil).Once()
		f.properties.On("DeleteBySlug", ctx, "cozy-apartment", "owner@example.com").Return(nil).Once()

		err := f.uc.Delete(ctx, ownerUser(), "cozy-apartment")

		assert.NoError(t, err)
		f.reservations.AssertExpectations(t)
		f.properties.AssertExpectations(t)
	})
}

func TestPropertyUsecase_Reservations(t *testing.T) {
	ctx := context.Background()
	propertyID := primitive.NewObjectID()
	stored := &entity.Property{
		ID:    propertyID,
		Slug:  "cozy-apartment",
		Owner: entity.Owner{Email: "owner@example.com"},
	}

	t.Run("CreateDefaultsStartToNow", func(t *testing.T) {
		f := newPropertyFixture(t)
		reservationID := primitive.NewObjectID()
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()
		f.reservations.On("Create", ctx, mock.AnythingOfType("*entity.Reservation")).
			Return(reservationID, nil).Once()

		reservation, err := f.uc.CreateReservation(ctx, ownerUser(), "cozy-apartment", ReservationInput{
			DateEnd: time.Now().Add(48 * time.Hour),
			Body:    "viewing",
		})

		assert.NoError(t, err)
		assert.Equal(t, reservationID, reservation.ID)
		assert.False(t, reservation.DateStart.IsZero())
		assert.Equal(t, propertyID, reservation.PropertyID)
	})

	t.Run("CreateRequiresDateEnd", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()

		_, err := f.uc.CreateReservation(ctx, ownerUser(), "cozy-apartment", ReservationInput{})

		assert.ErrorIs(t, err, ErrInvalidReservation)
	})

	t.Run("CreateRejectsInvertedRange", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()

		now := time.Now()
		_, err := f.uc.CreateReservation(ctx, ownerUser(), "cozy-apartment", ReservationInput{
			DateStart: now.Add(48 * time.Hour),
			DateEnd:   now.Add(24 * time.Hour),
		})

		assert.ErrorIs(t, err, ErrInvalidReservation)
	})

	t.Run("UpdateRejectsForeignReservation", func(t *testing.T) {
		f := newPropertyFixture(t)
		reservationID := primitive.NewObjectID()
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()
		f.reservations.On("FindByID", ctx, reservationID).
			Return(&entity.Reservation{ID: reservationID, PropertyID: primitive.NewObjectID()}, nil).Once()

		_, err := f.uc.UpdateReservation(ctx, ownerUser(), "cozy-apartment", reservationID.Hex(), ReservationPatch{})

		assert.ErrorIs(t, err, ErrForbidden)
		f.reservations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("UpdateRejectsMalformedID", func(t *testing.T) {
		f := newPropertyFixture(t)
		f.properties.On("FindBySlug", ctx, "cozy-apartment").Return(stored, nil).Once()

		_, err := f.uc.UpdateReservation(ctx, ownerUser(), "cozy-apartment", "not-an-id", ReservationPatch{})

		assert.ErrorIs(t, err, repository.ErrReservationNotFound)
	})
}
