package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/propfeed/propfeed/internal/entity"
)

var ErrReservationNotFound = errors.New("reservation not found")

type mongoReservation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	PropertyID primitive.ObjectID `bson:"property_id"`
	DateStart  time.Time          `bson:"date_start"`
	DateEnd    time.Time          `bson:"date_end"`
	Body       string             `bson:"body,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (m *mongoReservation) toEntity() *entity.Reservation {
	return &entity.Reservation{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		DateStart:  m.DateStart,
		DateEnd:    m.DateEnd,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type ReservationRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewReservationRepository(db *mongo.Database, logger *zap.Logger) *ReservationRepository {
	return &ReservationRepository{
		collection: db.Collection("reservations"),
		logger:     logger.Named("ReservationRepository"),
	}
}

func (r *ReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) (primitive.ObjectID, error) {
	r.logger.Info("Creating reservation", zap.String("propertyID", reservation.PropertyID.Hex()))

	doc := mongoReservation{
		ID:         primitive.NewObjectID(),
		PropertyID: reservation.PropertyID,
		DateStart:  reservation.DateStart,
		DateEnd:    reservation.DateEnd,
		Body:       reservation.Body,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Database error creating reservation", zap.String("propertyID", reservation.PropertyID.Hex()), zap.Error(err))
		return primitive.NilObjectID, err
	}
	return doc.ID, nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*entity.Reservation, error) {
	var doc mongoReservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReservationNotFound
		}
		r.logger.Error("Database error fetching reservation", zap.String("id", id.Hex()), zap.Error(err))
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *ReservationRepository) FindByProperty(ctx context.Context, propertyID primitive.ObjectID) ([]*entity.Reservation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"property_id": propertyID})
	if err != nil {
		r.logger.Error("Database error listing reservations", zap.String("propertyID", propertyID.Hex()), zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*mongoReservation
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Error decoding reservations", zap.Error(err))
		return nil, err
	}

	reservations := make([]*entity.Reservation, 0, len(docs))
	for _, doc := range docs {
		reservations = append(reservations, doc.toEntity())
	}
	return reservations, nil
}

func (r *ReservationRepository) Update(ctx context.Context, reservation *entity.Reservation) error {
	r.logger.Info("Updating reservation", zap.String("id", reservation.ID.Hex()))
	update := bson.M{"$set": bson.M{
		"date_start": reservation.DateStart,
		"date_end":   reservation.DateEnd,
		"body":       reservation.Body,
		"updated_at": time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": reservation.ID}, update)
	if err != nil {
		r.logger.Error("Database error updating reservation", zap.String("id", reservation.ID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// DeleteByProperty removes every reservation of a property, used when the
// property itself is deleted.
func (r *ReservationRepository) DeleteByProperty(ctx context.Context, propertyID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"property_id": propertyID})
	if err != nil {
		r.logger.Error("Database error deleting reservations", zap.String("propertyID", propertyID.Hex()), zap.Error(err))
	}
	return err
}
