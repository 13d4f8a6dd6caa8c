package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// StaffRepository looks up staff-to-property assignments. Staff users may
// only manage properties they are assigned to.
type StaffRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewStaffRepository(db *mongo.Database, logger *zap.Logger) *StaffRepository {
	return &StaffRepository{
		collection: db.Collection("staff"),
		logger:     logger.Named("StaffRepository"),
	}
}

func (r *StaffRepository) IsAssigned(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":     userID,
		"property_id": propertyID,
	}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		r.logger.Error("Database error checking staff assignment",
			zap.String("userID", userID.Hex()), zap.String("propertyID", propertyID.Hex()), zap.Error(err))
		return false, err
	}
	return true, nil
}
