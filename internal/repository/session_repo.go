package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/propfeed/propfeed/internal/entity"
)

var ErrSessionNotFound = errors.New("session not found")

type mongoSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Token     string             `bson:"token"`
	ExpiredAt time.Time          `bson:"expired_at"`
}

// SessionRepository persists the single live refresh token per user in the
// user_token collection.
type SessionRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewSessionRepository(db *mongo.Database, logger *zap.Logger) *SessionRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := db.Collection("user_token")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("Failed to create indexes for user_token collection (may already exist)", zap.Error(err))
	}

	return &SessionRepository{
		collection: collection,
		logger:     logger.Named("SessionRepository"),
	}
}

// Replace removes any previous session rows for the user and inserts the new
// one. The two writes are not a transaction; concurrent logins for the same
// user may race, which is accepted (best-effort single-session).
func (r *SessionRepository) Replace(ctx context.Context, userID primitive.ObjectID, token string, expiredAt time.Time) error {
	r.logger.Info("Replacing session", zap.String("userID", userID.Hex()))
	if _, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		r.logger.Error("Database error deleting previous sessions", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	session := mongoSession{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Token:     token,
		ExpiredAt: expiredAt,
	}
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		r.logger.Error("Database error inserting session", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	return nil
}

func (r *SessionRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*entity.Session, error) {
	var dbSession mongoSession
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&dbSession)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		r.logger.Error("Database error fetching session", zap.String("userID", userID.Hex()), zap.Error(err))
		return nil, err
	}
	return &entity.Session{
		ID:        dbSession.ID,
		UserID:    dbSession.UserID,
		Token:     dbSession.Token,
		ExpiredAt: dbSession.ExpiredAt,
	}, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"token": token})
	if err != nil {
		r.logger.Error("Database error deleting session by token", zap.Error(err))
	}
	return err
}
