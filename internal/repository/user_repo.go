package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/propfeed/propfeed/internal/entity"
)

var (
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUserNotFound      = errors.New("user not found")
)

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username"`
	Password     string             `bson:"password"`
	IsVerified   bool               `bson:"is_verified"`
	IsActive     bool               `bson:"is_active"`
	IsSuperuser  bool               `bson:"is_superuser"`
	Role         string             `bson:"role"`
	AuthProvider string             `bson:"auth_provider"`
	Avatar       string             `bson:"avatar,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (m *mongoUser) toEntity() *entity.User {
	return &entity.User{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Username:     m.Username,
		Password:     m.Password,
		IsVerified:   m.IsVerified,
		IsActive:     m.IsActive,
		IsSuperuser:  m.IsSuperuser,
		Role:         entity.UserRole(m.Role),
		AuthProvider: entity.AuthProvider(m.AuthProvider),
		Avatar:       m.Avatar,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromEntity(e *entity.User) *mongoUser {
	return &mongoUser{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Username:     e.Username,
		Password:     e.Password,
		IsVerified:   e.IsVerified,
		IsActive:     e.IsActive,
		IsSuperuser:  e.IsSuperuser,
		Role:         string(e.Role),
		AuthProvider: string(e.AuthProvider),
		Avatar:       e.Avatar,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

type UserRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewUserRepository(db *mongo.Database, logger *zap.Logger) *UserRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure indexes (idempotent operation)
	collection := db.Collection("users")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("Failed to create indexes for users collection (may already exist)", zap.Error(err))
	}

	return &UserRepository{
		collection: collection,
		logger:     logger.Named("UserRepository"),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) (primitive.ObjectID, error) {
	r.logger.Info("Creating user", zap.String("email", user.Email), zap.String("username", user.Username))

	dbUser := fromEntity(user)
	if dbUser.ID.IsZero() {
		dbUser.ID = primitive.NewObjectID()
	}
	now := time.Now()
	dbUser.CreatedAt = now
	dbUser.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, dbUser); err != nil {
		if dupErr := duplicateKeyError(err); dupErr != nil {
			r.logger.Warn("Duplicate key during user creation", zap.String("email", user.Email), zap.Error(err))
			return primitive.NilObjectID, dupErr
		}
		r.logger.Error("Database error during user creation", zap.String("email", user.Email), zap.Error(err))
		return primitive.NilObjectID, err
	}
	return dbUser.ID, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var dbUser mongoUser
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error fetching user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*entity.User, error) {
	var dbUser mongoUser
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error fetching user by ID", zap.String("userID", userID.Hex()), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

func (r *UserRepository) SetVerified(ctx context.Context, userID primitive.ObjectID) error {
	r.logger.Info("Marking user as verified", zap.String("userID", userID.Hex()))
	update := bson.M{"$set": bson.M{"is_verified": true, "updated_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.Error("Database error marking user as verified", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID primitive.ObjectID, passwordHash string) error {
	r.logger.Info("Updating password", zap.String("userID", userID.Hex()))
	update := bson.M{"$set": bson.M{"password": passwordHash, "updated_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.Error("Database error updating password", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile persists only the profile fields a user may change.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	r.logger.Info("Updating user profile", zap.String("userID", user.ID.Hex()))
	update := bson.M{"$set": bson.M{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       string(user.Role),
		"updated_at": time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		r.logger.Error("Database error updating profile", zap.String("userID", user.ID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// duplicateKeyError translates a Mongo E11000 write error into the matching
// sentinel, or returns nil if err is not a duplicate-key failure.
func duplicateKeyError(err error) error {
	var writeException mongo.WriteException
	if !errors.As(err, &writeException) {
		return nil
	}
	for _, writeError := range writeException.WriteErrors {
		if writeError.Code != 11000 {
			continue
		}
		if strings.Contains(writeError.Message, "email_1") {
			return ErrDuplicateEmail
		}
		if strings.Contains(writeError.Message, "username_1") {
			return ErrDuplicateUsername
		}
	}
	return nil
}
