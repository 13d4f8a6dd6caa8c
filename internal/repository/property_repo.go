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
	ErrPropertyNotFound = errors.New("property not found")
	ErrDuplicateSlug    = errors.New("slug already exists")
)

type mongoAddress struct {
	Street string `bson:"street"`
	City   string `bson:"city"`
}

type mongoMedia struct {
	IsFeature bool   `bson:"is_feature"`
	ImageURL  string `bson:"image_url,omitempty"`
}

type mongoOwner struct {
	Email     string `bson:"email"`
	Username  string `bson:"username"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
}

type mongoProperty struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Owner        mongoOwner         `bson:"owner"`
	Title        string             `bson:"title"`
	Slug         string             `bson:"slug"`
	Description  string             `bson:"description"`
	IsActive     bool               `bson:"is_active"`
	Price        float64            `bson:"price"`
	PropertyType string             `bson:"property_type"`
	Address      mongoAddress       `bson:"address"`
	Media        []mongoMedia       `bson:"media,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (m *mongoProperty) toEntity() *entity.Property {
	media := make([]entity.Media, 0, len(m.Media))
	for _, row := range m.Media {
		media = append(media, entity.Media{IsFeature: row.IsFeature, ImageURL: row.ImageURL})
	}
	return &entity.Property{
		ID: m.ID,
		Owner: entity.Owner{
			Email:     m.Owner.Email,
			Username:  m.Owner.Username,
			FirstName: m.Owner.FirstName,
			LastName:  m.Owner.LastName,
		},
		Title:        m.Title,
		Slug:         m.Slug,
		Description:  m.Description,
		IsActive:     m.IsActive,
		Price:        m.Price,
		PropertyType: entity.PropertyType(m.PropertyType),
		Address:      entity.Address{Street: m.Address.Street, City: m.Address.City},
		Media:        media,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromPropertyEntity(e *entity.Property) *mongoProperty {
	media := make([]mongoMedia, 0, len(e.Media))
	for _, row := range e.Media {
		media = append(media, mongoMedia{IsFeature: row.IsFeature, ImageURL: row.ImageURL})
	}
	return &mongoProperty{
		ID: e.ID,
		Owner: mongoOwner{
			Email:     e.Owner.Email,
			Username:  e.Owner.Username,
			FirstName: e.Owner.FirstName,
			LastName:  e.Owner.LastName,
		},
		Title:        e.Title,
		Slug:         e.Slug,
		Description:  e.Description,
		IsActive:     e.IsActive,
		Price:        e.Price,
		PropertyType: string(e.PropertyType),
		Address:      mongoAddress{Street: e.Address.Street, City: e.Address.City},
		Media:        media,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

type PropertyRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewPropertyRepository(db *mongo.Database, logger *zap.Logger) *PropertyRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := db.Collection("properties")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner.username", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("Failed to create indexes for properties collection (may already exist)", zap.Error(err))
	}

	return &PropertyRepository{
		collection: collection,
		logger:     logger.Named("PropertyRepository"),
	}
}

func (r *PropertyRepository) Create(ctx context.Context, property *entity.Property) (primitive.ObjectID, error) {
	r.logger.Info("Creating property", zap.String("slug", property.Slug), zap.String("owner", property.Owner.Username))

	doc := fromPropertyEntity(property)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if isSlugConflict(err) {
			r.logger.Warn("Duplicate slug during property creation", zap.String("slug", property.Slug))
			return primitive.NilObjectID, ErrDuplicateSlug
		}
		r.logger.Error("Database error during property creation", zap.String("slug", property.Slug), zap.Error(err))
		return primitive.NilObjectID, err
	}
	return doc.ID, nil
}

func (r *PropertyRepository) FindBySlug(ctx context.Context, slug string) (*entity.Property, error) {
	var doc mongoProperty
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPropertyNotFound
		}
		r.logger.Error("Database error fetching property by slug", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *PropertyRepository) Feed(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, error) {
	query := bson.M{}
	if filter.Owner != "" {
		query["owner.username"] = filter.Owner
	}
	if filter.Type != "" {
		query["property_type"] = string(filter.Type)
	}

	cursor, err := r.collection.Find(ctx, query, feedFindOptions(filter))
	if err != nil {
		r.logger.Error("Database error listing properties", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*mongoProperty
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Error decoding properties", zap.Error(err))
		return nil, err
	}

	properties := make([]*entity.Property, 0, len(docs))
	for _, doc := range docs {
		properties = append(properties, doc.toEntity())
	}
	return properties, nil
}

// feedFindOptions pages the feed newest-first.
func feedFindOptions(filter entity.PropertyFilter) *options.FindOptions {
	return options.Find().
		SetSkip(filter.Offset).
		SetLimit(filter.Limit).
		SetSort(bson.M{"created_at": -1})
}

// UpdateBySlug rewrites the mutable fields of the property identified by
// slug. The caller passes the already-merged entity; the new slug may differ
// when the title changed.
func (r *PropertyRepository) UpdateBySlug(ctx context.Context, slug string, property *entity.Property) error {
	r.logger.Info("Updating property", zap.String("slug", slug), zap.String("newSlug", property.Slug))

	doc := fromPropertyEntity(property)
	update := bson.M{"$set": bson.M{
		"title":         doc.Title,
		"slug":          doc.Slug,
		"description":   doc.Description,
		"is_active":     doc.IsActive,
		"price":         doc.Price,
		"property_type": doc.PropertyType,
		"address":       doc.Address,
		"media":         doc.Media,
		"updated_at":    time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"slug": slug}, update)
	if err != nil {
		if isSlugConflict(err) {
			return ErrDuplicateSlug
		}
		r.logger.Error("Database error updating property", zap.String("slug", slug), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func (r *PropertyRepository) DeleteBySlug(ctx context.Context, slug, ownerEmail string) error {
	r.logger.Info("Deleting property", zap.String("slug", slug))
	result, err := r.collection.DeleteOne(ctx, bson.M{"slug": slug, "owner.email": ownerEmail})
	if err != nil {
		r.logger.Error("Database error deleting property", zap.String("slug", slug), zap.Error(err))
		return err
	}
	if result.DeletedCount == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func isSlugConflict(err error) bool {
	var writeException mongo.WriteException
	if !errors.As(err, &writeException) {
		return false
	}
	for _, writeError := range writeException.WriteErrors {
		if writeError.Code == 11000 && strings.Contains(writeError.Message, "slug_1") {
			return true
		}
	}
	return false
}
