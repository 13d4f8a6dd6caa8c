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
	"github.com/propfeed/propfeed/internal/platform/random"
)

var ErrTicketNotFound = errors.New("ticket not found")

const ticketTokenLength = 10

type mongoTicket struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Token     string             `bson:"token"`
	CreatedAt time.Time          `bson:"created_at"`
}

// TicketRepository manages one-time email tokens. Verification tickets live
// in user_verify, reset tickets in reset_password.
type TicketRepository struct {
	verify *mongo.Collection
	reset  *mongo.Collection
	logger *zap.Logger
}

func NewTicketRepository(db *mongo.Database, logger *zap.Logger) *TicketRepository {
	return &TicketRepository{
		verify: db.Collection("user_verify"),
		reset:  db.Collection("reset_password"),
		logger: logger.Named("TicketRepository"),
	}
}

// IssueVerify inserts a fresh verification ticket. Earlier tickets for the
// same email stay valid; lookup is by token so first match wins.
func (r *TicketRepository) IssueVerify(ctx context.Context, email string) (string, error) {
	return r.issue(ctx, r.verify, email)
}

// IssueReset replaces any previous reset ticket for the email, keeping at
// most one live reset token per account.
func (r *TicketRepository) IssueReset(ctx context.Context, email string) (string, error) {
	if _, err := r.reset.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		r.logger.Error("Database error deleting previous reset tickets", zap.String("email", email), zap.Error(err))
		return "", err
	}
	return r.issue(ctx, r.reset, email)
}

func (r *TicketRepository) issue(ctx context.Context, collection *mongo.Collection, email string) (string, error) {
	ticket := mongoTicket{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Token:     random.String(ticketTokenLength),
		CreatedAt: time.Now(),
	}
	if _, err := collection.InsertOne(ctx, ticket); err != nil {
		r.logger.Error("Database error inserting ticket", zap.String("email", email), zap.Error(err))
		return "", err
	}
	return ticket.Token, nil
}

func (r *TicketRepository) FindVerify(ctx context.Context, token string) (*entity.Ticket, error) {
	return r.find(ctx, r.verify, token)
}

func (r *TicketRepository) FindReset(ctx context.Context, token string) (*entity.Ticket, error) {
	return r.find(ctx, r.reset, token)
}

func (r *TicketRepository) find(ctx context.Context, collection *mongo.Collection, token string) (*entity.Ticket, error) {
	var dbTicket mongoTicket
	err := collection.FindOne(ctx, bson.M{"token": token}).Decode(&dbTicket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTicketNotFound
		}
		r.logger.Error("Database error fetching ticket", zap.Error(err))
		return nil, err
	}
	return &entity.Ticket{
		ID:        dbTicket.ID,
		Email:     dbTicket.Email,
		Token:     dbTicket.Token,
		CreatedAt: dbTicket.CreatedAt,
	}, nil
}

func (r *TicketRepository) DeleteVerify(ctx context.Context, token string) error {
	_, err := r.verify.DeleteOne(ctx, bson.M{"token": token})
	return err
}

func (r *TicketRepository) DeleteReset(ctx context.Context, token string) error {
	_, err := r.reset.DeleteOne(ctx, bson.M{"token": token})
	return err
}
