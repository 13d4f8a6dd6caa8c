package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/propfeed/propfeed/internal/auth"
	"github.com/propfeed/propfeed/internal/entity"
	"github.com/propfeed/propfeed/internal/mailer"
	"github.com/propfeed/propfeed/internal/platform/random"
	"github.com/propfeed/propfeed/internal/repository"
)

const opaqueTokenLength = 20

type UserStore interface {
	Create(ctx context.Context, user *entity.User) (primitive.ObjectID, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*entity.User, error)
	SetVerified(ctx context.Context, userID primitive.ObjectID) error
	UpdatePassword(ctx context.Context, userID primitive.ObjectID, passwordHash string) error
	UpdateProfile(ctx context.Context, user *entity.User) error
}

type SessionStore interface {
	Replace(ctx context.Context, userID primitive.ObjectID, token string, expiredAt time.Time) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*entity.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

type TicketStore interface {
	IssueVerify(ctx context.Context, email string) (string, error)
	IssueReset(ctx context.Context, email string) (string, error)
	FindVerify(ctx context.Context, token string) (*entity.Ticket, error)
	FindReset(ctx context.Context, token string) (*entity.Ticket, error)
	DeleteVerify(ctx context.Context, token string) error
	DeleteReset(ctx context.Context, token string) error
}

// AuthConfig carries the knobs the auth flows need; an immutable value
// injected at construction.
type AuthConfig struct {
	ServerHost      string
	FrontendURL     string
	BcryptCost      int
	RefreshTokenTTL time.Duration
}

// TokenPair is what a successful login hands the HTTP layer to set as
// cookies. Body is the cosmetic token returned in the response body.
type TokenPair struct {
	Access  string
	Refresh string
	Body    string
}

type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Role      *entity.UserRole
}

type AuthUsecase struct {
	users    UserStore
	sessions SessionStore
	tickets  TicketStore
	mailer   mailer.Mailer
	codec    *auth.TokenCodec
	policy   auth.PasswordPolicy
	cfg      AuthConfig
	logger   *zap.Logger
}

func NewAuthUsecase(
	users UserStore,
	sessions SessionStore,
	tickets TicketStore,
	m mailer.Mailer,
	codec *auth.TokenCodec,
	policy auth.PasswordPolicy,
	cfg AuthConfig,
	logger *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		sessions: sessions,
		tickets:  tickets,
		mailer:   m,
		codec:    codec,
		policy:   policy,
		cfg:      cfg,
		logger:   logger.Named("AuthUsecase"),
	}
}

// Register creates an unverified user and mails a verification link.
// The policy runs before any record is written.
func (u *AuthUsecase) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	if _, err := u.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if err := u.policy.Validate(input.Password, input.PasswordConfirm); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, u.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Username:     usernameFromEmail(input.Email),
		Password:     hash,
		IsVerified:   false,
		IsActive:     true,
		Role:         entity.RoleBuyer,
		AuthProvider: entity.ProviderEmail,
	}

	userID, err := u.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	user.ID = userID

	token, err := u.tickets.IssueVerify(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	verifyURL := fmt.Sprintf("%s/api/auth/verify?token=%s&redirect_url=%s/login",
		u.cfg.ServerHost, token, u.cfg.FrontendURL)
	u.sendMail(user.Email, func() error {
		return u.mailer.SendVerificationEmail(user.Email, user.FullName(), verifyURL)
	})

	return user, nil
}

// VerifyEmail consumes a verification ticket and marks the user verified.
// The user update commits before the ticket is deleted, so a failed delete
// leaves a reusable ticket rather than a dead link.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, token string) error {
	ticket, err := u.tickets.FindVerify(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return ErrInvalidLink
		}
		return err
	}

	user, err := u.users.FindByEmail(ctx, ticket.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := u.users.SetVerified(ctx, user.ID); err != nil {
		return err
	}
	if err := u.tickets.DeleteVerify(ctx, token); err != nil {
		u.logger.Warn("Failed to delete verification ticket after use", zap.String("email", ticket.Email), zap.Error(err))
	}
	return nil
}

// Login authenticates by email/password and replaces the user's refresh
// session. Unknown email and wrong password are indistinguishable to the
// caller.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*entity.User, *TokenPair, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !auth.CheckPassword(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrInactiveUser
	}

	accessToken, err := u.codec.IssueAccess(user.ID.Hex())
	if err != nil {
		return nil, nil, err
	}
	refreshToken, err := u.codec.IssueRefresh(user.ID.Hex())
	if err != nil {
		return nil, nil, err
	}

	expiredAt := time.Now().Add(u.cfg.RefreshTokenTTL)
	if err := u.sessions.Replace(ctx, user.ID, refreshToken, expiredAt); err != nil {
		return nil, nil, err
	}

	return user, &TokenPair{
		Access:  accessToken,
		Refresh: refreshToken,
		Body:    random.String(opaqueTokenLength),
	}, nil
}

// RefreshAccessToken mints a new access token off a valid refresh cookie.
// The refresh token itself is not rotated.
func (u *AuthUsecase) RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := u.decodeUserID(refreshToken)
	if err != nil {
		return "", "", ErrUnauthenticated
	}

	if _, err := u.sessions.FindByUserID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", "", ErrForbidden
		}
		return "", "", err
	}

	accessToken, err := u.codec.IssueAccess(userID.Hex())
	if err != nil {
		return "", "", err
	}
	return accessToken, random.String(opaqueTokenLength), nil
}

// Logout drops the session matching the refresh cookie. Calling it without
// a cookie, or twice, is not an error.
func (u *AuthUsecase) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := u.sessions.DeleteByToken(ctx, refreshToken); err != nil {
		u.logger.Warn("Failed to delete session on logout", zap.Error(err))
	}
}

// RecoverPassword issues a reset ticket and mails the link. The response is
// identical whether or not the account exists.
func (u *AuthUsecase) RecoverPassword(ctx context.Context, email string) error {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			u.logger.Info("Password recovery requested for unknown email", zap.String("email", email))
			return nil
		}
		return err
	}

	token, err := u.tickets.IssueReset(ctx, user.Email)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset?token=%s", u.cfg.FrontendURL, token)
	u.sendMail(user.Email, func() error {
		return u.mailer.SendPasswordResetEmail(user.Email, user.FullName(), resetURL)
	})
	return nil
}

// ResetPassword rewrites the password hash for the account the reset ticket
// belongs to. Policy violations fail before the ticket is consumed.
func (u *AuthUsecase) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if err := u.policy.Validate(password, confirm); err != nil {
		return err
	}

	ticket, err := u.tickets.FindReset(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return ErrInvalidLink
		}
		return err
	}

	user, err := u.users.FindByEmail(ctx, ticket.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hash, err := auth.HashPassword(password, u.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := u.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := u.tickets.DeleteReset(ctx, token); err != nil {
		u.logger.Warn("Failed to delete reset ticket after use", zap.String("email", ticket.Email), zap.Error(err))
	}
	return nil
}

// GetUser resolves an authenticated user id from a decoded token.
func (u *AuthUsecase) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// DecodeAccessToken validates an access token and returns the user id claim.
func (u *AuthUsecase) DecodeAccessToken(token string) (string, error) {
	userID, err := u.codec.Decode(token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// UpdateProfile applies only the fields present in the patch.
func (u *AuthUsecase) UpdateProfile(ctx context.Context, user *entity.User, patch ProfilePatch) (*entity.User, error) {
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *patch.Role
	}
	if err := u.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *AuthUsecase) decodeUserID(token string) (primitive.ObjectID, error) {
	raw, err := u.codec.Decode(token)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(raw)
}

// sendMail dispatches an email in the background. Delivery failures are
// logged and never surfaced to the request.
func (u *AuthUsecase) sendMail(email string, send func() error) {
	go func() {
		if err := send(); err != nil {
			u.logger.Error("Background email dispatch failed", zap.String("email", email), zap.Error(err))
		}
	}()
}

func usernameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
