package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	natsadapter "github.com/propfeed/propfeed/internal/adapter/messaging/nats"
	"github.com/propfeed/propfeed/internal/auth"
	"github.com/propfeed/propfeed/internal/config"
	"github.com/propfeed/propfeed/internal/handler"
	"github.com/propfeed/propfeed/internal/mailer"
	"github.com/propfeed/propfeed/internal/middleware"
	"github.com/propfeed/propfeed/internal/repository"
	"github.com/propfeed/propfeed/internal/repository/cache"
	"github.com/propfeed/propfeed/internal/router"
	"github.com/propfeed/propfeed/internal/usecase"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	// Load .env if present, then configuration from the environment
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, relying on environment variables")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.MongoDatabase)

	// Optional Redis cache for the property feed
	var propertyCache usecase.PropertyCacheStore
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewPropertyCache(cfg.RedisAddr)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()
		propertyCache = redisCache
	}

	// Optional NATS publisher for property lifecycle events
	var events usecase.EventPublisher
	if cfg.NATSURL != "" {
		publisher, err := natsadapter.NewPublisher(cfg.NATSURL)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer publisher.Close()
		events = publisher
	}

	userRepo := repository.NewUserRepository(db, logger)
	sessionRepo := repository.NewSessionRepository(db, logger)
	ticketRepo := repository.NewTicketRepository(db, logger)
	propertyRepo := repository.NewPropertyRepository(db, logger)
	reservationRepo := repository.NewReservationRepository(db, logger)
	staffRepo := repository.NewStaffRepository(db, logger)

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser,
		cfg.SMTPPassword, cfg.EmailsFrom, cfg.EmailsName, logger)
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	policy := auth.PasswordPolicy{MinLength: cfg.PasswordMinLength, MaxLength: cfg.PasswordMaxLength}

	authUsecase := usecase.NewAuthUsecase(userRepo, sessionRepo, ticketRepo, smtpMailer, codec, policy, usecase.AuthConfig{
		ServerHost:      cfg.ServerHost,
		FrontendURL:     cfg.FrontendURL,
		BcryptCost:      cfg.BcryptCost,
		RefreshTokenTTL: cfg.RefreshTokenTTL(),
	}, logger)
	propertyUsecase := usecase.NewPropertyUsecase(propertyRepo, reservationRepo, staffRepo, propertyCache, events, logger)

	authHandler := handler.NewAuthHandler(authUsecase, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(), logger)
	propertyHandler := handler.NewPropertyHandler(propertyUsecase, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(logger))
	if cfg.CORSOrigins != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	router.SetupAuthRoutes(r, authHandler, authUsecase)
	router.SetupPropertyRoutes(r, propertyHandler, authUsecase)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("Starting HTTP server", zap.String("address", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
