package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gym360/backend/internal/api"
	"gym360/backend/internal/config"
	"gym360/backend/internal/logger"
	"gym360/backend/internal/repository/mongo"
	"gym360/backend/internal/service"
	"gym360/backend/internal/storage"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// @title gym360 API
// @version 1.0
// @description Session requests, admin approval and coach notifications.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	os.Exit(run())
}

// run starts the server and blocks until it stops. It returns the process
// exit code; every deferred cleanup has run by the time it returns.
func run() int {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		charmlog.Fatal("could not load config", "err", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		charmlog.Fatal("could not set up logging", "err", err)
	}
	log.Info("starting gym360 server", "address", cfg.Server.Address)

	// --- Database ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal("could not connect to MongoDB", "err", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("failed to disconnect MongoDB", "err", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connected", "name", cfg.Database.Name, "transactions", cfg.Database.Transactions)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), time.Minute)
	for collection, err := range mongo.EnsureIndexes(indexCtx, appDB) {
		log.Error("index creation failed", "collection", collection, "err", err)
	}
	cancelIndexes()

	// --- Storage ---
	fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3, log)
	if err != nil {
		log.Error("failed to initialize S3 storage", "err", err)
		return 1
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	requestRepo := mongo.NewMongoSessionRequestRepository(appDB)
	feedbackRepo := mongo.NewMongoFeedbackRepository(appDB)
	subscriptionRepo := mongo.NewMongoSubscriptionRepository(appDB)
	paymentRepo := mongo.NewMongoPaymentRepository(appDB)
	transactor := mongo.NewTransactor(dbClient, cfg.Database.Transactions)

	// --- Services ---
	services := api.Services{
		Auth:           service.NewAuthService(userRepo, profileRepo, cfg.JWT.Secret, cfg.JWT.Expiration, log),
		Profile:        service.NewProfileService(userRepo, fileStorage, log),
		SessionRequest: service.NewSessionRequestService(requestRepo, sessionRepo, profileRepo, transactor, log),
		Session:        service.NewSessionService(sessionRepo, requestRepo, profileRepo, log),
		Feedback:       service.NewFeedbackService(feedbackRepo, sessionRepo, profileRepo, log),
		CoachClient:    service.NewCoachClientService(profileRepo, sessionRepo, log),
		Billing:        service.NewBillingService(subscriptionRepo, paymentRepo, profileRepo, log),
	}

	if cfg.Admin.Email != "" {
		seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := services.Auth.EnsureAdmin(seedCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Error("admin seeding failed", "email", cfg.Admin.Email, "err", err)
		}
		cancelSeed()
	}

	// --- HTTP ---
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(log, cfg.Server.Origins())
	api.SetupRoutes(router, cfg.JWT.Secret, services, log)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Listener failures go through the same shutdown path as signals so the
	// deferred database disconnect still runs.
	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	log.Info("server listening", "address", cfg.Server.Address)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	if err := waitForStop(quit, serveErr); err != nil {
		log.Error("listen failed", "err", err)
		exitCode = 1
	}
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", "err", err)
	}
	log.Info("server exiting")
	return exitCode
}

// waitForStop blocks until a shutdown signal or a listener failure. It
// returns the failure, or nil for a signal.
func waitForStop(quit <-chan os.Signal, serveErr <-chan error) error {
	select {
	case <-quit:
		return nil
	case err := <-serveErr:
		return err
	}
}
