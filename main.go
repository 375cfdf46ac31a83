package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreybb/recipes/api"
	"github.com/coreybb/recipes/auth"
	"github.com/coreybb/recipes/config"
	"github.com/coreybb/recipes/datastore"
	"github.com/coreybb/recipes/logging"
	"github.com/coreybb/recipes/migrations"
	"github.com/coreybb/recipes/models"
	rh "github.com/coreybb/recipes/route-handlers"
	"github.com/coreybb/recipes/services"
	"github.com/coreybb/recipes/storage"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	slog.SetDefault(logging.NewJSONSlog(os.Stdout, cfg.LogLevel))
	if cfg.SecretKey == "changeme" {
		slog.Warn("SECRET_KEY not set, using the development default")
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	logger := logging.NewSlogLogger(slog.Default())

	db, err := datastore.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("database setup failed: %w", err)
	}
	defer db.Close()
	slog.Info("Database connection successful")

	if err := migrations.Up(ctx, db); err != nil {
		return err
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	userRepo := datastore.NewUserRepository(db)
	tagRepo := datastore.NewTagRepository(db)
	ingredientRepo := datastore.NewIngredientRepository(db)
	recipeRepo := datastore.NewRecipeRepository(db)

	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.TokenTTL)
	userService := services.NewUserService(userRepo, tokens, logger)
	imageService := services.NewRecipeImageService(recipeRepo, blobs, logger)

	router := api.SetupRoutes(api.Handlers{
		Users:       rh.NewUserHandler(userService),
		Tags:        rh.NewAttributeHandler[models.Tag](tagRepo),
		Ingredients: rh.NewAttributeHandler[models.Ingredient](ingredientRepo),
		Recipes:     rh.NewRecipeHandler(recipeRepo),
		Images:      rh.NewRecipeImageHandler(imageService, cfg.MaxUploadBytes),
	}, api.RequireAuth(tokens, userService), api.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	return startServer(cfg.Addr, router)
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		slog.Info("Using S3 image storage", "bucket", cfg.S3Bucket)
		return s, nil
	default:
		slog.Info("Using local image storage", "root", cfg.MediaRoot)
		return storage.NewLocalStore(cfg.MediaRoot), nil
	}
}

func startServer(addr string, router http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-shutdownSignal: // Block until signal received
	}
	slog.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("Server gracefully stopped")
	return nil
}
