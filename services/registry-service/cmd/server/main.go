// The portal server: registration, login, password reset, and the admin API,
// plus the pending-approval notification poller.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/config"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/handler"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/poller"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/remote"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/reset"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/usecase"
	"github.com/vasapolrittideah/member-portal-api/shared/auth"
	"github.com/vasapolrittideah/member-portal-api/shared/mailer"
	"github.com/vasapolrittideah/member-portal-api/shared/provider"
	"github.com/vasapolrittideah/member-portal-api/shared/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "registry").Logger()

	cfg := config.Load(&logger)

	mode, err := usecase.ParseMode(cfg.BackendMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid backend mode")
	}

	ctx := context.Background()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	direct := repository.NewUserMongoBackend(ctx, &logger, client.Database(cfg.MongoDatabase))

	var remoteBackend repository.UserBackend
	if mode == usecase.ModeRemote {
		serviceAuth := auth.NewJWTAuthenticator("user-api", cfg.TokenIssuer)
		remoteClient, err := remote.NewClient(remote.Options{
			BaseURL:       cfg.UserAPIBaseURL,
			ConsulService: cfg.UserAPIConsulService,
			Timeout:       cfg.UserAPITimeout,
			Secret:        cfg.ServiceTokenSecret,
		}, serviceAuth, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create user api client")
		}
		remoteBackend = remoteClient
	}

	tokens := reset.NewMemoryStore(cfg.ResetTokenTTL)
	directory := usecase.NewUserDirectory(mode, direct, remoteBackend, tokens, &logger)

	m := mailer.NewMailer(&logger)

	marker, err := poller.OpenMarker(cfg.NotifyMarkerPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open notification marker")
	}

	p := poller.New(directory, poller.NewMailNotifier(m, cfg.AdminEmail), marker, poller.Config{
		Interval:  cfg.PollerInterval,
		Threshold: cfg.PendingAgeThreshold,
		Cooldown:  cfg.NotifyCooldown,
	}, &logger)
	p.Start(ctx)
	defer p.Stop()

	validate, err := validator.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create validator")
	}

	var google *provider.GoogleOAuthProvider
	if cfg.GoogleClientID != "" {
		google = provider.NewGoogleOAuthProvider(cfg.GoogleClientID)
	}

	accessAuth := auth.NewJWTAuthenticator(cfg.TokenIssuer, cfg.TokenIssuer)
	h := handler.NewHandler(directory, validate, accessAuth, m, google, cfg, &logger)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h.Routes(),
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("mode", cfg.BackendMode).Msg("portal server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
}
