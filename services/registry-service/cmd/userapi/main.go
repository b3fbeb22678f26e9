// The internal user API server: the canonical user store's HTTP surface,
// called by portal instances running in remote backend mode.
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

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/apiserver"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/config"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/shared/auth"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "user-api").Logger()

	cfg := config.LoadUserAPI(&logger)

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

	backend := repository.NewUserMongoBackend(ctx, &logger, client.Database(cfg.MongoDatabase))

	jwtAuth := auth.NewJWTAuthenticator("user-api", cfg.TokenIssuer)
	h := apiserver.NewHandler(backend, &logger)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h.Routes(jwtAuth, cfg.ServiceTokenSecret),
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("user api listening")
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
