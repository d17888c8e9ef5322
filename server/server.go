// Package server assembles the HTTP server: the echo instance, the
// metadata store, the warehouse runner and the AI provider.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/internal/profile"
	"github.com/sqltalk/sqltalk/server/ai"
	"github.com/sqltalk/sqltalk/server/router/apiv1"
	"github.com/sqltalk/sqltalk/server/sqlrunner"
	"github.com/sqltalk/sqltalk/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	runner     *sqlrunner.Runner
	apiService *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}))
	e.Use(requestLogger())

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
		runner:     sqlrunner.NewRunner(nil),
	}

	var client apiv1.AIClient
	if profile.IsAIEnabled() {
		// The postgres training_item schema pins the pgvector column
		// width, so a mismatched embedding size would fail on every
		// insert.
		if profile.Driver == "postgres" && profile.AIDimensions != ai.DefaultEmbeddingDimensions {
			return nil, errors.Errorf(
				"embedding dimensions %d do not match the postgres vector schema width %d",
				profile.AIDimensions, ai.DefaultEmbeddingDimensions)
		}
		provider, err := ai.NewProvider(&ai.Config{
			BaseURL:        profile.AIBaseURL,
			APIKey:         profile.AIAPIKey,
			EmbeddingModel: profile.AIEmbeddingModel,
			ChatModel:      profile.AIChatModel,
			Dimensions:     profile.AIDimensions,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create AI provider")
		}
		client = provider
	} else {
		slog.Warn("AI is not enabled, ask and sql endpoints will reply 503")
	}

	s.apiService = apiv1.NewAPIV1Service(profile, store, s.runner, client)
	s.apiService.Register(e)

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("mode", s.Profile.Mode))
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.runner.Close(); err != nil {
		slog.Error("failed to close warehouse connections", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server shutdown")
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", c.Response().Status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			)
			return err
		}
	}
}
