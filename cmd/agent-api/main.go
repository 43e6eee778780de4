package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/agent"
	"github.com/notiva/notiva-agent/internal/api"
	"github.com/notiva/notiva-agent/internal/config"
	"github.com/notiva/notiva-agent/internal/llm"
	"github.com/notiva/notiva-agent/internal/ratelimit"
	"github.com/notiva/notiva-agent/internal/research"
	"github.com/notiva/notiva-agent/internal/store/postgres"
)

type server interface {
	Start(ctx context.Context, addr string) error
}

var (
	loadConfig = func() (config.Config, error) {
		return config.Load(), nil
	}
	newStore = func(conn string) (*postgres.PostgresStore, error) {
		return postgres.New(conn)
	}
	newLogger = func() (*zap.Logger, error) {
		return zap.NewProduction()
	}
	newServer = func(st *postgres.PostgresStore, engine *agent.Engine, provider llm.Provider, limiter *ratelimit.Cooldown, auth api.Authenticator, cfg config.Config, logger *zap.Logger) server {
		return api.NewServer(st, engine, provider, limiter, auth, cfg, logger)
	}
	notifyContext = signal.NotifyContext
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := newStore(cfg.PostgresURL)
	if err != nil {
		return err
	}

	textProvider := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.TextModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	searchProvider := llm.NewOpenAISearchProvider(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.ResearchModel,
		BaseURL: cfg.OpenAIBaseURL,
	})

	pipeline := research.NewPipeline(searchProvider, logger)
	engine := agent.NewEngine(textProvider, pipeline, st, logger, cfg.ResearchMaxOpenURLs)
	limiter := ratelimit.NewCooldown(time.Duration(cfg.ResearchCooldownMs) * time.Millisecond)
	auth := api.NewTokenAuthenticator(cfg.APITokens)

	srv := newServer(st, engine, textProvider, limiter, auth, cfg, logger)

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	logger.Info("agent api listening", zap.String("addr", addr))
	return srv.Start(ctx, addr)
}
