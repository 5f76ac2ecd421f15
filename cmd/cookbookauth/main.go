package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/you/cookbookauth/internal/app"
	"github.com/you/cookbookauth/internal/config"
	"github.com/you/cookbookauth/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml (defaults to CONFIG_PATH or "+config.DefaultPath+")")
	purge := flag.Bool("purge-expired-tokens", false, "delete expired bearer and remember-me tokens, then exit")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *purge {
		if err := purgeExpired(ctx, cfg, logger); err != nil {
			logger.Fatal("purge expired tokens", zap.Error(err))
		}
		return
	}

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Fatal("app", zap.Error(err))
	}
}

func purgeExpired(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	c, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	_, err = c.PurgeExpiredTokens(ctx)
	return err
}
