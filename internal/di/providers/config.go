// Package providers contains dependency injection providers for the AniSearch bot.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/anisearchapp/anisearch-bot/internal/config"
	"github.com/anisearchapp/anisearch-bot/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting AniSearch bot",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"postgres", cfg.Database.IsPostgres(),
		"tracemoe_url", cfg.TraceMoe.BaseURL,
		"health_addr", cfg.Health.Addr,
	)

	return log, nil
}
