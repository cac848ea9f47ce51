package providers

import (
	"github.com/samber/do/v2"

	"github.com/anisearchapp/anisearch-bot/internal/config"
	"github.com/anisearchapp/anisearch-bot/internal/logger"
	"github.com/anisearchapp/anisearch-bot/internal/tracemoe"
)

// ProvideTraceMoeClient provides the trace.moe search client.
func ProvideTraceMoeClient(i do.Injector) (*tracemoe.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := tracemoe.New(log.Component("tracemoe"),
		tracemoe.WithBaseURL(cfg.TraceMoe.BaseURL),
		tracemoe.WithAPIKey(cfg.TraceMoe.APIKey),
	)

	log.Info("Search client configured",
		"base_url", cfg.TraceMoe.BaseURL,
		"api_key", cfg.TraceMoe.APIKey != "",
	)

	return client, nil
}
