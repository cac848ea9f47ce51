// Package di provides dependency injection configuration for the AniSearch bot.
package di

import (
	"github.com/samber/do/v2"

	"github.com/anisearchapp/anisearch-bot/internal/bot"
	"github.com/anisearchapp/anisearch-bot/internal/config"
	"github.com/anisearchapp/anisearch-bot/internal/di/providers"
	"github.com/anisearchapp/anisearch-bot/internal/logger"
	"github.com/anisearchapp/anisearch-bot/internal/media/download"
	"github.com/anisearchapp/anisearch-bot/internal/media/images"
	"github.com/anisearchapp/anisearch-bot/internal/service"
	"github.com/anisearchapp/anisearch-bot/internal/telegram"
	"github.com/anisearchapp/anisearch-bot/internal/tracemoe"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideRegistry)

	// Media and search
	do.Provide(injector, providers.ProvideNormalizer)
	do.Provide(injector, providers.ProvideDownloader)
	do.Provide(injector, providers.ProvideTraceMoeClient)

	// Chat transport
	do.Provide(injector, providers.ProvideBotAPI)
	do.Provide(injector, providers.ProvideMessenger)
	do.Provide(injector, providers.ProvideHandler)
	do.Provide(injector, providers.ProvideDispatcher)

	// Server
	do.Provide(injector, providers.ProvideHealthServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// Invoking the dispatcher starts polling for updates.
func Bootstrap(injector *do.RootScope) (err error) {
	// MustInvoke panics on provider errors; report them as a bootstrap failure.
	defer func() {
		if r := recover(); r != nil {
			err = bootstrapError(r)
		}
	}()

	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*service.Registry](injector)
	_ = do.MustInvoke[*images.Normalizer](injector)
	_ = do.MustInvoke[*download.Downloader](injector)
	_ = do.MustInvoke[*tracemoe.Client](injector)
	_ = do.MustInvoke[*telegram.Messenger](injector)
	_ = do.MustInvoke[*bot.Handler](injector)

	// Server first so probes answer while the bot starts polling.
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.DispatcherHandle](injector)

	return nil
}
