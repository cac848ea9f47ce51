package providers

import (
	"github.com/samber/do/v2"

	"github.com/anisearchapp/anisearch-bot/internal/bot"
	"github.com/anisearchapp/anisearch-bot/internal/config"
	"github.com/anisearchapp/anisearch-bot/internal/logger"
	"github.com/anisearchapp/anisearch-bot/internal/media/download"
	"github.com/anisearchapp/anisearch-bot/internal/media/images"
)

// ProvideNormalizer provides the image normalizer.
func ProvideNormalizer(i do.Injector) (*images.Normalizer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewNormalizer(cfg.Image.MaxBytes, log.Component("normalizer")), nil
}

// ProvideDownloader provides the size-capped file downloader.
func ProvideDownloader(i do.Injector) (*download.Downloader, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return download.NewDownloader(bot.DefaultMaxFileSize, log.Component("download")), nil
}
