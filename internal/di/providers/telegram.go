package providers

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do/v2"

	"github.com/anisearchapp/anisearch-bot/internal/bot"
	"github.com/anisearchapp/anisearch-bot/internal/config"
	"github.com/anisearchapp/anisearch-bot/internal/logger"
	"github.com/anisearchapp/anisearch-bot/internal/media/download"
	"github.com/anisearchapp/anisearch-bot/internal/media/images"
	"github.com/anisearchapp/anisearch-bot/internal/service"
	"github.com/anisearchapp/anisearch-bot/internal/telegram"
	"github.com/anisearchapp/anisearch-bot/internal/tracemoe"
)

// ProvideBotAPI provides an authorized Bot API client.
func ProvideBotAPI(i do.Injector) (*tgbotapi.BotAPI, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return telegram.Connect(cfg.Telegram.Token, "", cfg.Telegram.PollTimeout, log.Component("telegram"))
}

// ProvideMessenger provides the chat messenger.
func ProvideMessenger(i do.Injector) (*telegram.Messenger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	api := do.MustInvoke[*tgbotapi.BotAPI](i)
	downloader := do.MustInvoke[*download.Downloader](i)

	return telegram.NewMessenger(api, cfg.Telegram.Token, downloader, log.Component("telegram")), nil
}

// ProvideHandler provides the update handler.
func ProvideHandler(i do.Injector) (*bot.Handler, error) {
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*tracemoe.Client](i)

	return bot.New(bot.Deps{
		Registry:   do.MustInvoke[*service.Registry](i),
		Normalizer: do.MustInvoke[*images.Normalizer](i),
		Searcher:   client,
		Enricher:   client,
		Messenger:  do.MustInvoke[*telegram.Messenger](i),
	}, log.Component("bot")), nil
}

// DispatcherHandle wraps the running dispatcher for lifecycle management.
type DispatcherHandle struct {
	*telegram.Dispatcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable. It stops polling and waits for
// in-flight updates.
func (h *DispatcherHandle) Shutdown() error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-time.After(shutdownTimeout):
		return errors.New("dispatcher: timed out waiting for in-flight updates")
	}
}

// ProvideDispatcher starts polling for updates in the background.
func ProvideDispatcher(i do.Injector) (*DispatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	api := do.MustInvoke[*tgbotapi.BotAPI](i)
	handler := do.MustInvoke[*bot.Handler](i)

	dispatcher := telegram.NewDispatcher(api, handler, cfg.Telegram.PollTimeout, log.Component("dispatcher"))

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := dispatcher.Run(ctx); err != nil {
			log.WithError(err).Error("Dispatcher stopped")
		}
	}()

	log.Info("Bot running", "poll_timeout", cfg.Telegram.PollTimeout)

	return &DispatcherHandle{Dispatcher: dispatcher, cancel: cancel, done: done}, nil
}
