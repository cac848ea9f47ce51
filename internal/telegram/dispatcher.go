package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/anisearchapp/anisearch-bot/internal/bot"
	"github.com/anisearchapp/anisearch-bot/internal/id"
)

// DefaultUpdateTimeout bounds the handling of a single update.
const DefaultUpdateTimeout = 2 * time.Minute

// UpdateSource delivers inbound updates. *tgbotapi.BotAPI implements it.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler receives routed events.
type Handler interface {
	HandleStart(ctx context.Context, ev bot.StartEvent)
	HandlePhoto(ctx context.Context, ev bot.PhotoEvent)
}

// Dispatcher long-polls for updates and handles each one on its own
// goroutine.
type Dispatcher struct {
	source        UpdateSource
	handler       Handler
	logger        *slog.Logger
	pollTimeout   time.Duration
	updateTimeout time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(source UpdateSource, handler Handler, pollTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		source:        source,
		handler:       handler,
		logger:        logger,
		pollTimeout:   pollTimeout,
		updateTimeout: DefaultUpdateTimeout,
	}
}

// Run polls until ctx is canceled or the update channel closes, then waits
// for in-flight handlers before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(d.pollTimeout / time.Second)
	cfg.AllowedUpdates = []string{"message"}

	updates := d.source.GetUpdatesChan(cfg)
	d.logger.Info("polling for updates", "poll_timeout", d.pollTimeout)

	defer d.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			d.Stop()
			d.logger.Info("update polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				d.logger.Info("update channel closed")
				return nil
			}
			d.Dispatch(ctx, upd)
		}
	}
}

// Stop stops the long poll. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(d.source.StopReceivingUpdates)
}

// Wait blocks until every dispatched update has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch routes one update to the handler on a new goroutine. Handlers
// outlive cancellation of ctx so in-flight replies still reach the user.
func (d *Dispatcher) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	corrID, err := id.Generate(id.PrefixUpdate)
	if err != nil {
		corrID = fmt.Sprintf("%s-%d", id.PrefixUpdate, upd.UpdateID)
	}

	ev := route(upd, corrID)
	if ev == nil {
		d.logger.Debug("update ignored", "update_id", upd.UpdateID)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("panic while handling update",
					"update_id", upd.UpdateID,
					"correlation_id", corrID,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()

		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.updateTimeout)
		defer cancel()

		switch e := ev.(type) {
		case bot.StartEvent:
			d.handler.HandleStart(hctx, e)
		case bot.PhotoEvent:
			d.handler.HandlePhoto(hctx, e)
		}
	}()
}

// route converts an update into a handler event, or nil when the bot has
// nothing to do with it.
func route(upd tgbotapi.Update, corrID string) any {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}

	from := bot.Sender{ID: msg.From.ID, Username: msg.From.UserName}

	if msg.IsCommand() {
		if msg.Command() == "start" {
			return bot.StartEvent{UpdateID: corrID, ChatID: msg.Chat.ID, From: from}
		}
		return nil
	}

	if len(msg.Photo) == 0 {
		return nil
	}

	photos := make([]bot.PhotoSize, len(msg.Photo))
	for i, p := range msg.Photo {
		photos[i] = bot.PhotoSize{
			FileID:   p.FileID,
			Width:    p.Width,
			Height:   p.Height,
			FileSize: int64(p.FileSize),
		}
	}

	var date time.Time
	if msg.Date > 0 {
		date = msg.Time()
	}

	return bot.PhotoEvent{
		UpdateID: corrID,
		ChatID:   msg.Chat.ID,
		From:     from,
		Photos:   photos,
		Date:     date,
	}
}
