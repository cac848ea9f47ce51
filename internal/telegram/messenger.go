// Package telegram adapts the Telegram Bot API to the bot handler: a
// long-polling dispatcher for inbound updates and a messenger for replies
// and file downloads.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/anisearchapp/anisearch-bot/internal/bot"
	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
)

// BotAPI is the part of *tgbotapi.BotAPI the messenger uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// Fetcher downloads a URL with a size cap.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Messenger implements bot.Messenger over the Bot API.
type Messenger struct {
	api          BotAPI
	token        string
	fileEndpoint string
	fetcher      Fetcher
	logger       *slog.Logger
}

var _ bot.Messenger = (*Messenger)(nil)

// NewMessenger creates a messenger. token is needed to build file download
// links and is redacted from every error the messenger returns.
func NewMessenger(api BotAPI, token string, fetcher Fetcher, logger *slog.Logger) *Messenger {
	return &Messenger{
		api:          api,
		token:        token,
		fileEndpoint: tgbotapi.FileEndpoint,
		fetcher:      fetcher,
		logger:       logger,
	}
}

// Connect creates a Bot API client and verifies the token with getMe.
// An empty endpoint selects the public Bot API.
func Connect(token, endpoint string, pollTimeout time.Duration, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if err := tgbotapi.SetLogger(libraryLogger{logger: logger, token: token}); err != nil {
		return nil, err
	}

	// Long polls hold the request open for pollTimeout; leave headroom.
	client := &http.Client{Timeout: pollTimeout + 15*time.Second}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, domainerrors.Wrap(redact(err, token), domainerrors.CodeNetwork, "telegram connect")
	}

	logger.Info("telegram bot authorized", "username", api.Self.UserName, "bot_id", api.Self.ID)
	return api, nil
}

// Send posts an HTML message with link previews disabled.
func (m *Messenger) Send(ctx context.Context, chatID int64, text string) (bot.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return bot.MessageRef{}, err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent, err := m.api.Send(msg)
	if err != nil {
		return bot.MessageRef{}, m.wrapError("send message", err)
	}
	return bot.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Edit replaces the text of a previously sent message. Editing a message to
// its current text is not an error.
func (m *Messenger) Edit(ctx context.Context, ref bot.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true

	if _, err := m.api.Send(edit); err != nil {
		if apiErrorContains(err, "message is not modified") {
			return nil
		}
		return m.wrapError("edit message", err)
	}
	return nil
}

// FileInfo resolves a file id to its size and download path.
func (m *Messenger) FileInfo(ctx context.Context, fileID string) (bot.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return bot.FileInfo{}, err
	}

	f, err := m.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return bot.FileInfo{}, m.wrapError("get file", err)
	}
	return bot.FileInfo{ID: f.FileID, Size: int64(f.FileSize), Path: f.FilePath}, nil
}

// Download fetches the file contents through the size-capped fetcher.
func (m *Messenger) Download(ctx context.Context, f bot.FileInfo) ([]byte, error) {
	if f.Path == "" {
		return nil, domainerrors.Validation("file has no download path")
	}

	data, err := m.fetcher.Fetch(ctx, fmt.Sprintf(m.fileEndpoint, m.token, f.Path))
	if err != nil {
		return nil, domainerrors.Wrap(redact(err, m.token), domainerrors.CodeOf(err), "download telegram file")
	}

	m.logger.Debug("file downloaded", "file_id", f.ID, "bytes", len(data))
	return data, nil
}

// wrapError classifies Bot API failures. Oversized files are reported by
// getFile as "file is too big".
func (m *Messenger) wrapError(op string, err error) error {
	code := domainerrors.CodeNetwork
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		code = domainerrors.CodeUpstreamRejected
		if strings.Contains(apiErr.Message, "file is too big") {
			code = domainerrors.CodeTooLarge
		}
	}
	return domainerrors.Wrapf(redact(err, m.token), code, "telegram %s", op)
}

func apiErrorContains(err error, s string) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, s)
}

// redact removes the bot token from err's text. Transport errors quote the
// request URL, which embeds the token.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}

// libraryLogger routes the Bot API library's own log output to slog.
type libraryLogger struct {
	logger *slog.Logger
	token  string
}

func (l libraryLogger) Println(v ...any) {
	l.log(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l libraryLogger) Printf(format string, v ...any) {
	l.log(fmt.Sprintf(format, v...))
}

func (l libraryLogger) log(msg string) {
	if l.token != "" {
		msg = strings.ReplaceAll(msg, l.token, "<token>")
	}
	l.logger.Warn(msg, "source", "tgbotapi")
}
