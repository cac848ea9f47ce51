// Package bot turns chat events into registry checks, image searches and
// replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
	"github.com/anisearchapp/anisearch-bot/internal/tracemoe"
)

// DefaultMaxFileSize is the largest photo the bot will download.
const DefaultMaxFileSize = 20 << 20

// replyTimeout bounds the final placeholder edit, which runs even after the
// update's own deadline has passed.
const replyTimeout = 10 * time.Second

// Deps are the collaborators of a Handler. Enricher is optional.
type Deps struct {
	Registry   Registry
	Normalizer Normalizer
	Searcher   Searcher
	Enricher   Enricher
	Messenger  Messenger
}

// Handler handles /start commands and photo messages.
type Handler struct {
	registry    Registry
	normalizer  Normalizer
	searcher    Searcher
	enricher    Enricher
	messenger   Messenger
	logger      *slog.Logger
	maxFileSize int64
	now         func() time.Time
}

// New creates a new handler.
func New(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{
		registry:    deps.Registry,
		normalizer:  deps.Normalizer,
		searcher:    deps.Searcher,
		enricher:    deps.Enricher,
		messenger:   deps.Messenger,
		logger:      logger,
		maxFileSize: DefaultMaxFileSize,
		now:         time.Now,
	}
}

// HandleStart registers the user if needed and sends the welcome message.
func (h *Handler) HandleStart(ctx context.Context, ev StartEvent) {
	log := h.logger.With("update_id", ev.UpdateID, "user_id", ev.From.ID, "chat_id", ev.ChatID)

	if _, err := h.registry.GetOrCreate(ctx, ev.From.ID, ev.From.Username); err != nil {
		log.Error("register user failed", "error", err)
		h.send(ctx, log, ev.ChatID, msgGenericError)
		return
	}

	h.send(ctx, log, ev.ChatID, msgWelcome)
}

// HandlePhoto runs the search flow for a photo message. Failures are logged
// and reported to the user; nothing is returned to the transport.
func (h *Handler) HandlePhoto(ctx context.Context, ev PhotoEvent) {
	log := h.logger.With("update_id", ev.UpdateID, "user_id", ev.From.ID, "chat_id", ev.ChatID)

	at := ev.Date
	if at.IsZero() {
		at = h.now()
	}

	if _, err := h.registry.GetOrCreate(ctx, ev.From.ID, ev.From.Username); err != nil {
		log.Error("register user failed", "error", err)
		h.send(ctx, log, ev.ChatID, msgGenericError)
		return
	}
	if err := h.registry.TouchActivity(ctx, ev.From.ID, at); err != nil {
		log.Error("touch activity failed", "error", err)
		h.send(ctx, log, ev.ChatID, msgGenericError)
		return
	}

	blocked, err := h.registry.IsBlocked(ctx, ev.From.ID)
	if err != nil {
		log.Error("blocked check failed", "error", err)
		h.send(ctx, log, ev.ChatID, msgGenericError)
		return
	}
	if blocked {
		log.Info("blocked user ignored")
		h.send(ctx, log, ev.ChatID, msgBlocked)
		return
	}

	ref, err := h.messenger.Send(ctx, ev.ChatID, msgSearching)
	if err != nil {
		log.Error("send placeholder failed", "error", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during search", "panic", r, "stack", string(debug.Stack()))
			h.edit(ctx, log, ref, msgGenericError)
		}
	}()

	text, err := h.search(ctx, log, ev)
	if err != nil {
		text = msgGenericError
		if errors.Is(err, domainerrors.ErrTooLarge) {
			text = msgTooLarge
			log.Info("photo rejected", "error", err)
		} else {
			log.Error("photo search failed", "error", err)
		}
	}

	h.edit(ctx, log, ref, text)
}

// search returns the reply text for a photo. Search failures read as "not
// found"; other errors are returned.
func (h *Handler) search(ctx context.Context, log *slog.Logger, ev PhotoEvent) (string, error) {
	photo, ok := pickPhoto(ev.Photos)
	if !ok {
		return "", domainerrors.Validation("message has no photo")
	}

	if photo.FileSize > h.maxFileSize {
		return "", domainerrors.TooLargef("photo is %d bytes", photo.FileSize)
	}

	info, err := h.messenger.FileInfo(ctx, photo.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve file: %w", err)
	}
	if info.Size > h.maxFileSize {
		return "", domainerrors.TooLargef("file is %d bytes", info.Size)
	}

	raw, err := h.messenger.Download(ctx, info)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}

	payload := h.normalizer.Normalize(raw)
	log.Debug("photo normalized",
		"raw_size", len(raw),
		"size", len(payload.Data),
		"quality", payload.Quality,
		"scale", payload.Scale,
		"passthrough", payload.Passthrough,
	)

	results, err := h.searcher.Search(ctx, payload)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("search: %w", ctxErr)
		}
		log.Warn("search returned no result", "error", err, "code", domainerrors.CodeOf(err))
		return msgNotFound, nil
	}
	if len(results) == 0 {
		log.Info("no match")
		return msgNotFound, nil
	}

	best := h.enrich(ctx, log, results[0])
	log.Info("match found",
		"anilist_id", best.AniList.ID,
		"similarity", best.Similarity,
		"candidates", len(results),
	)
	return FormatMatch(best), nil
}

// enrich fills in the title of a result that arrived with only a catalog id.
func (h *Handler) enrich(ctx context.Context, log *slog.Logger, r tracemoe.Result) tracemoe.Result {
	if h.enricher == nil || r.AniList.ID <= 0 || r.AniList.Title.Preferred() != "" {
		return r
	}

	anime, err := h.enricher.GetAnime(ctx, r.AniList.ID)
	if err != nil {
		log.Warn("anilist lookup failed", "anilist_id", r.AniList.ID, "error", err)
		return r
	}

	r.AniList.Title = anime.Title
	r.AniList.IsAdult = anime.IsAdult
	if len(r.AniList.Synonyms) == 0 {
		r.AniList.Synonyms = anime.Synonyms
	}
	return r
}

// pickPhoto chooses the second-largest variant when several are offered,
// which is plenty for scene matching and cheaper to download.
func pickPhoto(photos []PhotoSize) (PhotoSize, bool) {
	switch len(photos) {
	case 0:
		return PhotoSize{}, false
	case 1:
		return photos[0], true
	default:
		return photos[len(photos)-2], true
	}
}

func (h *Handler) send(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	if _, err := h.messenger.Send(ctx, chatID, text); err != nil {
		log.Error("send message failed", "error", err)
	}
}

// edit replaces the placeholder text. The edit is detached from ctx so a
// placeholder is still resolved when the update ran out of time.
func (h *Handler) edit(ctx context.Context, log *slog.Logger, ref MessageRef, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()

	if err := h.messenger.Edit(ctx, ref, text); err != nil {
		log.Error("edit message failed", "message_id", ref.MessageID, "error", err)
	}
}
