package bot

import (
	"context"
	"time"

	"github.com/anisearchapp/anisearch-bot/internal/domain"
	"github.com/anisearchapp/anisearch-bot/internal/media/images"
	"github.com/anisearchapp/anisearch-bot/internal/tracemoe"
)

// Registry is the user registry the handler consults.
type Registry interface {
	GetOrCreate(ctx context.Context, id int64, username string) (*domain.User, error)
	TouchActivity(ctx context.Context, id int64, at time.Time) error
	IsBlocked(ctx context.Context, id int64) (bool, error)
}

// Normalizer prepares raw photo bytes for upload.
type Normalizer interface {
	Normalize(raw []byte) images.Payload
}

// Searcher runs a reverse image search.
type Searcher interface {
	Search(ctx context.Context, p images.Payload) ([]tracemoe.Result, error)
}

// Enricher looks up catalog entries by id.
type Enricher interface {
	GetAnime(ctx context.Context, id int) (*tracemoe.Anime, error)
}

// Messenger is the chat transport as seen by the handler.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string) error
	FileInfo(ctx context.Context, fileID string) (FileInfo, error)
	Download(ctx context.Context, f FileInfo) ([]byte, error)
}

// MessageRef identifies a sent message so it can be edited.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// FileInfo describes a file hosted by the transport.
type FileInfo struct {
	ID   string
	Size int64 // 0 when the transport did not report it
	Path string
}

// Sender is the user behind an inbound event.
type Sender struct {
	ID       int64
	Username string
}

// PhotoSize is one resolution variant of an inbound photo. Transports list
// variants from smallest to largest.
type PhotoSize struct {
	FileID   string
	Width    int
	Height   int
	FileSize int64
}

// StartEvent is a /start command.
type StartEvent struct {
	UpdateID string // correlation id for logs
	ChatID   int64
	From     Sender
}

// PhotoEvent is an inbound photo message.
type PhotoEvent struct {
	UpdateID string // correlation id for logs
	ChatID   int64
	From     Sender
	Photos   []PhotoSize
	Date     time.Time
}
