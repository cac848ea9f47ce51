// Package download fetches transport-hosted files with a size cap.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
)

const (
	// DefaultMaxSize is the largest file the Bot API lets bots download.
	DefaultMaxSize = 20 << 20

	// downloadTimeout is the maximum time for a single download.
	downloadTimeout = 30 * time.Second
)

// Downloader fetches files over HTTP.
type Downloader struct {
	httpClient *http.Client
	maxSize    int64
	logger     *slog.Logger
}

// NewDownloader creates a downloader that refuses bodies above maxSize
// bytes. A non-positive maxSize selects DefaultMaxSize.
func NewDownloader(maxSize int64, logger *slog.Logger) *Downloader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: downloadTimeout},
		maxSize:    maxSize,
		logger:     logger,
	}
}

// Fetch downloads url. Bodies larger than the cap fail with
// errors.ErrTooLarge, transport problems with errors.ErrNetwork.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, domainerrors.Validation("empty download URL")
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeNetwork, "download")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.ErrNetwork.WithCause(fmt.Errorf("download failed: status %d", resp.StatusCode))
	}

	if resp.ContentLength > d.maxSize {
		return nil, domainerrors.TooLargef("file is %d bytes, limit %d", resp.ContentLength, d.maxSize)
	}

	// Read one byte past the cap so an oversized body is detected rather
	// than silently truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeNetwork, "read body")
	}
	if int64(len(data)) > d.maxSize {
		return nil, domainerrors.TooLargef("file exceeds %d bytes", d.maxSize)
	}

	d.logger.Debug("file downloaded", "size", len(data))

	return data, nil
}
