package download

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
)

func newTestDownloader(t *testing.T, maxSize int64, handler http.HandlerFunc) (*Downloader, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	d := NewDownloader(maxSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.httpClient = server.Client()
	return d, server.URL
}

func TestFetch_Success(t *testing.T) {
	body := []byte("\xff\xd8 jpeg bytes")
	d, url := newTestDownloader(t, 1024, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(body)
	})

	data, err := d.Fetch(context.Background(), url+"/file/bot123/photos/file_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestFetch_ExactlyAtLimit(t *testing.T) {
	d, url := newTestDownloader(t, 16, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(bytes.Repeat([]byte{'a'}, 16))
	})

	data, err := d.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Len(t, data, 16)
}

func TestFetch_TooLargeByContentLength(t *testing.T) {
	d, url := newTestDownloader(t, 16, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "64")
		w.Write(bytes.Repeat([]byte{'a'}, 64))
	})

	_, err := d.Fetch(context.Background(), url)
	assert.ErrorIs(t, err, domainerrors.ErrTooLarge)
}

func TestFetch_TooLargeChunked(t *testing.T) {
	d, url := newTestDownloader(t, 16, func(w http.ResponseWriter, _ *http.Request) {
		for range 4 {
			w.Write(bytes.Repeat([]byte{'a'}, 8))
			w.(http.Flusher).Flush()
		}
	})

	_, err := d.Fetch(context.Background(), url)
	assert.ErrorIs(t, err, domainerrors.ErrTooLarge)
}

func TestFetch_StatusError(t *testing.T) {
	d, url := newTestDownloader(t, 16, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := d.Fetch(context.Background(), url)
	assert.ErrorIs(t, err, domainerrors.ErrNetwork)
	assert.ErrorContains(t, err, "status 404")
}

func TestFetch_EmptyURL(t *testing.T) {
	d := NewDownloader(0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := d.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, int64(DefaultMaxSize), d.maxSize)
}

func TestFetch_CanceledContext(t *testing.T) {
	d, url := newTestDownloader(t, 16, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Fetch(ctx, url)
	assert.ErrorIs(t, err, domainerrors.ErrNetwork)
}
