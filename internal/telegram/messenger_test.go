package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisearchapp/anisearch-bot/internal/bot"
	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
	"github.com/anisearchapp/anisearch-bot/internal/media/download"
)

const testToken = "123456:TEST-token"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBotAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	sendErr error
	file    tgbotapi.File
	fileErr error
	nextID  int
}

func (f *fakeBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeBotAPI) GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error) {
	if f.fileErr != nil {
		return tgbotapi.File{}, f.fileErr
	}
	file := f.file
	file.FileID = config.FileID
	return file, nil
}

func TestMessenger_SendUsesHTMLWithoutPreviews(t *testing.T) {
	api := &fakeBotAPI{}
	m := NewMessenger(api, testToken, nil, testLogger())

	ref, err := m.Send(context.Background(), 500, "<b>hi</b>")
	require.NoError(t, err)

	assert.Equal(t, bot.MessageRef{ChatID: 500, MessageID: 1}, ref)
	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(500), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
	assert.Equal(t, "<b>hi</b>", msg.Text)
}

func TestMessenger_Edit(t *testing.T) {
	api := &fakeBotAPI{}
	m := NewMessenger(api, testToken, nil, testLogger())

	require.NoError(t, m.Edit(context.Background(), bot.MessageRef{ChatID: 500, MessageID: 9}, "done"))

	edit, ok := api.sent[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, int64(500), edit.ChatID)
	assert.Equal(t, 9, edit.MessageID)
	assert.Equal(t, tgbotapi.ModeHTML, edit.ParseMode)
	assert.True(t, edit.DisableWebPagePreview)
}

func TestMessenger_EditNotModifiedIsNotAnError(t *testing.T) {
	api := &fakeBotAPI{sendErr: &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}}
	m := NewMessenger(api, testToken, nil, testLogger())

	assert.NoError(t, m.Edit(context.Background(), bot.MessageRef{ChatID: 1, MessageID: 1}, "same"))
}

func TestMessenger_SendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *domainerrors.Error
	}{
		{"api rejection", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}, domainerrors.ErrUpstreamRejected},
		{"transport", errors.New(`Post "https://api.telegram.org/bot` + testToken + `/sendMessage": EOF`), domainerrors.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMessenger(&fakeBotAPI{sendErr: tt.err}, testToken, nil, testLogger())

			_, err := m.Send(context.Background(), 1, "x")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.NotContains(t, err.Error(), testToken)
		})
	}
}

func TestMessenger_SendCanceledContext(t *testing.T) {
	api := &fakeBotAPI{}
	m := NewMessenger(api, testToken, nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Send(ctx, 1, "x")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}

func TestMessenger_FileInfo(t *testing.T) {
	api := &fakeBotAPI{file: tgbotapi.File{FileSize: 81_234, FilePath: "photos/file_7.jpg"}}
	m := NewMessenger(api, testToken, nil, testLogger())

	info, err := m.FileInfo(context.Background(), "AgACAgQ")
	require.NoError(t, err)

	assert.Equal(t, bot.FileInfo{ID: "AgACAgQ", Size: 81_234, Path: "photos/file_7.jpg"}, info)
}

func TestMessenger_FileInfoTooBig(t *testing.T) {
	api := &fakeBotAPI{fileErr: &tgbotapi.Error{Code: 400, Message: "Bad Request: file is too big"}}
	m := NewMessenger(api, testToken, nil, testLogger())

	_, err := m.FileInfo(context.Background(), "huge")

	assert.ErrorIs(t, err, domainerrors.ErrTooLarge)
}

func TestMessenger_Download(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	m := NewMessenger(&fakeBotAPI{}, testToken, download.NewDownloader(1024, testLogger()), testLogger())
	m.fileEndpoint = srv.URL + "/file/bot%s/%s"

	data, err := m.Download(context.Background(), bot.FileInfo{ID: "f", Path: "photos/file_7.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []byte("jpeg bytes"), data)
	assert.Equal(t, "/file/bot"+testToken+"/photos/file_7.jpg", gotPath)
}

func TestMessenger_DownloadTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	m := NewMessenger(&fakeBotAPI{}, testToken, download.NewDownloader(1024, testLogger()), testLogger())
	m.fileEndpoint = srv.URL + "/file/bot%s/%s"

	_, err := m.Download(context.Background(), bot.FileInfo{Path: "photos/big.jpg"})

	assert.ErrorIs(t, err, domainerrors.ErrTooLarge)
}

func TestMessenger_DownloadRedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	m := NewMessenger(&fakeBotAPI{}, testToken, download.NewDownloader(1024, testLogger()), testLogger())
	m.fileEndpoint = srv.URL + "/file/bot%s/%s"

	_, err := m.Download(context.Background(), bot.FileInfo{Path: "photos/x.jpg"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrNetwork)
	assert.NotContains(t, err.Error(), testToken)
}

func TestMessenger_DownloadWithoutPath(t *testing.T) {
	m := NewMessenger(&fakeBotAPI{}, testToken, nil, testLogger())

	_, err := m.Download(context.Background(), bot.FileInfo{ID: "f"})

	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

// fakeTelegram serves the Bot API methods the bot calls.
func fakeTelegram(t *testing.T, sent chan<- map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 401, "description": "Unauthorized"})
			return
		}
		if !assert.NoError(t, r.ParseForm()) {
			return
		}

		var result any
		switch strings.TrimPrefix(r.URL.Path, prefix) {
		case "getMe":
			result = map[string]any{"id": 42, "is_bot": true, "first_name": "AniSearch", "username": "anisearch_bot"}
		case "sendMessage":
			form := map[string]string{}
			for k := range r.PostForm {
				form[k] = r.PostForm.Get(k)
			}
			sent <- form
			result = map[string]any{"message_id": 77, "date": time.Now().Unix(), "chat": map[string]any{"id": 500, "type": "private"}}
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 404, "description": "Not Found"})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}))
}

func TestConnect_AgainstFakeBotAPI(t *testing.T) {
	sent := make(chan map[string]string, 1)
	srv := fakeTelegram(t, sent)
	defer srv.Close()

	api, err := Connect(testToken, srv.URL+"/bot%s/%s", time.Second, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "anisearch_bot", api.Self.UserName)

	m := NewMessenger(api, testToken, nil, testLogger())
	ref, err := m.Send(context.Background(), 500, "🔍 Searching...")
	require.NoError(t, err)
	assert.Equal(t, 77, ref.MessageID)

	form := <-sent
	assert.Equal(t, "500", form["chat_id"])
	assert.Equal(t, "HTML", form["parse_mode"])
	assert.Equal(t, "true", form["disable_web_page_preview"])
	assert.Equal(t, "🔍 Searching...", form["text"])
}

func TestConnect_BadToken(t *testing.T) {
	srv := fakeTelegram(t, nil)
	defer srv.Close()

	_, err := Connect("999:wrong", srv.URL+"/bot%s/%s", time.Second, testLogger())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "999:wrong")
}

func TestLibraryLogger_RedactsToken(t *testing.T) {
	var buf strings.Builder
	l := libraryLogger{logger: slog.New(slog.NewTextHandler(&buf, nil)), token: testToken}

	l.Println("Post", "https://api.telegram.org/bot"+testToken+"/getUpdates", "timeout")
	l.Printf("retrying in %d seconds", 3)

	out := buf.String()
	assert.NotContains(t, out, testToken)
	assert.Contains(t, out, "bot<token>/getUpdates")
	assert.Contains(t, out, "retrying in 3 seconds")
	assert.Contains(t, out, "source=tgbotapi")
}
