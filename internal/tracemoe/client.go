// Package tracemoe is a client for the trace.moe anime scene search API.
package tracemoe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/anisearchapp/anisearch-bot/internal/media/images"
	"github.com/anisearchapp/anisearch-bot/internal/validation"
)

const (
	// DefaultBaseURL is the public trace.moe API.
	DefaultBaseURL = "https://api.trace.moe"

	searchTimeout = 30 * time.Second
	lookupTimeout = 10 * time.Second

	// maxResponseSize bounds the JSON bodies the client will read.
	maxResponseSize = 4 << 20
)

// Client submits images to trace.moe.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	validate *validation.Validator
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another deployment of the API.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIKey sends key in the x-trace-key header for a higher quota.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a new trace.moe client.
func New(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: searchTimeout},
		baseURL:  DefaultBaseURL,
		validate: validation.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// outcome classifies one submission attempt.
type outcome int

const (
	outcomeSuccess     outcome = iota
	outcomeFallthrough         // try the next strategy
	outcomeTerminal            // give up
)

type attempt struct {
	outcome outcome
	results []Result
	err     error
}

func succeeded(results []Result) attempt { return attempt{outcome: outcomeSuccess, results: results} }
func fellThrough(err error) attempt      { return attempt{outcome: outcomeFallthrough, err: err} }
func terminated(err error) attempt       { return attempt{outcome: outcomeTerminal, err: err} }

// Search submits the image as a multipart upload and, when that does not
// succeed, once more as an inline base64 JSON body. The returned results
// have already been narrowed by Select. There are no further retries.
func (c *Client) Search(ctx context.Context, p images.Payload) ([]Result, error) {
	a := c.submitMultipart(ctx, p)
	if a.outcome == outcomeFallthrough {
		c.logger.Warn("multipart search failed, retrying inline", "error", a.err)
		a = c.submitInline(ctx, p)
	}

	if a.outcome != outcomeSuccess {
		return nil, a.err
	}

	selected := Select(a.results)
	c.logger.Debug("search finished",
		"results", len(a.results),
		"selected", len(selected),
	)
	return selected, nil
}

func (c *Client) submitMultipart(ctx context.Context, p images.Payload) attempt {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="image.jpg"`)
	h.Set("Content-Type", p.ContentType())
	part, err := mw.CreatePart(h)
	if err != nil {
		return terminated(wrapError("multipart", err))
	}
	if _, err := part.Write(p.Data); err != nil {
		return terminated(wrapError("multipart", err))
	}
	if err := mw.Close(); err != nil {
		return terminated(wrapError("multipart", err))
	}

	results, err := c.postSearch(ctx, &body, mw.FormDataContentType())
	if err != nil {
		if ctx.Err() != nil {
			return terminated(wrapError("multipart", err))
		}
		return fellThrough(wrapError("multipart", err))
	}
	return succeeded(results)
}

func (c *Client) submitInline(ctx context.Context, p images.Payload) attempt {
	payload, err := json.Marshal(map[string]string{
		"image": "data:" + p.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
	})
	if err != nil {
		return terminated(wrapError("inline", err))
	}

	results, err := c.postSearch(ctx, bytes.NewReader(payload), "application/json")
	if err != nil {
		return terminated(wrapError("inline", err))
	}
	return succeeded(results)
}

// postSearch sends one search request and decodes a successful response.
func (c *Client) postSearch(ctx context.Context, body io.Reader, contentType string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("anilistInfo", "true")
	query.Set("cutBorders", "true")

	raw, err := c.doRequest(ctx, http.MethodPost, "/search?"+query.Encode(), body, contentType)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, resp.Error)
	}

	return c.keepValid(resp.Result)
}

// keepValid drops candidates that fail validation and clamps negative scene
// offsets to zero. A non-empty list with no usable candidate is invalid.
func (c *Client) keepValid(results []Result) ([]Result, error) {
	kept := make([]Result, 0, len(results))
	var lastErr error
	for i, r := range results {
		if err := c.validate.Validate(r); err != nil {
			c.logger.Warn("dropping invalid candidate", "index", i, "error", err)
			lastErr = err
			continue
		}
		r.From = max(r.From, 0)
		r.To = max(r.To, 0)
		kept = append(kept, r)
	}
	if len(kept) == 0 && lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, lastErr)
	}
	return kept, nil
}

// doRequest executes an HTTP request and maps the status code.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AniSearchBot/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("x-trace-key", c.apiKey)
	}

	c.logger.Debug("tracemoe request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusRequestEntityTooLarge:
		return nil, ErrPayloadTooLarge
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, snippet(data))
	}
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
