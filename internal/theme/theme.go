// Package theme asks the server for the UI paddings that decide the overlay's
// height.
package theme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"spotlight/internal/store"
)

const requestTimeout = 5 * time.Second

var (
	ErrMissingField     = errors.New("theme response missing field")
	ErrUnexpectedStatus = errors.New("unexpected theme status")
)

// Padding is the vertical space the server's theme adds around the query box.
type Padding struct {
	Top, Bottom int
}

// WindowHeight returns base plus both paddings.
func (p Padding) WindowHeight(base int) int {
	return base + p.Top + p.Bottom
}

// Doer sends HTTP requests. tls_client.HttpClient satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches the theme from one server.
type Client struct {
	url  string
	doer Doer
}

// NewClient creates a client for url with a short request timeout.
func NewClient(url string) (*Client, error) {
	doer, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithTimeoutSeconds(int(requestTimeout/time.Second)),
		tls_client.WithNotFollowRedirects(),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	return NewClientWithDoer(url, doer), nil
}

// NewClientWithDoer creates a client that sends through doer.
func NewClientWithDoer(url string, doer Doer) *Client {
	return &Client{url: url, doer: doer}
}

// Fetch performs a single GET and parses AppPaddingTop and AppPaddingBottom.
func (c *Client) Fetch(ctx context.Context) (Padding, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Padding{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return Padding{}, fmt.Errorf("get theme: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Padding{}, fmt.Errorf("read theme: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Padding{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return Parse(body)
}

// Parse reads the paddings from a theme document. Both fields must be numbers.
// The server may wrap the theme in a Data envelope.
func Parse(body []byte) (Padding, error) {
	if !gjson.ValidBytes(body) {
		return Padding{}, fmt.Errorf("%w: invalid JSON", ErrMissingField)
	}
	doc := gjson.ParseBytes(body)
	if data := doc.Get("Data"); data.IsObject() {
		doc = data
	}

	top := doc.Get("AppPaddingTop")
	if top.Type != gjson.Number {
		return Padding{}, fmt.Errorf("%w: AppPaddingTop", ErrMissingField)
	}
	bottom := doc.Get("AppPaddingBottom")
	if bottom.Type != gjson.Number {
		return Padding{}, fmt.Errorf("%w: AppPaddingBottom", ErrMissingField)
	}
	return Padding{Top: int(top.Int()), Bottom: int(bottom.Int())}, nil
}

// Fetcher is satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context) (Padding, error)
}

// Cache is satisfied by *store.Store.
type Cache interface {
	SaveTheme(rec store.ThemeRecord) error
	LoadTheme(server string) (store.ThemeRecord, error)
}

// Source says where a resolved padding came from.
type Source string

const (
	SourceServer   Source = "server"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Resolve fetches the paddings once. A successful answer is cached under
// server; on failure the cached value is used, and without one the fallback.
// cache may be nil.
func Resolve(ctx context.Context, f Fetcher, cache Cache, server string, fallback Padding, logger *zap.Logger) (Padding, Source) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p, err := f.Fetch(ctx)
	if err == nil {
		if cache != nil {
			rec := store.ThemeRecord{Server: server, PaddingTop: p.Top, PaddingBottom: p.Bottom}
			if err := cache.SaveTheme(rec); err != nil {
				logger.Warn("cache theme failed", zap.Error(err))
			}
		}
		return p, SourceServer
	}
	logger.Info("theme query failed", zap.Error(err))

	if cache != nil {
		rec, err := cache.LoadTheme(server)
		if err == nil {
			logger.Info("using cached theme", zap.Time("updated_at", rec.UpdatedAt))
			return Padding{Top: rec.PaddingTop, Bottom: rec.PaddingBottom}, SourceCache
		}
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("load cached theme failed", zap.Error(err))
		}
	}
	return fallback, SourceFallback
}
