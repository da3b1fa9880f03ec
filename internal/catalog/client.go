// Package catalog wraps the external book catalog search API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	errors "github.com/hexlibris/bookbot/internal/errors"
	"github.com/hexlibris/bookbot/internal/flow"
	"github.com/hexlibris/bookbot/pkg/config"
	"github.com/hexlibris/bookbot/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Client queries a Google-Books-style volumes endpoint and returns the first
// usable hit. It implements flow.BookFinder.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// New builds a catalog client with a bounded request timeout.
func New(cfg config.CatalogConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type volumesResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title      string `json:"title"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// SearchBook looks the query up in the catalog. Transport failures are retried
// with bounded backoff; empty result lists and hits without cover art surface
// as flow.ErrBookNotFound / flow.ErrNoCoverImage so the dialog can re-prompt.
func (c *Client) SearchBook(ctx context.Context, query string) (*flow.Volume, error) {
	endpoint := fmt.Sprintf("%s/books/v1/volumes?q=%s", c.baseURL, url.QueryEscape(query))

	var payload volumesResponse
	err := errors.WithRetry(ctx, func() error {
		return c.fetchVolumes(ctx, endpoint, &payload)
	})
	if err != nil {
		metrics.RecordLookup("transport_error")
		c.log.Error("catalog lookup failed", slog.String("query", query), slog.Any("error", err))
		return nil, err
	}

	if len(payload.Items) == 0 {
		metrics.RecordLookup("not_found")
		return nil, errors.NewLookupError(fmt.Errorf("%w: %q", flow.ErrBookNotFound, query))
	}

	info := payload.Items[0].VolumeInfo
	if info.ImageLinks.Thumbnail == "" {
		metrics.RecordLookup("no_cover")
		return nil, errors.NewLookupError(fmt.Errorf("%w: %q", flow.ErrNoCoverImage, query))
	}

	title := info.Title
	if title == "" {
		title = query
	}

	metrics.RecordLookup("ok")

	return &flow.Volume{
		Title:        title,
		ThumbnailURL: info.ImageLinks.Thumbnail,
	}, nil
}

func (c *Client) fetchVolumes(ctx context.Context, endpoint string, payload *volumesResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.NewTransportError("catalog", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransportError("catalog", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransportError("catalog", err)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.NewTransportError("catalog", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body))
	}

	*payload = volumesResponse{}
	if err := json.Unmarshal(body, payload); err != nil {
		return errors.NewTransportError("catalog", fmt.Errorf("decode response: %w", err))
	}

	return nil
}
