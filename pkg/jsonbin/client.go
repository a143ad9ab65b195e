package jsonbin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Config holds the bin endpoint and its access key.
type Config struct {
	URL       string
	MasterKey string
	Timeout   time.Duration
}

// Client reads and replaces a single JSON bin. The bin is always handled as a
// whole: there is no partial update, versioning or locking.
type Client struct {
	httpClient *http.Client
	url        string
	masterKey  string
	debug      bool
}

// NewClient constructs a new bin client with sane defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		masterKey:  cfg.MasterKey,
		debug:      os.Getenv("ENV") == "development",
	}
}

// Endpoint returns the bin URL.
func (c *Client) Endpoint() string {
	return c.url
}

// Get returns the raw body of the bin.
func (c *Client) Get(ctx context.Context) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, nil)
}

// Put replaces the bin with body.
func (c *Client) Put(ctx context.Context, body []byte) error {
	_, err := c.doRequest(ctx, http.MethodPut, body)
	return err
}

func (c *Client) doRequest(ctx context.Context, method string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.masterKey != "" {
		req.Header.Set("X-Master-Key", c.masterKey)
	}

	if c.debug {
		log.Debug().Str("method", method).Str("url", c.url).Int("bytes", len(body)).Msg("[JSONBIN] Outgoing request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().Str("method", method).Int("status_code", resp.StatusCode).Int("bytes", len(respBody)).Msg("[JSONBIN] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %d: %s", ErrStatus, method, resp.StatusCode, truncate(respBody, 200))
	}
	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
