package imgbb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultURL is the public upload endpoint.
const DefaultURL = "https://api.imgbb.com/1/upload"

// UploadResponse is the subset of the upload response the shop relies on.
type UploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
}

// Client uploads images as base64 payloads.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient constructs an image host client. An empty endpoint uses DefaultURL.
func NewClient(endpoint, apiKey string) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

// Upload sends the image and returns its public URL. Any failure is logged and
// reported as an empty string.
func (c *Client) Upload(ctx context.Context, image []byte, name string) string {
	if len(image) == 0 {
		return ""
	}
	u, err := c.upload(ctx, image, name)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Image upload failed")
		return ""
	}
	return u
}

func (c *Client) upload(ctx context.Context, image []byte, name string) (string, error) {
	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(image))
	if name != "" {
		form.Set("name", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload returned status %d", resp.StatusCode)
	}

	var out UploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("upload response without url")
	}
	return out.Data.URL, nil
}
