package tiles

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the tile server.
type Client struct {
	template   Template
	httpClient *http.Client
}

// NewClient creates a client for template.
func NewClient(template Template) *Client {
	return &Client{
		template:   template,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Healthcheck fetches the world tile 0/0/0 and expects an image back.
func (c *Client) Healthcheck() error {
	url, err := c.template.At(0, 0, 0, false)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("tile healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tile healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}
