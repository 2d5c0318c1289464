// Package renderer wraps the video-rendering collaborator: it takes the
// template source graph exported by the main preview and blocks for a single
// terminal result. The graph is minified before submission, exported sources
// carry a lot of engine pretty-printing.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tdewolff/minify/v2"
	mjson "github.com/tdewolff/minify/v2/json"

	"github.com/stasautomadic/templatesync"
)

// Client submits render jobs over HTTP. It satisfies templatesync.Renderer.
type Client struct {
	renderURL  string
	httpClient *http.Client
	minifier   *minify.M
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Renders are long-running, the
// default timeout is generous.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a render client.
func New(renderURL string, opts ...Option) *Client {
	m := minify.New()
	m.AddFunc("application/json", mjson.Minify)

	c := &Client{
		renderURL:  renderURL,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		minifier:   m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render submits the source graph and waits for the terminal result. A
// transport or non-2xx failure is returned as an error; a job that finishes
// unsuccessfully is returned as a result carrying the collaborator's status
// and message, the caller's state machine decides what the user sees.
func (c *Client) Render(ctx context.Context, source json.RawMessage) (templatesync.RenderResult, error) {
	minified, err := c.minifier.Bytes("application/json", source)
	if err != nil {
		// Unminifiable source still renders, just larger on the wire.
		minified = source
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.renderURL, bytes.NewReader(minified))
	if err != nil {
		return templatesync.RenderResult{}, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return templatesync.RenderResult{}, fmt.Errorf("submit render: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return templatesync.RenderResult{}, fmt.Errorf("render collaborator returned %d", resp.StatusCode)
	}

	var result templatesync.RenderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return templatesync.RenderResult{}, fmt.Errorf("decode render result: %w", err)
	}
	return result, nil
}
