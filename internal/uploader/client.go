// Package uploader wraps the file-hosting collaborator. Unlike catalog
// lookups, upload failures are surfaced to the caller: there is no fallback
// for a missing asset, the user has to see the alert and keep the old value.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"
)

// Client posts files to the upload collaborator and returns hosted URLs.
type Client struct {
	uploadURL  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates an upload client.
func New(uploadURL string, opts ...Option) *Client {
	c := &Client{
		uploadURL:  uploadURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uploadResponse is the collaborator's reply.
type uploadResponse struct {
	URL string `json:"url"`
}

// Upload posts one file as multipart form data and returns its hosted URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload %s: collaborator returned %d", filename, resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("upload %s: collaborator returned no URL", filename)
	}
	return parsed.URL, nil
}

// UploadFromURL fetches a remote asset and re-hosts it through Upload. Used
// for sponsor logos, whose catalog stores reference URLs rather than hosted
// assets.
func (c *Client) UploadFromURL(ctx context.Context, srcURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch asset: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch asset %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch asset %s: status %d", srcURL, resp.StatusCode)
	}

	filename := path.Base(srcURL)
	if filename == "." || filename == "/" {
		filename = "asset"
	}
	return c.Upload(ctx, filename, resp.Body)
}
