// Package catalog wraps the remote tabular data service's search API. Every
// lookup is scoped to one tenant via the X-Company-ID header, paginated, and
// degrades to an empty page on any failure: a broken provider must never take
// the editor down, a picker simply shows no results.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
)

// Team is one record of the teams catalog.
type Team struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Logo     string `json:"logo"`
	LeagueID string `json:"leagueId"`
}

// League is one record of the leagues catalog.
type League struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Player is one record of the players catalog.
type Player struct {
	ID                string `json:"id" validate:"required"`
	Name              string `json:"name" validate:"required"`
	PositionAndNumber string `json:"positionAndNumber"`
	Image             string `json:"playerImage"`
}

// Sponsor is one record of the sponsors catalog. Logo is a reference URL
// into the catalog, not a hosted asset.
type Sponsor struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Logo string `json:"logo"`
}

// Image is one record of the image library.
type Image struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
	URL  string `json:"url" validate:"required"`
}

// Client talks to the catalog service for one tenant.
type Client struct {
	baseURL    string
	companyID  string
	httpClient *http.Client
	logger     *log.Logger
	validate   *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests, custom timeouts).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for degraded lookups.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a catalog client scoped to companyID.
func New(baseURL, companyID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		companyID:  companyID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.Default(),
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// page is the service's search envelope.
type page struct {
	Records json.RawMessage `json:"records"`
	HasMore bool            `json:"hasMore"`
}

// search runs one paginated lookup against a resource. Any failure is logged
// and returned as an empty page; records failing validation are dropped
// individually.
func search[T any](ctx context.Context, c *Client, resource, query string, pageNum int) ([]T, bool) {
	u, err := url.Parse(c.baseURL + "/" + resource)
	if err != nil {
		c.logger.Error("catalog lookup degraded", "resource", resource, "err", err)
		return nil, false
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("page", strconv.Itoa(pageNum))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		c.logger.Error("catalog lookup degraded", "resource", resource, "err", err)
		return nil, false
	}
	req.Header.Set("X-Company-ID", c.companyID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog lookup degraded", "resource", resource, "err", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("catalog lookup degraded",
			"resource", resource, "status", resp.StatusCode)
		return nil, false
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		c.logger.Error("catalog lookup degraded", "resource", resource, "err", err)
		return nil, false
	}

	var raw []T
	if len(p.Records) > 0 {
		if err := json.Unmarshal(p.Records, &raw); err != nil {
			c.logger.Error("catalog lookup degraded", "resource", resource, "err", err)
			return nil, false
		}
	}

	records := raw[:0]
	for _, r := range raw {
		if err := c.validate.Struct(r); err != nil {
			c.logger.Warn("dropping invalid catalog record", "resource", resource, "err", err)
			continue
		}
		records = append(records, r)
	}
	return records, p.HasMore
}

// SearchTeams looks up teams matching query.
func (c *Client) SearchTeams(ctx context.Context, query string, pageNum int) ([]Team, bool) {
	return search[Team](ctx, c, "teams", query, pageNum)
}

// SearchPlayers looks up players matching query.
func (c *Client) SearchPlayers(ctx context.Context, query string, pageNum int) ([]Player, bool) {
	return search[Player](ctx, c, "players", query, pageNum)
}

// SearchSponsors looks up sponsors matching query.
func (c *Client) SearchSponsors(ctx context.Context, query string, pageNum int) ([]Sponsor, bool) {
	return search[Sponsor](ctx, c, "sponsors", query, pageNum)
}

// SearchImages looks up library images matching query.
func (c *Client) SearchImages(ctx context.Context, query string, pageNum int) ([]Image, bool) {
	return search[Image](ctx, c, "images", query, pageNum)
}

// League resolves a single league by ID. Unknown leagues and failures both
// return nil so team expansion can fall through to empty league values.
func (c *Client) League(ctx context.Context, leagueID string) *League {
	u := fmt.Sprintf("%s/leagues/%s", c.baseURL, url.PathEscape(leagueID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Error("league lookup degraded", "league", leagueID, "err", err)
		return nil
	}
	req.Header.Set("X-Company-ID", c.companyID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("league lookup degraded", "league", leagueID, "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode != http.StatusNotFound {
			c.logger.Error("league lookup degraded",
				"league", leagueID, "status", resp.StatusCode)
		}
		return nil
	}

	var league League
	if err := json.NewDecoder(resp.Body).Decode(&league); err != nil {
		c.logger.Error("league lookup degraded", "league", leagueID, "err", err)
		return nil
	}
	return &league
}
