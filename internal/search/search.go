// Package search wraps the web-search provider used for contact
// enrichment.
package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/breakoutai/automail/internal/apiclient"
)

// DefaultBaseURL is the SerpAPI-compatible search endpoint.
const DefaultBaseURL = "https://serpapi.com/search"

// Config holds search provider settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Engine      string
	ResultCount int
}

// Client issues search queries.
type Client struct {
	cfg Config
	api *apiclient.Client
}

// NewClient creates a search client using the shared retry policy.
func NewClient(cfg Config, api *apiclient.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Engine == "" {
		cfg.Engine = "google"
	}
	if cfg.ResultCount == 0 {
		cfg.ResultCount = 100
	}
	return &Client{cfg: cfg, api: api}
}

// OrganicResult is one search hit.
type OrganicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Response is the subset of the provider payload the enricher consumes:
// the structured knowledge panel plus the organic result list.
type Response struct {
	KnowledgeGraph map[string]any  `json:"knowledge_graph"`
	OrganicResults []OrganicResult `json:"organic_results"`
}

// Search runs one query and returns the parsed response.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	q := url.Values{}
	q.Set("engine", c.cfg.Engine)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(c.cfg.ResultCount))
	q.Set("api_key", c.cfg.APIKey)

	var resp Response
	err := c.api.DoJSON(ctx, apiclient.Request{
		Method: http.MethodGet,
		URL:    c.cfg.BaseURL,
		Query:  q,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}
