// Package provider is an HTTP client for the third-party backlink and SERP data provider.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
)

const (
	opReferringDomains = "referring_domains"
	opOrganicResults   = "organic_results"

	maxErrorBodyBytes    = 1024
	maxResponseBodyBytes = 16 << 20
)

// OAuthConfig enables the OAuth2 client-credentials flow for provider requests.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// APIKey is sent as a bearer token when OAuth is not configured.
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	OAuth             *OAuthConfig
	HTTPClient        *http.Client
	Logger            *slog.Logger
	Metrics           statsd.Sink
}

// Client calls the provider's referring-domain and organic-results endpoints.
// All requests share a single rate limiter.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics statsd.Sink
}

var (
	_ core.BacklinkProvider = (*Client)(nil)
	_ core.SerpProvider     = (*Client)(nil)
)

// New constructs a provider client.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("provider base url is required")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid provider base url %q", base)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	if opts.OAuth != nil && opts.OAuth.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.OAuth.ClientID,
			ClientSecret: opts.OAuth.ClientSecret,
			TokenURL:     opts.OAuth.TokenURL,
			Scopes:       opts.OAuth.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		oauthClient := cc.Client(ctx)
		oauthClient.Timeout = hc.Timeout
		hc = oauthClient
	}

	rps := opts.RequestsPerSecond
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: u,
		apiKey:  strings.TrimSpace(opts.APIKey),
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With("component", "provider_client"),
		metrics: opts.Metrics,
	}, nil
}

type referringDomainsResponse struct {
	Items []struct {
		Domain    string     `json:"domain"`
		Rank      float64    `json:"rank"`
		SpamScore int        `json:"spam_score"`
		Traffic   int64      `json:"traffic"`
		Backlinks int        `json:"backlinks"`
		FirstSeen *time.Time `json:"first_seen"`
		LostDate  *time.Time `json:"lost_date"`
	} `json:"items"`
}

// ReferringDomains returns the raw referring domains for target.
func (c *Client) ReferringDomains(ctx context.Context, target string) ([]model.ReferringDomain, error) {
	q := url.Values{}
	q.Set("target", target)

	var resp referringDomainsResponse
	if err := c.get(ctx, opReferringDomains, "/v1/backlinks/referring-domains", q, &resp); err != nil {
		return nil, err
	}

	out := make([]model.ReferringDomain, 0, len(resp.Items))
	for _, it := range resp.Items {
		rd := model.ReferringDomain{
			Domain:    it.Domain,
			Rank:      it.Rank,
			SpamScore: it.SpamScore,
			Traffic:   it.Traffic,
			Backlinks: it.Backlinks,
			FirstSeen: utcPtr(it.FirstSeen),
			LostAt:    utcPtr(it.LostDate),
		}
		out = append(out, rd)
	}
	return out, nil
}

type organicResultsResponse struct {
	Items []struct {
		URL      string `json:"url"`
		Domain   string `json:"domain"`
		Position int    `json:"position"`
	} `json:"items"`
}

// OrganicResults returns the organic search results for keyword in location.
func (c *Client) OrganicResults(ctx context.Context, keyword, location string) ([]model.SerpResult, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("location", location)

	var resp organicResultsResponse
	if err := c.get(ctx, opOrganicResults, "/v1/serp/organic", q, &resp); err != nil {
		return nil, err
	}

	out := make([]model.SerpResult, 0, len(resp.Items))
	for _, it := range resp.Items {
		domain := it.Domain
		if domain == "" {
			domain = it.URL
		}
		if domain == "" {
			continue
		}
		out = append(out, model.SerpResult{Keyword: keyword, Domain: domain, Position: it.Position})
	}
	return out, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Op: op, Err: err}
	}

	start := time.Now()
	err := c.do(ctx, op, path, q, dst)
	c.observe(op, time.Since(start), err)
	return err
}

func (c *Client) do(ctx context.Context, op, path string, q url.Values, dst any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{StatusCode: resp.StatusCode, Op: op, Body: strings.TrimSpace(string(body))}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if decErr := dec.Decode(dst); decErr != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Op:         op,
			Err:        fmt.Errorf("%w: %w", ErrMalformedResponse, decErr),
		}
	}
	return nil
}

func (c *Client) observe(op string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
		c.logger.Warn("provider call failed", "op", op, "duration", d, "error", err)
	}
	if c.metrics == nil {
		return
	}
	tags := map[string]string{"op": op, "result": result}
	c.metrics.Count("provider.request", 1, tags)
	c.metrics.Timing("provider.request.duration", d, tags)
}
