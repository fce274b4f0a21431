// Package relationship is the client for the external CRM-style service
// holding live records for people, organizations, and deals. The service
// is rate limited; callers share one request budget and the client backs
// off once on a 429 before giving up.
package relationship

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	logx "github.com/corvid-labs/atlas/pkg/logger"
	"github.com/corvid-labs/atlas/pkg/metrics"
)

const maxResponseSizeBytes = 1 << 20

// LiveCategories are the entity categories with a CRM counterpart.
var LiveCategories = map[contractx.Category]bool{
	contractx.CategoryPerson:       true,
	contractx.CategoryOrganization: true,
}

type Config struct {
	URL            string        `envconfig:"URL" split_words:"true" required:"true"`
	APIKey         string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout        time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"8s"`
	RequestsPerSec float64       `envconfig:"REQUESTS_PER_SEC" split_words:"true" default:"5"`
	Burst          int           `envconfig:"BURST" split_words:"true" default:"10"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("relationship service url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid relationship service url: %w", err)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("relationship service api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     logx.Component("relationship"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type entityResponse struct {
	Key    string         `json:"key"`
	Name   string         `json:"name,omitempty"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Lookup fetches the live record for one entity. 404 maps to ErrNotFound,
// everything else that fails maps to ErrUpstreamUnavailable.
func (c *Client) Lookup(ctx context.Context, category contractx.Category, key string) (contractx.EntityRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return contractx.EntityRecord{}, fmt.Errorf("%w: entity key is required", contractx.ErrValidation)
	}
	if !LiveCategories[category] {
		return contractx.EntityRecord{}, fmt.Errorf("%w: no live counterpart for category=%s", contractx.ErrNotFound, category)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return contractx.EntityRecord{}, fmt.Errorf("%w: rate budget: %v", contractx.ErrUpstreamUnavailable, err)
	}

	rec, retryAfter, err := c.fetch(ctx, category, key)
	if retryAfter <= 0 {
		return rec, err
	}

	// One backoff on 429, honoring Retry-After, then give up.
	c.log.Debug().
		Str("key", key).
		Dur("retry_after", retryAfter).
		Msg("rate limited, backing off once")
	select {
	case <-ctx.Done():
		return contractx.EntityRecord{}, fmt.Errorf("%w: %v", contractx.ErrUpstreamUnavailable, ctx.Err())
	case <-time.After(retryAfter):
	}

	rec, retryAfter, err = c.fetch(ctx, category, key)
	if retryAfter > 0 {
		metrics.UpstreamFailures.WithLabelValues("relationship_service").Inc()
		return contractx.EntityRecord{}, fmt.Errorf("%w: relationship service still rate limited", contractx.ErrUpstreamUnavailable)
	}
	return rec, err
}

// fetch performs one lookup attempt. A positive retryAfter means the
// service answered 429.
func (c *Client) fetch(ctx context.Context, category contractx.Category, key string) (contractx.EntityRecord, time.Duration, error) {
	endpoint := fmt.Sprintf("%s/entities/%s/%s", c.baseURL, url.PathEscape(string(category)), url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return contractx.EntityRecord{}, 0, fmt.Errorf("build relationship request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("relationship_service").Inc()
		return contractx.EntityRecord{}, 0, fmt.Errorf("%w: relationship service: %v", contractx.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("relationship_service").Inc()
		return contractx.EntityRecord{}, 0, fmt.Errorf("%w: read relationship response: %v", contractx.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return contractx.EntityRecord{}, 0, contractx.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return contractx.EntityRecord{}, retryAfterOf(resp), nil
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		metrics.UpstreamFailures.WithLabelValues("relationship_service").Inc()
		return contractx.EntityRecord{}, 0, fmt.Errorf("%w: relationship service status=%d", contractx.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed entityResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.UpstreamFailures.WithLabelValues("relationship_service").Inc()
		return contractx.EntityRecord{}, 0, fmt.Errorf("%w: decode relationship response: %v", contractx.ErrUpstreamUnavailable, err)
	}

	return contractx.EntityRecord{
		Key:      parsed.Key,
		Name:     parsed.Name,
		Category: category,
		Fields:   parsed.Fields,
	}, 0, nil
}

func retryAfterOf(resp *http.Response) time.Duration {
	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if header == "" {
		return time.Second
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}
