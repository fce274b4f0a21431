// Package knowledge is the client for the graph-shaped knowledge store.
// The store's query API executes named parameterized traversals and
// returns typed records; indexing and traversal internals stay on the
// server side.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	"github.com/corvid-labs/atlas/pkg/metrics"
)

const maxResponseSizeBytes = 4 << 20

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client executes traversal queries over the store's HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("knowledge store url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid knowledge store url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("knowledge store token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type queryResponse struct {
	Records []record `json:"records"`
	Error   string   `json:"error,omitempty"`
}

type record struct {
	Key    string         `json:"key"`
	Name   string         `json:"name,omitempty"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Query runs one named traversal. Store failures of any kind resolve to
// ErrUpstreamUnavailable so the tool layer can step down its ladder.
func (c *Client) Query(ctx context.Context, q contractx.TraversalQuery) ([]contractx.EntityRecord, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, fmt.Errorf("%w: traversal name is required", contractx.ErrValidation)
	}

	body, err := json.Marshal(map[string]any{
		"query":  q.Name,
		"params": q.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal traversal: %v", contractx.ErrValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build knowledge request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("knowledge_store").Inc()
		return nil, fmt.Errorf("%w: knowledge store: %v", contractx.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("knowledge_store").Inc()
		return nil, fmt.Errorf("%w: read knowledge response: %v", contractx.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, contractx.ErrNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.UpstreamFailures.WithLabelValues("knowledge_store").Inc()
		return nil, fmt.Errorf("%w: knowledge store status=%d", contractx.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.UpstreamFailures.WithLabelValues("knowledge_store").Inc()
		return nil, fmt.Errorf("%w: decode knowledge response: %v", contractx.ErrUpstreamUnavailable, err)
	}
	if parsed.Error != "" {
		metrics.UpstreamFailures.WithLabelValues("knowledge_store").Inc()
		return nil, fmt.Errorf("%w: knowledge store: %s", contractx.ErrUpstreamUnavailable, parsed.Error)
	}

	out := make([]contractx.EntityRecord, 0, len(parsed.Records))
	for _, r := range parsed.Records {
		out = append(out, contractx.EntityRecord{
			Key:      r.Key,
			Name:     r.Name,
			Category: contractx.Category(r.Type),
			Fields:   r.Fields,
		})
	}
	return out, nil
}

// Ping verifies the store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: knowledge store: %v", contractx.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: knowledge store health status=%d", contractx.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}
