// Package webhook delivers analysis-completed events to generic HTTP endpoints.
package webhook

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

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 15 * time.Second

// Config describes one webhook destination.
type Config struct {
	Name string
	URL  string
	// BodyTransform is an optional JMESPath expression applied to the event before posting.
	BodyTransform string
	Headers       map[string]string
	Timeout       time.Duration
	Client        *http.Client
}

// Sink posts JSON events to a webhook URL.
type Sink struct {
	name      string
	url       string
	transform func(data any) (any, error)
	headers   map[string]string
	timeout   time.Duration
	client    *http.Client
}

// New validates the config and compiles the body transform.
func New(cfg Config) (*Sink, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, errors.New("webhook url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", raw)
	}

	var transform func(data any) (any, error)
	if expr := strings.TrimSpace(cfg.BodyTransform); expr != "" {
		compiled, err := jmespath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile body transform: %w", err)
		}
		transform = compiled.Search
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{}
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = u.Host
	}

	return &Sink{
		name:      name,
		url:       u.String(),
		transform: transform,
		headers:   cfg.Headers,
		timeout:   timeout,
		client:    hc,
	}, nil
}

// Name implements notify.CompletionSink.
func (s *Sink) Name() string { return s.name }

// SendAnalysisCompleted implements notify.CompletionSink.
func (s *Sink) SendAnalysisCompleted(ctx context.Context, event notify.AnalysisCompletedEvent) error {
	body, err := s.body(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s request failed: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook %s %s: %s", s.name, resp.Status, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// body encodes the event, applying the transform to its generic JSON form when configured.
func (s *Sink) body(event notify.AnalysisCompletedEvent) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	if s.transform == nil {
		return raw, nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	out, err := s.transform(data)
	if err != nil {
		return nil, fmt.Errorf("apply body transform: %w", err)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode transformed body: %w", err)
	}
	return b, nil
}
