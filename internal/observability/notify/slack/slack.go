// Package slack posts analysis notifications to a Slack incoming webhook.
package slack

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
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL        string
	Channel           string
	Username          string
	Timeout           time.Duration
	RetryLimit        int
	Client            *http.Client
	AnalysisURLPrefix string
}

// Client delivers analysis notifications to a Slack webhook.
type Client struct {
	webhookURL        string
	channel           string
	username          string
	retryLimit        int
	analysisURLPrefix string
	client            *http.Client
}

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		webhookURL:        webhookURL,
		channel:           strings.TrimSpace(cfg.Channel),
		username:          fallbackString(strings.TrimSpace(cfg.Username), "linkscore"),
		retryLimit:        max(cfg.RetryLimit, 0),
		analysisURLPrefix: strings.TrimSpace(cfg.AnalysisURLPrefix),
		client:            hc,
	}, nil
}

// send encodes the message and posts it, retrying with a linear backoff.
func (c *Client) send(ctx context.Context, text string) error {
	msg := map[string]any{
		"text":     text,
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * 200 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("slack webhook %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain slack response body: %w", err)
	}
	return nil
}

// analysisRef renders the analysis id, linked when a URL prefix is configured.
func (c *Client) analysisRef(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	escaped := escapeSlackText(id)
	link := c.buildAnalysisLink(id)
	if link == "" {
		return "`" + escaped + "`"
	}
	return fmt.Sprintf("<%s|%s>", link, escaped)
}

func (c *Client) buildAnalysisLink(id string) string {
	if c.analysisURLPrefix == "" {
		return ""
	}
	u, err := url.Parse(c.analysisURLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	link, err := url.JoinPath(u.String(), id)
	if err != nil {
		return ""
	}
	return link
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func escapeSlackText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func appendSlackField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}
