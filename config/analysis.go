package config

import (
	"fmt"
	"strings"
	"time"
)

// RankScale selects how provider ranks are normalized to 0-100.
type RankScale string

const (
	// RankScaleAuto treats ranks as 0-1000 when any rank observed within one analysis exceeds 100.
	RankScaleAuto RankScale = "auto"
	RankScale100  RankScale = "100"
	RankScale1000 RankScale = "1000"
)

// UnmarshalText implements encoding.TextUnmarshaler for RankScale.
func (r *RankScale) UnmarshalText(text []byte) error {
	v := RankScale(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case RankScaleAuto, RankScale100, RankScale1000:
		*r = v
		return nil
	case "":
		*r = RankScaleAuto
		return nil
	default:
		return fmt.Errorf("invalid RankScale: %q (valid options: auto, 100, 1000)", v)
	}
}

// ProviderConfig configures the backlink/SERP data provider client and gateway.
type ProviderConfig struct {
	BaseURL string        `env:"PROVIDER_BASE_URL" envDefault:"https://api.backlinkdata.example"`
	APIKey  string        `env:"PROVIDER_API_KEY"`
	Timeout time.Duration `env:"PROVIDER_TIMEOUT"  envDefault:"60s"`

	// RequestsPerSecond and Burst configure the client-side rate limiter.
	RequestsPerSecond float64 `env:"PROVIDER_RPS"   envDefault:"5"`
	Burst             int     `env:"PROVIDER_BURST" envDefault:"2"`

	// Concurrency bounds per-competitor backlink fetches within a job.
	Concurrency int `env:"PROVIDER_CONCURRENCY" envDefault:"2"`

	MaxAttempts  int           `env:"PROVIDER_MAX_ATTEMPTS"  envDefault:"3"`
	RetryBackoff time.Duration `env:"PROVIDER_RETRY_BACKOFF" envDefault:"1s"`

	RankScale RankScale `env:"PROVIDER_RANK_SCALE" envDefault:"auto"`
	MinRank   int       `env:"PROVIDER_MIN_RANK"   envDefault:"20"`
	MaxSpam   int       `env:"PROVIDER_MAX_SPAM"   envDefault:"30"`

	// OAuth client credentials. When ClientID is set the client fetches bearer tokens instead of using APIKey.
	OAuthTokenURL     string   `env:"PROVIDER_OAUTH_TOKEN_URL"`
	OAuthClientID     string   `env:"PROVIDER_OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"PROVIDER_OAUTH_CLIENT_SECRET"`
	OAuthScopes       []string `env:"PROVIDER_OAUTH_SCOPES"        envSeparator:","`
}

// Sanitize applies guardrails to provider configuration values.
func (p *ProviderConfig) Sanitize() {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	p.APIKey = strings.TrimSpace(p.APIKey)
	if p.Timeout <= 0 {
		p.Timeout = 60 * time.Second
	}
	if p.Burst < 1 {
		p.Burst = 1
	}
	if p.Concurrency < 1 {
		p.Concurrency = 1
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.MaxAttempts > 5 {
		p.MaxAttempts = 5
	}
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = time.Second
	}
	if p.RankScale == "" {
		p.RankScale = RankScaleAuto
	}
	if p.MinRank < 0 {
		p.MinRank = 0
	}
	if p.MaxSpam < 0 {
		p.MaxSpam = 0
	}
	if strings.TrimSpace(p.OAuthTokenURL) == "" {
		p.OAuthClientID = ""
	}
}

// OAuthEnabled reports whether OAuth client credentials are configured.
func (p *ProviderConfig) OAuthEnabled() bool {
	return p.OAuthClientID != "" && p.OAuthTokenURL != ""
}

// AnalysisConfig contains analysis pipeline configuration.
type AnalysisConfig struct {
	// WorkerConcurrency bounds concurrently running analyses per process.
	WorkerConcurrency int `env:"ANALYSIS_WORKER_CONCURRENCY" envDefault:"4"`

	// PollInterval is how often the worker picks up pending jobs submitted by other processes.
	PollInterval time.Duration `env:"ANALYSIS_POLL_INTERVAL" envDefault:"5s"`

	// ResumeBatch is the number of pending jobs picked up per poll.
	ResumeBatch int `env:"ANALYSIS_RESUME_BATCH" envDefault:"100"`

	MaxCompetitors int `env:"ANALYSIS_MAX_COMPETITORS" envDefault:"5"`
	TopGaps        int `env:"ANALYSIS_TOP_GAPS"        envDefault:"10"`
}

// Sanitize applies guardrails to analysis configuration values.
func (a *AnalysisConfig) Sanitize() {
	if a.WorkerConcurrency < 1 {
		a.WorkerConcurrency = 1
	}
	if a.PollInterval < time.Second {
		a.PollInterval = time.Second
	}
	if a.ResumeBatch < 1 {
		a.ResumeBatch = 1
	}
	if a.MaxCompetitors < 1 || a.MaxCompetitors > 5 {
		a.MaxCompetitors = 5
	}
	if a.TopGaps < 1 {
		a.TopGaps = 10
	}
}

// RateLimitConfig configures the per-client submission rate limit.
type RateLimitConfig struct {
	Enabled     bool          `env:"RATE_LIMIT_ENABLED"     envDefault:"true"`
	Submissions int           `env:"RATE_LIMIT_SUBMISSIONS" envDefault:"5"`
	Window      time.Duration `env:"RATE_LIMIT_WINDOW"      envDefault:"1h"`
}

// Sanitize applies guardrails to rate limit configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.Submissions < 1 {
		r.Submissions = 1
	}
	if r.Window < time.Second {
		r.Window = time.Second
	}
}

// ExclusionsConfig configures the exclusion-list cache.
type ExclusionsConfig struct {
	TTL time.Duration `env:"EXCLUSIONS_TTL" envDefault:"5m"`

	// SharedSnapshot publishes the loaded list to Redis so replicas avoid reloading from Postgres.
	SharedSnapshot bool `env:"EXCLUSIONS_SHARED_SNAPSHOT" envDefault:"true"`
}

// Sanitize applies guardrails to exclusion configuration values.
func (e *ExclusionsConfig) Sanitize() {
	if e.TTL < 10*time.Second {
		e.TTL = 10 * time.Second
	}
}
