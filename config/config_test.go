package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - analysis-worker",
			input:    "analysis-worker",
			expected: map[ServiceMode]bool{ServiceModeAnalysisWorker: true},
		},
		{
			name:  "all services with spaces",
			input: " http , analysis-worker , reaper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:           true,
				ServiceModeAnalysisWorker: true,
				ServiceModeReaper:         true,
			},
		},
		{
			name:     "duplicate services",
			input:    "reaper,reaper",
			expected: map[ServiceMode]bool{ServiceModeReaper: true},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,",
			expectError: true,
		},
		{
			name:        "unknown service",
			input:       "http,rules-engine",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	cfg := AppConfig{Services: "http,reaper"}
	if !cfg.IsHTTPServerEnabled() {
		t.Errorf("expected http enabled")
	}
	if cfg.IsAnalysisWorkerEnabled() {
		t.Errorf("expected analysis-worker disabled")
	}
	if !cfg.IsReaperEnabled() {
		t.Errorf("expected reaper enabled")
	}

	invalid := AppConfig{Services: "bogus"}
	if invalid.IsHTTPServerEnabled() || invalid.IsAnalysisWorkerEnabled() || invalid.IsReaperEnabled() {
		t.Errorf("invalid configuration must not enable any service")
	}
}

func TestValidServiceModes(t *testing.T) {
	modes := ValidServiceModes()
	if len(modes) != 3 {
		t.Fatalf("expected 3 service modes, got %d", len(modes))
	}
	for _, m := range modes {
		if _, err := ParseServices(string(m)); err != nil {
			t.Errorf("mode %q does not parse: %v", m, err)
		}
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Provider.Concurrency != 2 {
		t.Errorf("provider concurrency = %d, want 2", cfg.Provider.Concurrency)
	}
	if cfg.Provider.RetryBackoff != time.Second {
		t.Errorf("retry backoff = %s, want 1s", cfg.Provider.RetryBackoff)
	}
	if cfg.Provider.RankScale != RankScaleAuto {
		t.Errorf("rank scale = %q, want auto", cfg.Provider.RankScale)
	}
	if cfg.Analysis.MaxCompetitors != 5 || cfg.Analysis.TopGaps != 10 {
		t.Errorf("analysis defaults = %+v", cfg.Analysis)
	}
	if cfg.RateLimit.Submissions != 5 || cfg.RateLimit.Window != time.Hour {
		t.Errorf("rate limit defaults = %+v", cfg.RateLimit)
	}
	if cfg.Reaper.Schedule != "@every 5m" {
		t.Errorf("reaper schedule = %q", cfg.Reaper.Schedule)
	}
	if cfg.Observability.Completion.Timeout != 15*time.Second {
		t.Errorf("completion timeout = %s, want 15s", cfg.Observability.Completion.Timeout)
	}
	if cfg.HTTP.AdminEnabled() {
		t.Errorf("admin routes must be disabled without a token")
	}
}

func TestAppConfig_ParseProviderAndWebhooks(t *testing.T) {
	t.Setenv("PROVIDER_RANK_SCALE", "1000")
	t.Setenv("PROVIDER_OAUTH_TOKEN_URL", "https://auth.example.com/token")
	t.Setenv("PROVIDER_OAUTH_CLIENT_ID", "linkscore")
	t.Setenv("PROVIDER_OAUTH_SCOPES", "backlinks.read,serp.read")
	t.Setenv("COMPLETION_WEBHOOKS", `[{"name":"crm","url":" https://crm.example.com/hook ","body_transform":"{id: analysis.id}"},{"url":""}]`)
	t.Setenv("ADMIN_API_TOKEN", "  tok ")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Provider.RankScale != RankScale1000 {
		t.Errorf("rank scale = %q", cfg.Provider.RankScale)
	}
	if !cfg.Provider.OAuthEnabled() {
		t.Errorf("expected oauth enabled")
	}
	if !reflect.DeepEqual(cfg.Provider.OAuthScopes, []string{"backlinks.read", "serp.read"}) {
		t.Errorf("scopes = %v", cfg.Provider.OAuthScopes)
	}

	want := []WebhookConfig{{Name: "crm", URL: "https://crm.example.com/hook", BodyTransform: "{id: analysis.id}"}}
	if !reflect.DeepEqual([]WebhookConfig(cfg.Observability.Completion.Webhooks), want) {
		t.Errorf("webhooks = %#v", cfg.Observability.Completion.Webhooks)
	}
	if cfg.HTTP.AdminToken != "tok" || !cfg.HTTP.AdminEnabled() {
		t.Errorf("admin token not trimmed: %q", cfg.HTTP.AdminToken)
	}
}

func TestRankScale_UnmarshalText(t *testing.T) {
	var r RankScale
	if err := r.UnmarshalText([]byte("AUTO")); err != nil || r != RankScaleAuto {
		t.Errorf("got %q, %v", r, err)
	}
	if err := r.UnmarshalText([]byte("500")); err == nil {
		t.Errorf("expected error for invalid scale")
	}
}

func TestReaperConfig_Sanitize(t *testing.T) {
	cfg := ReaperConfig{Schedule: "not a cron", StuckAfter: time.Second, BatchSize: 50000}
	cfg.Sanitize()

	if cfg.Schedule != "@every 5m" {
		t.Errorf("invalid schedule not replaced: %q", cfg.Schedule)
	}
	if cfg.StuckAfter != time.Minute {
		t.Errorf("stuck after = %s", cfg.StuckAfter)
	}
	if cfg.BatchSize != 10000 {
		t.Errorf("batch size = %d", cfg.BatchSize)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "  "}
	cfg.Sanitize()
	if cfg.IsEnabled() {
		t.Errorf("metrics must be disabled without an address")
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled: true,
		Slack:   SlackNotificationConfig{Enabled: true},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: "rk",
		},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Errorf("slack without webhook must be disabled")
	}
	if !cfg.PagerDuty.Enabled {
		t.Errorf("pagerduty with routing key must stay enabled")
	}
	if cfg.Slack.Username != "linkscore" {
		t.Errorf("username default = %q", cfg.Slack.Username)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout = %s", cfg.Timeout)
	}
}
