package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	env "github.com/caarlos0/env/v11"
	"github.com/linkscore/linkscore-api/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultConfig(t *testing.T, services string) *config.AppConfig {
	t.Helper()
	var cfg config.AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Services = services
	cfg.Sanitize()
	return &cfg
}

func TestErrorChannelBufferSize(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{
			name: "no services enabled",
			want: 1,
		},
		{
			name:  "http only",
			modes: []config.ServiceMode{config.ServiceModeHTTP},
			want:  2,
		},
		{
			name: "all services enabled",
			modes: []config.ServiceMode{
				config.ServiceModeHTTP,
				config.ServiceModeAnalysisWorker,
				config.ServiceModeReaper,
			},
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			if got := errorChannelBufferSize(enabled); got != tt.want {
				t.Fatalf("errorChannelBufferSize(%v) = %d, want %d", tt.modes, got, tt.want)
			}
		})
	}
}

func TestGetEnabledServices(t *testing.T) {
	cfg := &config.AppConfig{Services: "reaper,http"}
	assert.Equal(t, []string{"http", "reaper"}, GetEnabledServices(cfg))

	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Empty(t, GetEnabledServices(nil))
}

func TestValidateServiceConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		require.Error(t, ValidateServiceConfig(nil))
	})

	t.Run("unknown service", func(t *testing.T) {
		err := ValidateServiceConfig(&config.AppConfig{Services: "scheduler"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid service configuration")
	})

	t.Run("worker without provider", func(t *testing.T) {
		err := ValidateServiceConfig(&config.AppConfig{Services: "analysis-worker"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PROVIDER_BASE_URL")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := &config.AppConfig{Services: "http,analysis-worker"}
		cfg.Provider.BaseURL = "https://provider.example.com"
		assert.NoError(t, ValidateServiceConfig(cfg))
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("loud"))
}

func TestBuildCompletionSinks(t *testing.T) {
	cfg := config.CompletionNotificationsConfig{
		Webhooks: config.WebhookList{
			{Name: "crm", URL: "https://crm.example.com/hook"},
			{Name: "bad-scheme", URL: "ftp://crm.example.com"},
			{Name: "bad-transform", URL: "https://x.example.com", BodyTransform: "{{{"},
		},
		Timeout:         time.Second,
		SlackWebhookURL: "https://hooks.slack.com/services/T/B/X",
	}

	sinks := buildCompletionSinks(discardLogger(), cfg)
	assert.Len(t, sinks, 2, "invalid webhooks are skipped, slack is appended")
}

func TestBuildFailureNotifier(t *testing.T) {
	disabled := buildFailureNotifier(discardLogger(), config.ObservabilityNotificationsConfig{})
	require.NotNil(t, disabled)
	assert.False(t, disabled.Enabled())

	cfg := config.ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    time.Second,
		RetryLimit: 1,
		PagerDuty: config.PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: "routing-key",
		},
	}
	enabled := buildFailureNotifier(discardLogger(), cfg)
	assert.True(t, enabled.Enabled())
}

func TestReadinessChecks(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	checks := readinessChecks(db, rdb)
	require.Len(t, checks, 2)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	require.Error(t, checks["postgres"](context.Background()))
	require.NoError(t, checks["redis"](context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Empty(t, readinessChecks(nil, nil))
}

func TestNewServices(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	t.Run("http only leaves the pipeline unbuilt", func(t *testing.T) {
		svc, err := NewServices(&ServiceDeps{
			Config:      defaultConfig(t, "http"),
			DB:          db,
			RedisClient: rdb,
			Logger:      discardLogger(),
		})
		require.NoError(t, err)

		assert.NotNil(t, svc.Analyses)
		assert.NotNil(t, svc.Exclusions)
		assert.NotNil(t, svc.Reaper)
		assert.NotNil(t, svc.Repos.Cache)
		assert.Nil(t, svc.Orchestrator)
		assert.Nil(t, svc.Dispatcher)
		assert.Nil(t, svc.Worker)
		assert.Nil(t, svc.Observability.MetricsSink)
	})

	t.Run("analysis worker wires the pipeline", func(t *testing.T) {
		svc, err := NewServices(&ServiceDeps{
			Config:      defaultConfig(t, "http,analysis-worker,reaper"),
			DB:          db,
			RedisClient: rdb,
			Logger:      discardLogger(),
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = svc.Dispatcher.Shutdown(ctx)
		})

		assert.NotNil(t, svc.Orchestrator)
		assert.NotNil(t, svc.Dispatcher)
		assert.NotNil(t, svc.Worker)
	})

	t.Run("without redis", func(t *testing.T) {
		svc, err := NewServices(&ServiceDeps{
			Config: defaultConfig(t, "http"),
			DB:     db,
			Logger: discardLogger(),
		})
		require.NoError(t, err)
		assert.Nil(t, svc.Repos.Cache)
		assert.NotNil(t, svc.Analyses)
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := NewServices(&ServiceDeps{})
		require.Error(t, err)
	})
}

func TestBuildRouterServices_OmitsNilAdminDeps(t *testing.T) {
	appCfg := &config.AppConfig{}
	appCfg.HTTP.AdminToken = "secret"

	rs := buildRouterServices(&HTTPServerConfig{}, appCfg, discardLogger())
	assert.Nil(t, rs.Reaper)
	assert.Nil(t, rs.Replayer)
	assert.Nil(t, rs.Exclusions)
	assert.Equal(t, "secret", rs.AdminToken)
}

func TestShutdownHTTPServer_NilServer(t *testing.T) {
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}
