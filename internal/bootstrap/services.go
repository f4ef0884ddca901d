package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/adapters/provider"
	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/data"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
	"github.com/linkscore/linkscore-api/internal/observability/notify/pagerduty"
	"github.com/linkscore/linkscore-api/internal/observability/notify/slack"
	"github.com/linkscore/linkscore-api/internal/observability/notify/webhook"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
	"github.com/linkscore/linkscore-api/internal/service"
	"github.com/linkscore/linkscore-api/internal/service/failurenotifier"
	"github.com/redis/go-redis/v9"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Analyses   *service.AnalysisService
	Exclusions *service.ExclusionListService
	Reaper     *service.ReaperService

	// Orchestrator, Dispatcher and Worker are nil unless this process runs analyses.
	Orchestrator *service.Orchestrator
	Dispatcher   *service.Dispatcher
	Worker       *service.AnalysisWorker

	Notifier      *service.CompletionNotifierService
	Repos         *serviceRepositories
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB             *sql.DB
	Redis          redis.UniversalClient
	AnalysisJobs   *data.AnalysisJobRepo
	ExcludedDomain *data.ExcludedDomainRepo
	DBAdmin        *data.DBAdminRepo
	Cache          *data.RedisCacheRepo
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

// metricsSink returns the StatsD client as a Sink, or nil so callers skip emission.
//
//nolint:ireturn // nil interface keeps metric helpers on their no-op path.
func (o ObservabilityContainer) metricsSink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, rdb redis.UniversalClient, logger *slog.Logger) *serviceRepositories {
	repos := &serviceRepositories{
		DB:             db,
		Redis:          rdb,
		AnalysisJobs:   data.NewAnalysisJobRepo(db, data.RepoConfig{Logger: logger}),
		ExcludedDomain: data.NewExcludedDomainRepo(db),
		DBAdmin:        data.NewDBAdminRepo(db, logger),
	}
	if rdb != nil {
		repos.Cache = data.NewRedisCacheRepo(rdb)
	}
	return repos
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger,
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:        cfg.Slack.WebhookURL,
			Channel:           cfg.Slack.Channel,
			Username:          cfg.Slack.Username,
			Timeout:           cfg.Timeout,
			RetryLimit:        cfg.RetryLimit,
			AnalysisURLPrefix: cfg.Slack.AnalysisURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger,
		Sinks:  sinks,
	})
}

// buildCompletionSinks turns configured webhooks and the optional Slack summary into sinks.
// Invalid entries are logged and skipped so one bad webhook does not block the rest.
func buildCompletionSinks(logger *slog.Logger, cfg config.CompletionNotificationsConfig) []notify.CompletionSink {
	sinks := make([]notify.CompletionSink, 0, len(cfg.Webhooks)+1)
	for _, wh := range cfg.Webhooks {
		sink, err := webhook.New(webhook.Config{
			Name:          wh.Name,
			URL:           wh.URL,
			BodyTransform: wh.BodyTransform,
			Headers:       wh.Headers,
			Timeout:       cfg.Timeout,
		})
		if err != nil {
			logger.Error("skipping completion webhook", "webhook", wh.Name, "error", err)
			continue
		}
		sinks = append(sinks, sink)
	}

	if cfg.SlackWebhookURL != "" {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.SlackWebhookURL,
			Channel:    cfg.SlackChannel,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			logger.Error("skipping slack completion sink", "error", err)
		} else {
			sinks = append(sinks, slack.NewCompletionSink(client))
		}
	}
	return sinks
}

// DomainServicesOptions groups inputs for buildDomainServices.
type DomainServicesOptions struct {
	Repos         *serviceRepositories
	Observability ObservabilityContainer
	Config        *config.AppConfig
	Logger        *slog.Logger
}

// buildDomainServices wires business services using repositories and observability adapters.
func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	cfg := opts.Config
	logger := opts.Logger
	repos := opts.Repos
	metrics := opts.Observability.metricsSink()

	exclusions, err := service.NewExclusionListService(service.ExclusionListServiceOptions{
		Repo:    repos.ExcludedDomain,
		Cache:   cacheOrNil(repos.Cache),
		Config:  cfg.Exclusions,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("exclusion list: %w", err)
	}

	reaperSvc, err := service.NewReaperService(service.ReaperServiceOptions{
		Repo:    repos.AnalysisJobs,
		Admin:   repos.DBAdmin,
		Config:  cfg.Reaper,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("reaper service: %w", err)
	}

	notifier := service.NewCompletionNotifier(service.CompletionNotifierOptions{
		Sinks:   buildCompletionSinks(logger, cfg.Observability.Completion),
		Logger:  logger,
		Metrics: metrics,
	})

	container := ServiceContainer{
		Exclusions:    exclusions,
		Reaper:        reaperSvc,
		Notifier:      notifier,
		Repos:         repos,
		Observability: opts.Observability,
	}

	var dispatcher service.JobDispatcher
	if cfg.IsAnalysisWorkerEnabled() {
		if err := buildAnalysisPipeline(&container, cfg, logger, metrics); err != nil {
			return ServiceContainer{}, err
		}
		dispatcher = container.Dispatcher
	}

	analyses, err := service.NewAnalysisService(service.AnalysisServiceOptions{
		Repo:       repos.AnalysisJobs,
		Exclusions: exclusions,
		Cache:      cacheOrNil(repos.Cache),
		Dispatcher: dispatcher,
		RateLimit:  cfg.RateLimit,
		Validator:  validator.New(validator.WithRequiredStructEnabled()),
		Logger:     logger,
		Metrics:    metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("analysis service: %w", err)
	}
	container.Analyses = analyses
	return container, nil
}

// buildAnalysisPipeline wires the provider client through to the dispatcher and polling worker.
func buildAnalysisPipeline(
	c *ServiceContainer,
	cfg *config.AppConfig,
	logger *slog.Logger,
	metrics statsd.Sink,
) error {
	pc := cfg.Provider
	var oauth *provider.OAuthConfig
	if pc.OAuthEnabled() {
		oauth = &provider.OAuthConfig{
			TokenURL:     pc.OAuthTokenURL,
			ClientID:     pc.OAuthClientID,
			ClientSecret: pc.OAuthClientSecret,
			Scopes:       pc.OAuthScopes,
		}
	}
	client, err := provider.New(provider.Options{
		BaseURL:           pc.BaseURL,
		APIKey:            pc.APIKey,
		Timeout:           pc.Timeout,
		RequestsPerSecond: pc.RequestsPerSecond,
		Burst:             pc.Burst,
		OAuth:             oauth,
		Logger:            logger,
		Metrics:           metrics,
	})
	if err != nil {
		return fmt.Errorf("provider client: %w", err)
	}

	gateway, err := service.NewBacklinkGateway(service.BacklinkGatewayOptions{
		Provider: client,
		Config:   pc,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("backlink gateway: %w", err)
	}

	resolver, err := service.NewCompetitorResolver(service.CompetitorResolverOptions{
		Serp:       client,
		Exclusions: c.Exclusions,
		Config: service.CompetitorResolverConfig{
			MaxCompetitors: cfg.Analysis.MaxCompetitors,
			Concurrency:    pc.Concurrency,
			MaxAttempts:    pc.MaxAttempts,
			RetryBackoff:   pc.RetryBackoff,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("competitor resolver: %w", err)
	}

	orchestrator, err := service.NewOrchestrator(service.OrchestratorOptions{
		Repo:        c.Repos.AnalysisJobs,
		Backlinks:   gateway,
		Competitors: resolver,
		Notifier:    c.Notifier,
		Failures:    c.Observability.FailureNotifier,
		Concurrency: pc.Concurrency,
		TopGaps:     cfg.Analysis.TopGaps,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	// Runs outlive individual requests; Shutdown bounds them instead.
	dispatcher, err := service.NewDispatcher(context.Background(), service.DispatcherOptions{
		Runner:      orchestrator,
		Concurrency: cfg.Analysis.WorkerConcurrency,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}

	worker, err := service.NewAnalysisWorker(service.AnalysisWorkerOptions{
		Repo:         c.Repos.AnalysisJobs,
		Dispatcher:   dispatcher,
		PollInterval: cfg.Analysis.PollInterval,
		BatchSize:    cfg.Analysis.ResumeBatch,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("analysis worker: %w", err)
	}

	c.Orchestrator = orchestrator
	c.Dispatcher = dispatcher
	c.Worker = worker
	return nil
}

// cacheOrNil avoids handing services a typed-nil cache when Redis is not configured.
//
//nolint:ireturn // services accept the CacheRepository port.
func cacheOrNil(repo *data.RedisCacheRepo) core.CacheRepository {
	if repo == nil {
		return nil
	}
	return repo
}

// NewServices builds repositories, observability adapters and domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient, logger)
	return buildDomainServices(&DomainServicesOptions{
		Repos:         repos,
		Observability: observability,
		Config:        deps.Config,
		Logger:        logger,
	})
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:      deps.cfg.Config,
		Services:    deps.cfg.Services,
		DB:          deps.cfg.DB,
		RedisClient: deps.cfg.RedisClient,
		Logger:      deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newAnalysisWorkerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeAnalysisWorker,
		name: "analysis worker",
		start: func(ctx context.Context) error {
			return RunAnalysisWorker(ctx, AnalysisWorkerConfig{
				Worker: deps.cfg.Services.Worker,
				Logger: deps.logger,
			})
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			return RunReaper(ctx, ReaperConfig{
				Reaper: deps.cfg.Services.Reaper,
				Logger: deps.logger,
				Config: deps.cfg.Config.Reaper,
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newAnalysisWorkerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		httpTimeout: cfg.Config.HTTP.ShutdownTimeout,
		dispatcher:  cfg.Services.Dispatcher,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	httpTimeout time.Duration
	dispatcher  *service.Dispatcher
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops intake first, then drains running analyses.
// Order: HTTP server, background pollers, dispatcher.
func gracefulStop(cfg shutdownConfig) error {
	var errs []error

	if cfg.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.httpServer,
			Timeout: cfg.httpTimeout,
			Logger:  cfg.logger,
		}); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	cfg.cancel()
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()
		if err := cfg.dispatcher.Shutdown(ctx); err != nil {
			cfg.logger.Warn("interrupted in-flight analyses; the reaper will fail them",
				"in_flight", cfg.dispatcher.InFlight(), "error", err)
		} else {
			cfg.logger.Info("analysis dispatcher drained")
		}
	}

	return errors.Join(errs...)
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
