package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/data"
	"github.com/linkscore/linkscore-api/internal/domain/hostname"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	apperrors "github.com/linkscore/linkscore-api/internal/errors"
	"github.com/linkscore/linkscore-api/internal/observability/metrics"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
)

// exclusionSnapshotKey is the Redis key holding the shared exclusion-list snapshot.
const exclusionSnapshotKey = "linkscore:exclusions:snapshot"

const (
	exclusionSourcePostgres = "postgres"
	exclusionSourceRedis    = "redis"

	maxExclusionReasonLen = 500
)

// ExclusionListServiceOptions groups dependencies for ExclusionListService.
type ExclusionListServiceOptions struct {
	Repo    core.ExcludedDomainRepository // Required
	Cache   core.CacheRepository          // Optional: shared snapshot across replicas
	Config  config.ExclusionsConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
	Clock   func() time.Time
}

// ExclusionListService answers whether a domain, or any parent of it, is on the exclusion list.
// The list is loaded lazily and reloaded once its TTL elapses.
type ExclusionListService struct {
	repo    core.ExcludedDomainRepository
	cache   core.CacheRepository
	ttl     time.Duration
	shared  bool
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time

	loadMu sync.Mutex
	mu     sync.RWMutex
	snap   *exclusionSnapshot

	hits      atomic.Int64
	misses    atomic.Int64
	refreshes atomic.Int64
	lastErr   atomic.Value // string
}

type exclusionSnapshot struct {
	domains  map[string]struct{}
	loadedAt time.Time
	source   string
}

type sharedExclusionSnapshot struct {
	Domains  []string  `json:"domains"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NewExclusionListService constructs an ExclusionListService.
func NewExclusionListService(opts ExclusionListServiceOptions) (*ExclusionListService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ExcludedDomainRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ExclusionListService{
		repo:    opts.Repo,
		cache:   opts.Cache,
		ttl:     ttl,
		shared:  opts.Config.SharedSnapshot && opts.Cache != nil,
		logger:  logger.With("component", "exclusion_list"),
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// IsExcluded reports whether host equals an excluded domain or is a subdomain of one.
// A failed reload falls back to the previous snapshot when there is one.
func (s *ExclusionListService) IsExcluded(ctx context.Context, host string) (bool, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return false, err
	}

	h := hostname.Canonical(host)
	for h != "" {
		if _, ok := snap.domains[h]; ok {
			s.hits.Add(1)
			return true, nil
		}
		i := strings.IndexByte(h, '.')
		if i < 0 {
			break
		}
		h = h[i+1:]
	}
	s.misses.Add(1)
	return false, nil
}

// Refresh reloads the list from Postgres and republishes the shared snapshot.
func (s *ExclusionListService) Refresh(ctx context.Context) (model.ExclusionListStats, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if _, err := s.loadFromRepo(ctx); err != nil {
		return s.Stats(), err
	}
	return s.Stats(), nil
}

// Add stores a new excluded domain and refreshes the snapshot so it applies immediately.
func (s *ExclusionListService) Add(
	ctx context.Context,
	req model.CreateExcludedDomainRequest,
) (*model.ExcludedDomain, error) {
	req.Domain = hostname.Canonical(req.Domain)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Domain == "" || !strings.Contains(req.Domain, ".") {
		return nil, apperrors.ValidationField("domain", "domain must be a fully qualified host name")
	}
	if len(req.Reason) > maxExclusionReasonLen {
		return nil, apperrors.ValidationField("reason", fmt.Sprintf("reason cannot exceed %d characters", maxExclusionReasonLen))
	}

	entry, err := s.repo.Add(ctx, req)
	if err != nil {
		if errors.Is(err, data.ErrExcludedDomainExists) {
			return nil, apperrors.Conflict(fmt.Sprintf("%s is already excluded", req.Domain))
		}
		return nil, err
	}
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "refresh after add failed", "domain", entry.Domain, "error", err)
	}
	return entry, nil
}

// Remove deletes an excluded domain and refreshes the snapshot.
func (s *ExclusionListService) Remove(ctx context.Context, domain string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, domain)
	if err != nil || !deleted {
		return deleted, err
	}
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "refresh after remove failed", "domain", domain, "error", err)
	}
	return true, nil
}

// List returns the persisted exclusion list.
func (s *ExclusionListService) List(ctx context.Context) ([]model.ExcludedDomain, error) {
	return s.repo.List(ctx)
}

// Stats reports the state of the in-process snapshot.
func (s *ExclusionListService) Stats() model.ExclusionListStats {
	stats := model.ExclusionListStats{
		Hits:       s.hits.Load(),
		Misses:     s.misses.Load(),
		Refreshes:  s.refreshes.Load(),
		TTLSeconds: int(s.ttl / time.Second),
	}
	if v, ok := s.lastErr.Load().(string); ok {
		stats.LastError = v
	}

	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil {
		loaded := snap.loadedAt
		expires := loaded.Add(s.ttl)
		stats.Entries = len(snap.domains)
		stats.LoadedAt = &loaded
		stats.ExpiresAt = &expires
		stats.Source = snap.source
	}
	return stats
}

// current returns a fresh snapshot, reloading it when expired.
func (s *ExclusionListService) current(ctx context.Context) (*exclusionSnapshot, error) {
	if snap := s.fresh(); snap != nil {
		return snap, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// another caller may have reloaded while we waited
	if snap := s.fresh(); snap != nil {
		return snap, nil
	}

	snap, err := s.load(ctx)
	if err == nil {
		return snap, nil
	}

	s.mu.RLock()
	stale := s.snap
	s.mu.RUnlock()
	if stale != nil {
		s.logger.WarnContext(ctx, "exclusion list reload failed, using stale snapshot",
			"loaded_at", stale.loadedAt,
			"error", err,
		)
		return stale, nil
	}
	return nil, err
}

func (s *ExclusionListService) fresh() *exclusionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil || s.now().Sub(s.snap.loadedAt) >= s.ttl {
		return nil
	}
	return s.snap
}

// load prefers a still-valid shared snapshot and falls back to Postgres.
func (s *ExclusionListService) load(ctx context.Context) (*exclusionSnapshot, error) {
	if s.shared {
		if snap := s.loadShared(ctx); snap != nil {
			s.install(snap)
			return snap, nil
		}
	}
	return s.loadFromRepo(ctx)
}

func (s *ExclusionListService) loadShared(ctx context.Context) *exclusionSnapshot {
	raw, err := s.cache.Get(ctx, exclusionSnapshotKey)
	if err != nil {
		s.logger.WarnContext(ctx, "read shared exclusion snapshot", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var shared sharedExclusionSnapshot
	if err := json.Unmarshal(raw, &shared); err != nil {
		s.logger.WarnContext(ctx, "decode shared exclusion snapshot", "error", err)
		return nil
	}
	if s.now().Sub(shared.LoadedAt) >= s.ttl {
		return nil
	}
	return newExclusionSnapshot(shared.Domains, shared.LoadedAt, exclusionSourceRedis)
}

func (s *ExclusionListService) loadFromRepo(ctx context.Context) (*exclusionSnapshot, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		s.lastErr.Store(err.Error())
		s.emitRefresh(err, 0)
		return nil, fmt.Errorf("load exclusion list: %w", err)
	}

	domains := make([]string, 0, len(entries))
	for _, e := range entries {
		domains = append(domains, e.Domain)
	}
	snap := newExclusionSnapshot(domains, s.now(), exclusionSourcePostgres)
	s.install(snap)
	s.lastErr.Store("")
	s.emitRefresh(nil, len(snap.domains))

	if s.shared {
		s.publish(ctx, domains, snap.loadedAt)
	}
	s.logger.DebugContext(ctx, "exclusion list loaded", "entries", len(snap.domains))
	return snap, nil
}

func (s *ExclusionListService) publish(ctx context.Context, domains []string, loadedAt time.Time) {
	raw, err := json.Marshal(sharedExclusionSnapshot{Domains: domains, LoadedAt: loadedAt})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, exclusionSnapshotKey, raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "publish shared exclusion snapshot", "error", err)
	}
}

func (s *ExclusionListService) install(snap *exclusionSnapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.refreshes.Add(1)
}

func (s *ExclusionListService) emitRefresh(err error, entries int) {
	if s.metrics == nil {
		return
	}
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	s.metrics.Count(metrics.MetricExclusionRefresh, 1, map[string]string{"result": result})
	if err == nil {
		s.metrics.Gauge(metrics.MetricExclusionEntries, float64(entries), nil)
	}
}

func newExclusionSnapshot(domains []string, loadedAt time.Time, source string) *exclusionSnapshot {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if c := hostname.Canonical(strings.TrimPrefix(strings.TrimSpace(d), "*.")); c != "" {
			set[c] = struct{}{}
		}
	}
	return &exclusionSnapshot{domains: set, loadedAt: loadedAt, source: source}
}
