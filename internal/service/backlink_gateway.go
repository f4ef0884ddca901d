package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/domain/hostname"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// retryable is implemented by provider errors that know whether a retry may succeed.
type retryable interface {
	Retryable() bool
}

// BacklinkGatewayOptions groups dependencies for BacklinkGateway.
type BacklinkGatewayOptions struct {
	Provider core.BacklinkProvider // Required
	Config   config.ProviderConfig
	Logger   *slog.Logger
}

// BacklinkGateway turns raw provider referring domains into a canonical authority-domain set.
type BacklinkGateway struct {
	provider    core.BacklinkProvider
	scale       config.RankScale
	minRank     int
	maxSpam     int
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// NewBacklinkGateway constructs a BacklinkGateway.
func NewBacklinkGateway(opts BacklinkGatewayOptions) (*BacklinkGateway, error) {
	if opts.Provider == nil {
		return nil, errors.New("BacklinkProvider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.RankScale != config.RankScale100 && cfg.RankScale != config.RankScale1000 {
		logger.Info("provider rank scale is auto; set PROVIDER_RANK_SCALE to pin it")
	}
	return &BacklinkGateway{
		provider:    opts.Provider,
		scale:       cfg.RankScale,
		minRank:     cfg.MinRank,
		maxSpam:     cfg.MaxSpam,
		maxAttempts: max(cfg.MaxAttempts, 1),
		backoff:     cfg.RetryBackoff,
		logger:      logger.With("component", "backlink_gateway"),
	}, nil
}

// ReferringDomains fetches the raw referring domains for domain, retrying retryable provider errors.
func (g *BacklinkGateway) ReferringDomains(ctx context.Context, domain string) ([]model.ReferringDomain, error) {
	target := hostname.Canonical(domain)
	if target == "" {
		return nil, fmt.Errorf("fetch referring domains: empty domain %q", domain)
	}

	var raw []model.ReferringDomain
	err := withRetry(ctx, g.maxAttempts, g.backoff, func(attempt int) error {
		var err error
		raw, err = g.provider.ReferringDomains(ctx, target)
		if err != nil && attempt < g.maxAttempts {
			g.logger.WarnContext(ctx, "referring domains fetch failed",
				"domain", target,
				"attempt", attempt,
				"error", err,
			)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch referring domains for %s: %w", target, err)
	}
	return raw, nil
}

// RankScale resolves the scale shared by every response in sets. An explicit
// configured scale always wins. In auto mode any rank above 100 settles it at 1000;
// otherwise it reads as 100 and decided is false, meaning a later response may still change it.
func (g *BacklinkGateway) RankScale(sets ...[]model.ReferringDomain) (scale config.RankScale, decided bool) {
	return ResolveRankScale(g.scale, sets...)
}

// AuthorityHistory normalizes raw under scale and returns the authority domains
// ordered by rank desc then domain asc, with their counts now and at campaignStart.
// Lost domains stay in the returned set so the start count can see them.
func (g *BacklinkGateway) AuthorityHistory(
	raw []model.ReferringDomain,
	scale config.RankScale,
	campaignStart time.Time,
) (model.LinkHistory, []model.AuthorityDomain) {
	domains := FilterAuthority(NormalizeReferringDomains(raw, scale), g.minRank, g.maxSpam)
	return HistoryFrom(domains, campaignStart), domains
}

// FetchAuthorityDomains returns the authority domains linking to domain using the
// configured scale. In auto mode the scale is judged from this one response, so
// callers comparing several domains should fetch with ReferringDomains and share
// one RankScale across all responses.
func (g *BacklinkGateway) FetchAuthorityDomains(ctx context.Context, domain string) ([]model.AuthorityDomain, error) {
	raw, err := g.ReferringDomains(ctx, domain)
	if err != nil {
		return nil, err
	}
	scale, _ := g.RankScale(raw)
	return FilterAuthority(NormalizeReferringDomains(raw, scale), g.minRank, g.maxSpam), nil
}

// HistoryFrom counts domains still linking now and those already linking at start.
// A domain counts at start when it was first seen on or before start and was not lost by then.
func HistoryFrom(domains []model.AuthorityDomain, start time.Time) model.LinkHistory {
	var h model.LinkHistory
	for _, d := range domains {
		if !d.Lost() {
			h.Now++
		}
		if d.LiveAt(start) {
			h.AtStart++
		}
	}
	return h
}

// ResolveRankScale picks one scale for all sets. See BacklinkGateway.RankScale.
func ResolveRankScale(configured config.RankScale, sets ...[]model.ReferringDomain) (config.RankScale, bool) {
	if configured == config.RankScale100 || configured == config.RankScale1000 {
		return configured, true
	}
	for _, set := range sets {
		for _, r := range set {
			if r.Rank > 100 {
				return config.RankScale1000, true
			}
		}
	}
	return config.RankScale100, false
}

// NormalizeReferringDomains rescales ranks to 0-100, canonicalizes hosts and merges host variants.
// Auto scale is resolved from raw alone.
// Merging keeps the best rank, lowest spam, highest traffic, most backlinks and earliest first-seen;
// a merged domain is lost only when every variant is lost.
func NormalizeReferringDomains(raw []model.ReferringDomain, scale config.RankScale) []model.AuthorityDomain {
	if scale != config.RankScale100 && scale != config.RankScale1000 {
		scale, _ = ResolveRankScale(scale, raw)
	}
	divisor := 1.0
	if scale == config.RankScale1000 {
		divisor = 10
	}

	byHost := make(map[string]*model.AuthorityDomain, len(raw))
	order := make([]string, 0, len(raw))
	for _, r := range raw {
		host := hostname.Canonical(r.Domain)
		if host == "" {
			continue
		}
		rank := clampInt(int(math.Round(r.Rank/divisor)), 0, 100)

		cur, ok := byHost[host]
		if !ok {
			byHost[host] = &model.AuthorityDomain{
				Domain:    host,
				Rank:      rank,
				SpamScore: r.SpamScore,
				Traffic:   r.Traffic,
				Backlinks: r.Backlinks,
				FirstSeen: r.FirstSeen,
				LostAt:    r.LostAt,
			}
			order = append(order, host)
			continue
		}
		cur.Rank = max(cur.Rank, rank)
		cur.SpamScore = min(cur.SpamScore, r.SpamScore)
		cur.Traffic = max(cur.Traffic, r.Traffic)
		cur.Backlinks = max(cur.Backlinks, r.Backlinks)
		cur.FirstSeen = earliest(cur.FirstSeen, r.FirstSeen)
		cur.LostAt = mergeLost(cur.LostAt, r.LostAt)
	}

	out := make([]model.AuthorityDomain, 0, len(order))
	for _, h := range order {
		out = append(out, *byHost[h])
	}
	return out
}

// FilterAuthority keeps domains with rank >= minRank and spam <= maxSpam, sorted rank desc then domain asc.
func FilterAuthority(domains []model.AuthorityDomain, minRank, maxSpam int) []model.AuthorityDomain {
	out := make([]model.AuthorityDomain, 0, len(domains))
	for _, d := range domains {
		if d.Rank >= minRank && d.SpamScore <= maxSpam {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b model.AuthorityDomain) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return strings.Compare(a.Domain, b.Domain)
	})
	return out
}

func earliest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}

// mergeLost returns the latest lost date when both variants are lost, else nil.
func mergeLost(a, b *time.Time) *time.Time {
	if a == nil || b == nil {
		return nil
	}
	if b.After(*a) {
		return b
	}
	return a
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// withRetry runs fn up to attempts times while the error is retryable,
// waiting backoff, 2*backoff, ... between attempts.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(attempt int) error) error {
	delay := backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts || !isRetryable(err) {
			return err
		}
		if waitErr := sleepCtx(ctx, delay); waitErr != nil {
			return errors.Join(err, waitErr)
		}
		delay *= 2
	}
	return err
}

func isRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r) && r.Retryable()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
