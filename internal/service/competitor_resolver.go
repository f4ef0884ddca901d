package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/domain/hostname"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// maxCompetitorsCap is the hard upper bound on resolved competitors.
const maxCompetitorsCap = 5

// ExclusionChecker reports whether a host is on the exclusion list.
type ExclusionChecker interface {
	IsExcluded(ctx context.Context, host string) (bool, error)
}

// CompetitorResolverConfig tunes competitor discovery.
type CompetitorResolverConfig struct {
	MaxCompetitors int
	Concurrency    int
	MaxAttempts    int
	RetryBackoff   time.Duration
}

// CompetitorResolverOptions groups dependencies for CompetitorResolver.
type CompetitorResolverOptions struct {
	Serp       core.SerpProvider // Required
	Exclusions ExclusionChecker  // Optional
	Config     CompetitorResolverConfig
	Logger     *slog.Logger
}

// CompetitorResolver discovers local competitors from organic search results for the campaign keywords.
type CompetitorResolver struct {
	serp       core.SerpProvider
	exclusions ExclusionChecker
	cfg        CompetitorResolverConfig
	logger     *slog.Logger
}

// NewCompetitorResolver constructs a CompetitorResolver.
func NewCompetitorResolver(opts CompetitorResolverOptions) (*CompetitorResolver, error) {
	if opts.Serp == nil {
		return nil, errors.New("SerpProvider is required")
	}
	cfg := opts.Config
	if cfg.MaxCompetitors < 1 || cfg.MaxCompetitors > maxCompetitorsCap {
		cfg.MaxCompetitors = maxCompetitorsCap
	}
	cfg.Concurrency = max(cfg.Concurrency, 1)
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CompetitorResolver{
		serp:       opts.Serp,
		exclusions: opts.Exclusions,
		cfg:        cfg,
		logger:     logger.With("component", "competitor_resolver"),
	}, nil
}

// ResolveCompetitors returns up to MaxCompetitors registrable domains ranking for the keywords,
// ordered by keyword count desc, average position asc, then domain asc.
// The customer's own domain and excluded domains are skipped.
func (r *CompetitorResolver) ResolveCompetitors(
	ctx context.Context,
	customerDomain string,
	keywords []string,
	location string,
) ([]model.CompetitorCandidate, error) {
	customer := hostname.Registrable(customerDomain)
	perKeyword := make([][]model.SerpResult, len(keywords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, kw := range keywords {
		g.Go(func() error {
			results, err := r.fetch(gctx, kw, location)
			if err != nil {
				return fmt.Errorf("serp results for %q: %w", kw, err)
			}
			perKeyword[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best, err := r.bestPositions(ctx, customer, perKeyword)
	if err != nil {
		return nil, err
	}
	return rankCandidates(best, r.cfg.MaxCompetitors), nil
}

func (r *CompetitorResolver) fetch(ctx context.Context, keyword, location string) ([]model.SerpResult, error) {
	var results []model.SerpResult
	err := withRetry(ctx, r.cfg.MaxAttempts, r.cfg.RetryBackoff, func(int) error {
		var err error
		results, err = r.serp.OrganicResults(ctx, keyword, location)
		return err
	})
	return results, err
}

// bestPositions maps each eligible registrable domain to its best position per keyword.
func (r *CompetitorResolver) bestPositions(
	ctx context.Context,
	customer string,
	perKeyword [][]model.SerpResult,
) (map[string][]int, error) {
	excludedCache := make(map[string]bool)
	best := make(map[string][]int)

	for _, results := range perKeyword {
		seen := make(map[string]int)
		for _, res := range results {
			domain := hostname.Registrable(res.Domain)
			if domain == "" || domain == customer || res.Position <= 0 {
				continue
			}
			skip, err := r.isExcluded(ctx, domain, excludedCache)
			if err != nil {
				return nil, err
			}
			if skip {
				continue
			}
			if pos, ok := seen[domain]; !ok || res.Position < pos {
				seen[domain] = res.Position
			}
		}
		for domain, pos := range seen {
			best[domain] = append(best[domain], pos)
		}
	}
	return best, nil
}

func (r *CompetitorResolver) isExcluded(ctx context.Context, domain string, cache map[string]bool) (bool, error) {
	if r.exclusions == nil {
		return false, nil
	}
	if v, ok := cache[domain]; ok {
		return v, nil
	}
	v, err := r.exclusions.IsExcluded(ctx, domain)
	if err != nil {
		return false, fmt.Errorf("check exclusion for %s: %w", domain, err)
	}
	cache[domain] = v
	return v, nil
}

func rankCandidates(best map[string][]int, limit int) []model.CompetitorCandidate {
	out := make([]model.CompetitorCandidate, 0, len(best))
	for domain, positions := range best {
		total := 0
		for _, p := range positions {
			total += p
		}
		out = append(out, model.CompetitorCandidate{
			Domain:       domain,
			KeywordCount: len(positions),
			AvgPosition:  float64(total) / float64(len(positions)),
		})
	}
	slices.SortFunc(out, func(a, b model.CompetitorCandidate) int {
		if a.KeywordCount != b.KeywordCount {
			return b.KeywordCount - a.KeywordCount
		}
		if a.AvgPosition != b.AvgPosition {
			if a.AvgPosition < b.AvgPosition {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Domain, b.Domain)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
