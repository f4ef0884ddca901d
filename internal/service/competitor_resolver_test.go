package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type staticExclusions map[string]bool

func (s staticExclusions) IsExcluded(_ context.Context, host string) (bool, error) {
	return s[host], nil
}

func serp(kw string, domains ...string) []model.SerpResult {
	out := make([]model.SerpResult, 0, len(domains))
	for i, d := range domains {
		out = append(out, model.SerpResult{Keyword: kw, Domain: d, Position: i + 1})
	}
	return out
}

func candidateDomains(in []model.CompetitorCandidate) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		out = append(out, c.Domain)
	}
	return out
}

func TestCompetitorResolver_AggregatesAndOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockSerpProvider(ctrl)

	provider.EXPECT().OrganicResults(gomock.Any(), "plumber sydney", "Sydney,AU").
		Return(serp("plumber sydney",
			"www.acme.com.au", "fastplumb.com.au", "shop.fastplumb.com.au", "yelp.com", "pipes.net.au"), nil)
	provider.EXPECT().OrganicResults(gomock.Any(), "emergency plumber", "Sydney,AU").
		Return(serp("emergency plumber", "pipes.net.au", "fastplumb.com.au", "drainkings.com.au"), nil)

	r, err := NewCompetitorResolver(CompetitorResolverOptions{
		Serp:       provider,
		Exclusions: staticExclusions{"yelp.com": true},
		Config:     CompetitorResolverConfig{MaxCompetitors: 5, Concurrency: 2},
	})
	require.NoError(t, err)

	got, err := r.ResolveCompetitors(context.Background(), "acme.com.au",
		[]string{"plumber sydney", "emergency plumber"}, "Sydney,AU")
	require.NoError(t, err)

	assert.Equal(t, []string{"fastplumb.com.au", "pipes.net.au", "drainkings.com.au"}, candidateDomains(got))
	assert.Equal(t, 2, got[0].KeywordCount)
	assert.InDelta(t, 2.0, got[0].AvgPosition, 0.001, "best position per keyword: 2 and 2")
	assert.InDelta(t, 3.0, got[1].AvgPosition, 0.001)
}

func TestCompetitorResolver_TruncatesToCap(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockSerpProvider(ctrl)
	provider.EXPECT().OrganicResults(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(serp("k", "a.com", "b.com", "c.com", "d.com", "e.com", "f.com", "g.com"), nil).Times(2)

	r, err := NewCompetitorResolver(CompetitorResolverOptions{
		Serp:   provider,
		Config: CompetitorResolverConfig{MaxCompetitors: 9},
	})
	require.NoError(t, err)

	got, err := r.ResolveCompetitors(context.Background(), "acme.com.au", []string{"k1", "k2"}, "AU")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com", "c.com", "d.com", "e.com"}, candidateDomains(got))
}

func TestCompetitorResolver_NonRetryableFailsStage(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockSerpProvider(ctrl)
	provider.EXPECT().OrganicResults(gomock.Any(), "bad", gomock.Any()).Return(nil, &fakeAPIError{status: 400}).Times(1)
	provider.EXPECT().OrganicResults(gomock.Any(), "good", gomock.Any()).Return(serp("good", "a.com"), nil).AnyTimes()

	r, err := NewCompetitorResolver(CompetitorResolverOptions{
		Serp:   provider,
		Config: CompetitorResolverConfig{MaxAttempts: 3, RetryBackoff: time.Millisecond},
	})
	require.NoError(t, err)

	_, err = r.ResolveCompetitors(context.Background(), "acme.com.au", []string{"good", "bad"}, "AU")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

type failingExclusions struct{}

func (failingExclusions) IsExcluded(context.Context, string) (bool, error) {
	return false, errors.New("exclusions unavailable")
}

func TestCompetitorResolver_ExclusionErrorFailsStage(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockSerpProvider(ctrl)
	provider.EXPECT().OrganicResults(gomock.Any(), gomock.Any(), gomock.Any()).Return(serp("k", "a.com"), nil)

	r, err := NewCompetitorResolver(CompetitorResolverOptions{Serp: provider, Exclusions: failingExclusions{}})
	require.NoError(t, err)

	_, err = r.ResolveCompetitors(context.Background(), "acme.com.au", []string{"k"}, "AU")
	require.ErrorContains(t, err, "exclusions unavailable")
}

func TestCompetitorResolver_FewerThanTwoIsSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockSerpProvider(ctrl)
	provider.EXPECT().OrganicResults(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(serp("k", "acme.com.au", "only.com"), nil).Times(2)

	r, err := NewCompetitorResolver(CompetitorResolverOptions{Serp: provider})
	require.NoError(t, err)

	got, err := r.ResolveCompetitors(context.Background(), "www.acme.com.au", []string{"k1", "k2"}, "AU")
	require.NoError(t, err)
	assert.Equal(t, []string{"only.com"}, candidateDomains(got))
}
