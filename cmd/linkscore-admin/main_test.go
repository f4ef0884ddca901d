package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintUsageListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	for name := range commands() {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "add-exclusion"), strings.Index(out, "remove-exclusion"))
}

func TestParseMinutesFlags(t *testing.T) {
	opts, err := parseMinutesFlags("cleanup-stuck", defaultStuckMinutes, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultStuckMinutes, opts.Minutes)
	assert.False(t, opts.Yes)

	opts, err = parseMinutesFlags("cleanup-stuck", defaultStuckMinutes, []string{"--minutes", "30", "--yes"})
	require.NoError(t, err)
	assert.Equal(t, 30, opts.Minutes)
	assert.True(t, opts.Yes)

	_, err = parseMinutesFlags("cleanup-stuck", defaultStuckMinutes, []string{"--minutes", "0"})
	require.Error(t, err)

	_, err = parseMinutesFlags("cleanup-stuck", defaultStuckMinutes, []string{"--minutes", "10081"})
	require.Error(t, err)
}

func TestParseAddExclusionFlags(t *testing.T) {
	opts, err := parseAddExclusionFlags([]string{"--domain", " wikipedia.org ", "--reason", "reference site"})
	require.NoError(t, err)
	assert.Equal(t, "wikipedia.org", opts.Domain)
	assert.Equal(t, "reference site", opts.Reason)

	opts, err = parseAddExclusionFlags([]string{"youtube.com"})
	require.NoError(t, err)
	assert.Equal(t, "youtube.com", opts.Domain)

	_, err = parseAddExclusionFlags(nil)
	require.Error(t, err)
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	_, err = parseMigrateFlags([]string{"--timeout", "0s"})
	require.Error(t, err)
}

func TestSingleArg(t *testing.T) {
	id, err := singleArg("force-cleanup", "analysis id", []string{" abc "})
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = singleArg("force-cleanup", "analysis id", nil)
	require.ErrorContains(t, err, "usage: linkscore-admin force-cleanup <analysis id>")
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		name    string
		yes     bool
		input   string
		wantErr bool
	}{
		{name: "flag skips prompt", yes: true},
		{name: "accepts y", input: "y\n"},
		{name: "accepts yes without newline", input: "YES"},
		{name: "rejects empty", input: "\n", wantErr: true},
		{name: "rejects no", input: "n\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmdCtx := &commandContext{Out: &out, In: strings.NewReader(tt.input)}
			err := confirmAction(cmdCtx, confirmOptions{Yes: tt.yes, Warning: "danger"})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.yes {
				assert.Empty(t, out.String())
			} else {
				assert.Contains(t, out.String(), "danger")
			}
		})
	}
}

func TestPrintStuckJobs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, printStuckJobs(&buf, []model.StuckAnalysisJob{{
		ID:        "7f0c3c56-3c8e-4d7e-9b1e-5b1d0c1b2a3f",
		Domain:    "acme.com",
		Status:    model.AnalysisStatusProcessing,
		Step:      model.StepFetchingCompetitorBacklinks,
		Percent:   40,
		UpdatedAt: now.Add(-12 * time.Minute),
	}}, now))

	out := buf.String()
	assert.Contains(t, out, "acme.com")
	assert.Contains(t, out, "40%")
	assert.Contains(t, out, "12m0s")

	buf.Reset()
	require.NoError(t, printStuckJobs(&buf, nil, now))
	assert.Equal(t, "No stuck analyses.\n", buf.String())
}

func TestPrintExclusions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printExclusions(&buf, []model.ExcludedDomain{
		{Domain: "wikipedia.org", Reason: "reference", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}))
	out := buf.String()
	assert.Contains(t, out, "wikipedia.org")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
	assert.Contains(t, out, "1 domain(s)")
}

func TestHasRedisConfig(t *testing.T) {
	assert.False(t, hasRedisConfig(nil))
	assert.True(t, hasRedisConfig(&config.RedisConfig{URI: "localhost:6379"}))
	assert.False(t, hasRedisConfig(&config.RedisConfig{}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{UseSentinel: true, SentinelNodes: []string{"s:26379"}}))
	assert.False(t, hasRedisConfig(&config.RedisConfig{UseCluster: true}))
}
