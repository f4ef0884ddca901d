package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/data"
	"github.com/linkscore/linkscore-api/internal/domain/linkgap"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/domain/scoring"
	apperrors "github.com/linkscore/linkscore-api/internal/errors"
	obserrors "github.com/linkscore/linkscore-api/internal/observability/errors"
	"github.com/linkscore/linkscore-api/internal/observability/metrics"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
	"golang.org/x/sync/errgroup"
)

// errAborted stops a run when the job left processing underneath the orchestrator.
var errAborted = errors.New("analysis no longer processing")

// LinkHistorySource fetches raw referring domains and turns them into authority-link history
// under a rank scale shared by the whole analysis.
type LinkHistorySource interface {
	ReferringDomains(ctx context.Context, domain string) ([]model.ReferringDomain, error)
	RankScale(sets ...[]model.ReferringDomain) (config.RankScale, bool)
	AuthorityHistory(raw []model.ReferringDomain, scale config.RankScale, start time.Time) (model.LinkHistory, []model.AuthorityDomain)
}

// CompetitorSource resolves competitors for a campaign.
type CompetitorSource interface {
	ResolveCompetitors(ctx context.Context, customerDomain string, keywords []string, location string) ([]model.CompetitorCandidate, error)
}

// CompletionNotifier delivers the completion notification for a finished job.
type CompletionNotifier interface {
	Enabled() bool
	NotifyCompleted(ctx context.Context, job *model.AnalysisJob) error
}

// FailureAlerter raises operator alerts for failed jobs.
type FailureAlerter interface {
	NotifyAnalysisFailure(ctx context.Context, payload notify.AnalysisFailurePayload)
}

// OrchestratorOptions groups dependencies for Orchestrator.
type OrchestratorOptions struct {
	Repo        core.AnalysisJobRepository // Required
	Backlinks   LinkHistorySource          // Required
	Competitors CompetitorSource           // Required
	Notifier    CompletionNotifier
	Failures    FailureAlerter

	// Concurrency bounds per-competitor backlink fetches.
	Concurrency int
	TopGaps     int

	Logger  *slog.Logger
	Metrics statsd.Sink
	Clock   func() time.Time
}

// Orchestrator drives a single analysis job through every pipeline stage.
// It holds no per-job state; concurrent runs for different jobs are safe.
type Orchestrator struct {
	repo        core.AnalysisJobRepository
	backlinks   LinkHistorySource
	competitors CompetitorSource
	notifier    CompletionNotifier
	failures    FailureAlerter
	concurrency int
	topGaps     int
	logger      *slog.Logger
	metrics     statsd.Sink
	now         func() time.Time
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Repo == nil {
		return nil, errors.New("AnalysisJobRepository is required")
	}
	if opts.Backlinks == nil {
		return nil, errors.New("LinkHistorySource is required")
	}
	if opts.Competitors == nil {
		return nil, errors.New("CompetitorSource is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	topGaps := opts.TopGaps
	if topGaps < 1 {
		topGaps = linkgap.DefaultTopN
	}
	return &Orchestrator{
		repo:        opts.Repo,
		backlinks:   opts.Backlinks,
		competitors: opts.Competitors,
		notifier:    opts.Notifier,
		failures:    opts.Failures,
		concurrency: max(opts.Concurrency, 1),
		topGaps:     topGaps,
		logger:      logger.With("component", "orchestrator"),
		metrics:     opts.Metrics,
		now:         clock,
	}, nil
}

// analysisRun carries the intermediate results of one run between stages.
type analysisRun struct {
	job           *model.AnalysisJob
	progress      *ProgressReporter
	started       time.Time
	campaignStart time.Time

	competitors       []string
	scale             config.RankScale // empty until a response settles it; then shared by every domain
	customerRaw       []model.ReferringDomain
	customer          model.LinkHistory
	customerDomains   []model.AuthorityDomain
	competitorDomains map[string][]model.AuthorityDomain
	gaps              linkgap.Result
	metrics           model.AnalysisMetrics
	scores            model.ScoreBreakdown
	lead              model.LeadScore
}

type stage struct {
	step model.ProgressStep
	run  func(ctx context.Context, r *analysisRun) error
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{step: model.StepResolvingCompetitors, run: o.resolveCompetitors},
		{step: model.StepFetchingCustomerBacklinks, run: o.fetchCustomerBacklinks},
		{step: model.StepFetchingCompetitorBacklinks, run: o.fetchCompetitorBacklinks},
		{step: model.StepAnalyzingGaps, run: o.analyzeGaps},
		{step: model.StepCalculatingScore, run: o.calculateScore},
	}
}

// Run executes the pipeline for jobID. Jobs that are not pending are left untouched,
// so calling Run twice for the same job is harmless.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load analysis job %s: %w", jobID, err)
	}
	if job.Status != model.AnalysisStatusPending {
		o.logger.DebugContext(ctx, "skipping analysis that is not pending", "analysis_id", jobID, "status", job.Status)
		return nil
	}

	r := &analysisRun{
		job:               job,
		progress:          NewProgressReporter(o.repo, jobID, o.now),
		started:           o.now(),
		competitorDomains: make(map[string][]model.AuthorityDomain),
	}
	r.campaignStart = job.Params.CampaignStart(r.started)

	ok, err := o.repo.MarkProcessing(ctx, jobID, r.progress.Snapshot(model.StepStarting, "Starting analysis", 0, nil))
	if err != nil {
		return fmt.Errorf("mark analysis %s processing: %w", jobID, err)
	}
	if !ok {
		o.logger.DebugContext(ctx, "analysis claimed elsewhere", "analysis_id", jobID)
		return nil
	}
	metrics.EmitTransition(o.metrics, metrics.Transition{To: string(model.AnalysisStatusProcessing), Result: metrics.ResultSuccess})
	o.logger.InfoContext(ctx, "analysis started", "analysis_id", jobID, "domain", job.Params.Domain)

	err = o.execute(ctx, r)
	switch {
	case err == nil:
		return o.complete(ctx, r)
	case errors.Is(err, errAborted):
		o.logger.InfoContext(ctx, "analysis stopped; job is no longer processing",
			"analysis_id", jobID,
			"step", r.progress.Step(),
		)
		return nil
	case ctx.Err() != nil:
		// Shutdown: the heartbeat sweep will fail the job if nothing resumes it.
		o.logger.WarnContext(ctx, "analysis interrupted", "analysis_id", jobID, "step", r.progress.Step())
		return ctx.Err()
	default:
		o.fail(ctx, r, err)
		return err
	}
}

func (o *Orchestrator) execute(ctx context.Context, r *analysisRun) error {
	for _, st := range o.stages() {
		status, err := o.repo.GetStatus(ctx, r.job.ID)
		if err != nil {
			return fmt.Errorf("check analysis status: %w", err)
		}
		if status != model.AnalysisStatusProcessing {
			return errAborted
		}

		began := o.now()
		err = st.run(ctx, r)
		if !errors.Is(err, errAborted) {
			metrics.EmitStage(o.metrics, string(st.step), o.now().Sub(began), err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) report(
	ctx context.Context,
	r *analysisRun,
	step model.ProgressStep,
	message string,
	percent int,
	payload model.ProgressPayload,
) error {
	ok, err := r.progress.Report(ctx, step, message, percent, payload)
	if err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	if !ok {
		return errAborted
	}
	return nil
}

func (o *Orchestrator) reportMetrics(
	ctx context.Context,
	r *analysisRun,
	step model.ProgressStep,
	message string,
	percent int,
	payload model.ProgressPayload,
) error {
	ok, err := r.progress.ReportMetrics(ctx, r.metrics, step, message, percent, payload)
	if err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	if !ok {
		return errAborted
	}
	return nil
}

func (o *Orchestrator) resolveCompetitors(ctx context.Context, r *analysisRun) error {
	p := r.job.Params
	err := o.report(ctx, r, model.StepResolvingCompetitors,
		fmt.Sprintf("Searching %d keywords for competitors", len(p.Keywords)), 5,
		model.KeywordsFound{Keywords: p.Keywords, Location: p.LocationCode})
	if err != nil {
		return err
	}

	candidates, err := o.competitors.ResolveCompetitors(ctx, p.Domain, p.Keywords, p.LocationCode)
	if err != nil {
		return fmt.Errorf("resolve competitors: %w", err)
	}
	r.competitors = make([]string, 0, len(candidates))
	for _, c := range candidates {
		r.competitors = append(r.competitors, c.Domain)
	}

	return o.report(ctx, r, model.StepResolvingCompetitors,
		fmt.Sprintf("Found %d competitors", len(r.competitors)), 20,
		model.CompetitorsFound{Competitors: r.competitors})
}

func (o *Orchestrator) fetchCustomerBacklinks(ctx context.Context, r *analysisRun) error {
	domain := r.job.Params.Domain
	if err := o.report(ctx, r, model.StepFetchingCustomerBacklinks, "Fetching backlinks for "+domain, 20, nil); err != nil {
		return err
	}

	raw, err := o.backlinks.ReferringDomains(ctx, domain)
	if err != nil {
		return fmt.Errorf("customer backlinks: %w", err)
	}
	r.customerRaw = raw

	scale, decided := o.backlinks.RankScale(raw)
	if !decided {
		// Wait for competitor data before reading these ranks.
		return o.report(ctx, r, model.StepFetchingCustomerBacklinks,
			fmt.Sprintf("Fetched %d referring domains", len(raw)), 40,
			model.RunningMetrics{CompetitorsTotal: len(r.competitors)})
	}
	r.scale = scale
	o.applyCustomerHistory(r)

	return o.reportMetrics(ctx, r, model.StepFetchingCustomerBacklinks,
		fmt.Sprintf("Found %d authority links", r.customer.Now), 40,
		model.RunningMetrics{
			CurrentLinks:     r.metrics.CurrentAuthorityLinks,
			LinksGained:      r.metrics.AuthorityLinksGained,
			CompetitorsTotal: len(r.competitors),
		})
}

func (o *Orchestrator) applyCustomerHistory(r *analysisRun) {
	history, domains := o.backlinks.AuthorityHistory(r.customerRaw, r.scale, r.campaignStart)
	r.customer = history
	r.customerDomains = domains

	gained := history.Gained()
	r.metrics.CurrentAuthorityLinks = &history.Now
	r.metrics.AuthorityLinksAtStart = &history.AtStart
	r.metrics.AuthorityLinksGained = &gained
}

func (o *Orchestrator) fetchCompetitorBacklinks(ctx context.Context, r *analysisRun) error {
	total := len(r.competitors)
	running := model.RunningMetrics{
		CurrentLinks:     r.metrics.CurrentAuthorityLinks,
		LinksGained:      r.metrics.AuthorityLinksGained,
		CompetitorsTotal: total,
	}
	err := o.report(ctx, r, model.StepFetchingCompetitorBacklinks,
		fmt.Sprintf("Fetching backlinks for %d competitors", total), 40, running)
	if err != nil {
		return err
	}

	raws := make([][]model.ReferringDomain, total)
	var fetched atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, competitor := range r.competitors {
		g.Go(func() error {
			raw, err := o.backlinks.ReferringDomains(gctx, competitor)
			if err != nil {
				return fmt.Errorf("competitor %s backlinks: %w", competitor, err)
			}
			raws[i] = raw

			done := int(fetched.Add(1))
			snapshot := running
			snapshot.CompetitorsFetched = done
			if _, err := r.progress.Report(gctx, model.StepFetchingCompetitorBacklinks,
				fmt.Sprintf("Fetched %d of %d competitors", done, total), 40+30*done/total, snapshot); err != nil {
				return fmt.Errorf("write progress: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if r.scale == "" {
		scale, decided := o.backlinks.RankScale(append(raws, r.customerRaw)...)
		if !decided {
			o.logger.WarnContext(ctx, "no rank above 100 in any response; reading ranks as 0-100",
				"analysis_id", r.job.ID)
		}
		r.scale = scale
		o.applyCustomerHistory(r)
	}

	entries := make([]model.CompetitorHistoricalEntry, total)
	for i, competitor := range r.competitors {
		history, domains := o.backlinks.AuthorityHistory(raws[i], r.scale, r.campaignStart)
		entries[i] = model.CompetitorHistoricalEntry{
			Domain:       competitor,
			LinksAtStart: history.AtStart,
			LinksNow:     history.Now,
		}
		r.competitorDomains[competitor] = domains
	}
	avg := scoring.CompetitorAverage(entries)
	r.metrics.Competitors = r.competitors
	r.metrics.CompetitorHistory = entries
	r.metrics.CompetitorAverageLinks = &avg

	running.CurrentLinks = r.metrics.CurrentAuthorityLinks
	running.LinksGained = r.metrics.AuthorityLinksGained
	running.CompetitorsFetched = total
	running.CompetitorAverage = &avg
	return o.reportMetrics(ctx, r, model.StepFetchingCompetitorBacklinks,
		fmt.Sprintf("Fetched backlinks for %d competitors", total), 70, running)
}

func (o *Orchestrator) analyzeGaps(ctx context.Context, r *analysisRun) error {
	if err := o.report(ctx, r, model.StepAnalyzingGaps, "Comparing referring domains with competitors", 70, nil); err != nil {
		return err
	}

	r.gaps = linkgap.ComputeGaps(r.customerDomains, r.competitorDomains)
	r.metrics.LinkGaps = r.gaps.Top(o.topGaps)
	r.metrics.LinkGapsTotal = &r.gaps.Total
	r.metrics.LinkGapsHighPriority = &r.gaps.HighPriority

	return o.reportMetrics(ctx, r, model.StepAnalyzingGaps,
		fmt.Sprintf("Found %d link gaps", r.gaps.Total), 85,
		model.RunningMetrics{
			CurrentLinks:       r.metrics.CurrentAuthorityLinks,
			LinksGained:        r.metrics.AuthorityLinksGained,
			CompetitorAverage:  r.metrics.CompetitorAverageLinks,
			CompetitorsFetched: len(r.competitors),
			CompetitorsTotal:   len(r.competitors),
			LinkGapsTotal:      &r.gaps.Total,
		})
}

func (o *Orchestrator) calculateScore(ctx context.Context, r *analysisRun) error {
	if err := o.report(ctx, r, model.StepCalculatingScore, "Calculating LinkScore", 85, nil); err != nil {
		return err
	}

	p := r.job.Params
	in := scoring.Input{
		CurrentLinks:     r.customer.Now,
		LinksAtStart:     r.customer.AtStart,
		Competitors:      r.metrics.CompetitorHistory,
		MonthlySpend:     p.MonthlySpend,
		InvestmentMonths: p.InvestmentMonths,
	}
	r.scores = scoring.Calculate(in)
	r.metrics.RedFlags = scoring.RedFlags(in)
	if cpl, ok := scoring.CostPerLink(in.TotalInvestment(), in.Gained()); ok {
		r.metrics.CostPerAuthorityLink = &cpl
	}
	r.lead = scoring.Lead(scoring.LeadInput{
		MonthlySpend:      p.MonthlySpend,
		InvestmentMonths:  p.InvestmentMonths,
		CurrentLinks:      r.customer.Now,
		CompetitorAverage: scoring.CompetitorAverage(r.metrics.CompetitorHistory),
		HighPriorityGaps:  r.gaps.HighPriority,
		RedFlags:          r.metrics.RedFlags,
		LinkScore:         r.scores.Overall,
	})
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, r *analysisRun) error {
	elapsed := o.now().Sub(r.started)
	overall := r.scores.Overall
	ok, err := o.repo.Complete(ctx, r.job.ID, model.CompletionResult{
		Metrics:          r.metrics,
		Scores:           r.scores,
		Lead:             r.lead,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Progress: r.progress.Snapshot(model.StepCompleted, "Analysis complete", 100, model.RunningMetrics{
			CurrentLinks:       r.metrics.CurrentAuthorityLinks,
			LinksGained:        r.metrics.AuthorityLinksGained,
			CompetitorAverage:  r.metrics.CompetitorAverageLinks,
			CompetitorsFetched: len(r.competitors),
			CompetitorsTotal:   len(r.competitors),
			LinkGapsTotal:      r.metrics.LinkGapsTotal,
			LinkScore:          &overall,
		}),
	})
	if err != nil {
		metrics.EmitTransition(o.metrics, metrics.Transition{
			To:     string(model.AnalysisStatusCompleted),
			Result: metrics.ResultError,
			Err:    err,
		})
		return fmt.Errorf("complete analysis %s: %w", r.job.ID, err)
	}
	if !ok {
		o.logger.InfoContext(ctx, "analysis finished after it left processing; results discarded", "analysis_id", r.job.ID)
		metrics.EmitTransition(o.metrics, metrics.Transition{To: string(model.AnalysisStatusCompleted), Result: metrics.ResultNoop})
		return nil
	}

	metrics.EmitTransition(o.metrics, metrics.Transition{
		To:       string(model.AnalysisStatusCompleted),
		Result:   metrics.ResultSuccess,
		Duration: elapsed,
	})
	o.logger.InfoContext(ctx, "analysis completed",
		"analysis_id", r.job.ID,
		"domain", r.job.Params.Domain,
		"score", overall,
		"lead_type", r.lead.Type,
		"duration_ms", elapsed.Milliseconds(),
	)

	if _, err := o.notify(ctx, r.job.ID); err != nil {
		o.logger.WarnContext(ctx, "completion notification failed", "analysis_id", r.job.ID, "error", err)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, r *analysisRun, cause error) {
	msg := cause.Error()
	ok, err := o.repo.Fail(ctx, r.job.ID, msg)
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to mark analysis failed", "analysis_id", r.job.ID, "error", err)
		return
	}
	if !ok {
		return
	}

	step := r.progress.Step()
	metrics.EmitTransition(o.metrics, metrics.Transition{
		To:       string(model.AnalysisStatusFailed),
		Result:   metrics.ResultError,
		Duration: o.now().Sub(r.started),
		Err:      cause,
	})
	o.logger.ErrorContext(ctx, "analysis failed",
		"analysis_id", r.job.ID,
		"domain", r.job.Params.Domain,
		"step", step,
		"error", cause,
	)

	if o.failures == nil {
		return
	}
	o.failures.NotifyAnalysisFailure(ctx, notify.AnalysisFailurePayload{
		AnalysisID: r.job.ID,
		Domain:     r.job.Params.Domain,
		Step:       string(step),
		Error:      msg,
		ErrorClass: obserrors.Classify(cause),
		Severity:   notify.SeverityCritical,
		OccurredAt: o.now().UTC(),
		Metadata: map[string]string{
			"percent":     strconv.Itoa(r.progress.Percent()),
			"competitors": strconv.Itoa(len(r.competitors)),
		},
	})
}

// notify sends the completion notification and stamps notified_at on success.
// It reports whether a notification was sent.
func (o *Orchestrator) notify(ctx context.Context, jobID string) (bool, error) {
	if o.notifier == nil || !o.notifier.Enabled() {
		return false, nil
	}
	job, err := o.repo.GetByID(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("reload analysis: %w", err)
	}
	if err := o.notifier.NotifyCompleted(ctx, job); err != nil {
		return false, err
	}
	if err := o.repo.MarkNotified(ctx, jobID); err != nil {
		return true, fmt.Errorf("mark notified: %w", err)
	}
	return true, nil
}

// ReplayNotification rebuilds and re-sends the completion notification for a completed job.
func (o *Orchestrator) ReplayNotification(ctx context.Context, jobID string) error {
	job, err := o.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, data.ErrAnalysisJobNotFound) {
			return apperrors.NotFoundf("analysis %s not found", jobID)
		}
		return err
	}
	if job.Status != model.AnalysisStatusCompleted {
		return apperrors.StateConflictf("analysis %s is %s; only completed analyses can be replayed", jobID, job.Status)
	}
	if o.notifier == nil || !o.notifier.Enabled() {
		return apperrors.Unavailable("no completion notification sinks are configured")
	}

	if err := o.notifier.NotifyCompleted(ctx, job); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeAPI, "completion notification failed")
	}
	if err := o.repo.MarkNotified(ctx, jobID); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	o.logger.InfoContext(ctx, "completion notification replayed", "analysis_id", jobID)
	return nil
}
