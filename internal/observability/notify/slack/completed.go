package slack

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/linkscore/linkscore-api/internal/observability/notify"
)

// CompletionSink adapts the client to notify.CompletionSink, posting a short analysis summary.
type CompletionSink struct {
	client *Client
}

// NewCompletionSink wraps a Slack client as a completion sink.
func NewCompletionSink(client *Client) *CompletionSink {
	return &CompletionSink{client: client}
}

// Name implements notify.CompletionSink.
func (s *CompletionSink) Name() string { return "slack" }

// SendAnalysisCompleted implements notify.CompletionSink.
func (s *CompletionSink) SendAnalysisCompleted(ctx context.Context, event notify.AnalysisCompletedEvent) error {
	return s.client.send(ctx, s.client.formatCompleted(event))
}

func (c *Client) formatCompleted(event notify.AnalysisCompletedEvent) string {
	r := event.Results

	var text strings.Builder
	text.WriteString("*Analysis completed*")
	if ref := c.analysisRef(event.Analysis.ID); ref != "" {
		text.WriteByte(' ')
		text.WriteString(ref)
	}
	text.WriteByte('\n')

	appendSlackField(&text, "Domain", escapeSlackText(event.Contact.Domain))
	appendSlackField(&text, "Contact", escapeSlackText(event.Contact.Email))
	appendSlackField(&text, "LinkScore", fmt.Sprintf("%d/100 (%s, %s)",
		r.Score.Overall, r.Interpretation.Grade, r.Interpretation.Label))
	appendSlackField(&text, "Strategy", string(r.Interpretation.Strategy))
	appendSlackField(&text, "Lead", fmt.Sprintf("%s / %s urgency (score %d)",
		event.Lead.Type, event.Lead.Urgency, event.Lead.Score))
	appendSlackField(&text, "Monthly spend", "$"+strconv.FormatFloat(event.Campaign.MonthlySpend, 'f', 0, 64))
	appendSlackField(&text, "Link gaps", fmt.Sprintf("%d (%d high priority)", r.LinkGaps.Total, r.LinkGaps.HighPriority))

	for _, note := range event.SalesNotes {
		text.WriteString("> ")
		text.WriteString(escapeSlackText(note))
		text.WriteByte('\n')
	}
	return strings.TrimRight(text.String(), "\n")
}
