package slack

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/linkscore/linkscore-api/internal/observability/notify"
)

// SendAnalysisFailure posts a failed-analysis alert to Slack.
func (c *Client) SendAnalysisFailure(ctx context.Context, payload notify.AnalysisFailurePayload) error {
	return c.send(ctx, c.formatFailure(payload))
}

func (c *Client) formatFailure(payload notify.AnalysisFailurePayload) string {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	text.WriteString("*Analysis failure alert*")
	if ref := c.analysisRef(payload.AnalysisID); ref != "" {
		text.WriteByte(' ')
		text.WriteString(ref)
	}
	text.WriteByte('\n')

	appendSlackField(&text, "Severity", fallbackString(payload.Severity, notify.SeverityCritical))
	appendSlackField(&text, "Domain", escapeSlackText(payload.Domain))
	appendSlackField(&text, "Step", payload.Step)
	appendSlackField(&text, "Error class", payload.ErrorClass)
	appendSlackField(&text, "Error", escapeSlackText(payload.Error))

	if len(payload.Metadata) > 0 {
		text.WriteString("• Metadata:\n")
		keys := make([]string, 0, len(payload.Metadata))
		for k := range payload.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			text.WriteString("    • ")
			text.WriteString(k)
			text.WriteString(": ")
			text.WriteString(escapeSlackText(payload.Metadata[k]))
			text.WriteByte('\n')
		}
	}

	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))
	return text.String()
}
