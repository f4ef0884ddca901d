package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatFailureIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := client.formatFailure(notify.AnalysisFailurePayload{
		AnalysisID: "a-123",
		Domain:     "acme.com.au",
		Step:       "fetching_customer_backlinks",
		Error:      "provider unavailable",
		ErrorClass: "provider_error",
		Metadata:   map[string]string{"attempts": "3"},
	})

	want := []string{
		"Analysis failure alert", "a-123", "acme.com.au", "fetching_customer_backlinks",
		"provider unavailable", "provider_error", "attempts: 3", "Severity: critical",
	}
	for _, s := range want {
		if !strings.Contains(text, s) {
			t.Fatalf("message text missing %q: %s", s, text)
		}
	}
}

func TestFormatFailureAnalysisLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:        "https://hooks.slack.com/services/test",
		AnalysisURLPrefix: "https://admin.linkscore.local/analyses",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := client.formatFailure(notify.AnalysisFailurePayload{AnalysisID: "a-9"})
	expected := "<https://admin.linkscore.local/analyses/a-9|a-9>"
	if !strings.Contains(text, expected) {
		t.Fatalf("expected analysis link %q in text: %s", expected, text)
	}
}

func TestFormatFailureEscapesError(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := client.formatFailure(notify.AnalysisFailurePayload{Error: "<b>bad</b> & worse"})
	if !strings.Contains(text, "&lt;b&gt;bad&lt;/b&gt; &amp; worse") {
		t.Fatalf("expected escaped error in text: %s", text)
	}
}

func TestFormatCompletedSummary(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := notify.AnalysisCompletedEvent{
		Event:    notify.EventAnalysisCompleted,
		Analysis: notify.AnalysisMeta{ID: "a-1"},
		Contact:  notify.Contact{Email: "owner@acme.com.au", Domain: "acme.com.au"},
		Campaign: model.CampaignSummary{MonthlySpend: 2000},
		Results: model.AnalysisResults{
			Score:          model.ScoreView{Overall: 38},
			Interpretation: model.Interpretation{Grade: "D", Label: "Poor", Strategy: model.StrategyCrisis},
			LinkGaps:       model.LinkGapSummary{Total: 12, HighPriority: 4},
		},
		Lead:       model.LeadScore{Type: model.LeadTypePotential, Urgency: model.LeadUrgencyHigh, Score: 55},
		SalesNotes: []string{"Lead with a recovery plan."},
	}

	text := client.formatCompleted(event)
	for _, s := range []string{"Analysis completed", "acme.com.au", "38/100 (D, Poor)", "CRISIS", "$2000", "12 (4 high priority)", "> Lead with a recovery plan."} {
		if !strings.Contains(text, s) {
			t.Fatalf("summary missing %q: %s", s, text)
		}
	}
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["channel"] != "#leads" {
			t.Errorf("channel = %v", body["channel"])
		}
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Channel: "#leads", RetryLimit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sink := NewCompletionSink(client)
	if err := sink.SendAnalysisCompleted(context.Background(), notify.AnalysisCompletedEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if sink.Name() != "slack" {
		t.Fatalf("unexpected sink name %q", sink.Name())
	}
}

func TestSendReturnsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.SendAnalysisFailure(context.Background(), notify.AnalysisFailurePayload{AnalysisID: "x"})
	if err == nil || !strings.Contains(err.Error(), "no_service") {
		t.Fatalf("expected webhook error, got %v", err)
	}
}
