package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() notify.AnalysisCompletedEvent {
	return notify.AnalysisCompletedEvent{
		Event:    notify.EventAnalysisCompleted,
		Analysis: notify.AnalysisMeta{ID: "a-1", ProcessingTimeMs: 1200},
		Contact:  notify.Contact{Email: "owner@acme.com.au", Domain: "acme.com.au"},
		Results:  model.AnalysisResults{Score: model.ScoreView{Overall: 62}},
		Lead:     model.LeadScore{Score: 70, Type: model.LeadTypePriority},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{URL: "ftp://example.com"})
	require.Error(t, err)

	_, err = New(Config{URL: "https://example.com/hook", BodyTransform: "{id: "})
	require.Error(t, err)

	s, err := New(Config{URL: "https://crm.example.com/hook"})
	require.NoError(t, err)
	assert.Equal(t, "crm.example.com", s.Name())
	assert.Equal(t, DefaultTimeout, s.timeout)
}

func TestSink_PostsEventWithHeaders(t *testing.T) {
	var (
		got     notify.AnalysisCompletedEvent
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s, err := New(Config{Name: "crm", URL: srv.URL, Headers: map[string]string{"X-Api-Key": "secret"}})
	require.NoError(t, err)

	require.NoError(t, s.SendAnalysisCompleted(context.Background(), sampleEvent()))
	assert.Equal(t, "a-1", got.Analysis.ID)
	assert.Equal(t, 62, got.Results.Score.Overall)
	assert.Equal(t, "secret", headers.Get("X-Api-Key"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestSink_BodyTransform(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := New(Config{
		URL:           srv.URL,
		BodyTransform: "{id: analysis.id, email: contact.email, score: results.score.overall, lead: lead.type}",
	})
	require.NoError(t, err)
	require.NoError(t, s.SendAnalysisCompleted(context.Background(), sampleEvent()))

	assert.JSONEq(t, `{"id":"a-1","email":"owner@acme.com.au","score":62,"lead":"PRIORITY"}`, string(body))
}

func TestSink_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, err := New(Config{Name: "crm", URL: srv.URL})
	require.NoError(t, err)

	err = s.SendAnalysisCompleted(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
	assert.Contains(t, err.Error(), "crm")
}

func TestSink_TimeoutPerAttempt(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s, err := New(Config{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = s.SendAnalysisCompleted(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
